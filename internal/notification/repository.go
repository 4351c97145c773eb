package notification

import (
	"context"
	"database/sql"
	"time"
)

type Type string

const (
	TypeSuccess Type = "success"
	TypeInfo    Type = "info"
	TypeError   Type = "error"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	Create(ctx context.Context, userID int64, title, message string, typ Type) error
	ListByUser(ctx context.Context, userID int64) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) Create(ctx context.Context, userID int64, title, message string, typ Type) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW())
	`, userID, title, message, typ)
	return err
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]*Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, id, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	return err
}
