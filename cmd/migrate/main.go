package main

import (
	"sokofresh-be/internal/config"
	"sokofresh-be/internal/db"
	"sokofresh-be/internal/logger"

	"go.uber.org/zap"
)

// Statements run in dependency order; every table uses IF NOT EXISTS so
// the migrator is safe to re-run.
var statements = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(12,2) NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			stock_quantity INT NOT NULL DEFAULT 0,
			is_available BOOLEAN NOT NULL DEFAULT TRUE
		)`},
	{"carts", `
		CREATE TABLE IF NOT EXISTS carts (
			user_id BIGINT NOT NULL REFERENCES users(id),
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INT NOT NULL CHECK (quantity > 0),
			PRIMARY KEY (user_id, product_id)
		)`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			order_number TEXT NOT NULL UNIQUE,
			subtotal NUMERIC(12,2) NOT NULL,
			delivery_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
			total NUMERIC(12,2) NOT NULL,
			status TEXT NOT NULL DEFAULT 'Pending',
			payment_method TEXT NOT NULL DEFAULT 'M-Pesa',
			payment_status TEXT NOT NULL DEFAULT 'Pending',
			phone_number TEXT NOT NULL DEFAULT '',
			delivery_location TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			product_id BIGINT NOT NULL REFERENCES products(id),
			product_name TEXT NOT NULL,
			quantity INT NOT NULL,
			price NUMERIC(12,2) NOT NULL,
			subtotal NUMERIC(12,2) NOT NULL
		)`},
	{"loans", `
		CREATE TABLE IF NOT EXISTS loans (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			amount NUMERIC(12,2) NOT NULL,
			balance NUMERIC(12,2) NOT NULL,
			amount_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"pending_payments", `
		CREATE TABLE IF NOT EXISTS pending_payments (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			order_number TEXT NOT NULL,
			username TEXT NOT NULL,
			checkout_request_id TEXT NOT NULL UNIQUE,
			merchant_request_id TEXT NOT NULL DEFAULT '',
			amount BIGINT NOT NULL,
			phone_number TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			loan_id BIGINT REFERENCES loans(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"transactions", `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			order_number TEXT NOT NULL,
			user_id BIGINT NOT NULL REFERENCES users(id),
			username TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			mpesa_receipt TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"user_points", `
		CREATE TABLE IF NOT EXISTS user_points (
			user_id BIGINT PRIMARY KEY REFERENCES users(id),
			username TEXT NOT NULL,
			points BIGINT NOT NULL DEFAULT 0,
			points_spent BIGINT NOT NULL DEFAULT 0,
			total_spent NUMERIC(12,2) NOT NULL DEFAULT 0,
			total_orders BIGINT NOT NULL DEFAULT 0
		)`},
	{"notifications", `
		CREATE TABLE IF NOT EXISTS notifications (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'info',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"pending_payments_status_idx", `
		CREATE INDEX IF NOT EXISTS pending_payments_status_idx
		ON pending_payments (status) WHERE status = 'pending'`},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("failed to load config", zap.Error(err))
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	for _, s := range statements {
		if _, err := database.Exec(s.ddl); err != nil {
			log.Fatal("migration failed", zap.String("table", s.name), zap.Error(err))
		}
		log.Info("migrated", zap.String("table", s.name))
	}

	log.Info("all migrations applied")
}
