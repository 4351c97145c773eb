// Package client holds the consumer-side helper that watches a payment
// until the asynchronous callback settles it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrPollTimeout means the polling budget ran out while the payment was
// still pending. It is not a payment failure: the callback may still
// arrive and settle the row after the poller gave up.
var ErrPollTimeout = errors.New("payment status polling timed out")

const (
	defaultInterval    = 5 * time.Second
	defaultMaxAttempts = 12
)

// PollOutcome is the terminal state the poller observed.
type PollOutcome struct {
	Status  string
	OrderID int64
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	OrderID int64  `json:"orderId"`
	Error   string `json:"error"`
}

// StatusPoller repeatedly asks the payment status endpoint about one
// checkout request until it turns terminal or the attempt budget runs
// out. One poller call per checkout request; callers wanting to retry
// start a fresh Poll.
type StatusPoller struct {
	BaseURL     string
	HTTPClient  *http.Client
	Interval    time.Duration
	MaxAttempts int
}

func NewStatusPoller(baseURL string) *StatusPoller {
	return &StatusPoller{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		Interval:    defaultInterval,
		MaxAttempts: defaultMaxAttempts,
	}
}

// Poll blocks until the payment reaches a terminal state, the context is
// cancelled, or MaxAttempts checks have been spent. A terminal "failed"
// comes back as a normal outcome; ErrPollTimeout is reserved for the
// budget running out with the payment still pending.
func (p *StatusPoller) Poll(ctx context.Context, checkoutRequestID string) (*PollOutcome, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		outcome, err := p.check(ctx, checkoutRequestID)
		if err != nil {
			// Transient: the next tick retries within the same budget.
			continue
		}
		if outcome != nil {
			return outcome, nil
		}
	}

	return nil, ErrPollTimeout
}

// check returns a non-nil outcome only for terminal statuses.
func (p *StatusPoller) check(ctx context.Context, checkoutRequestID string) (*PollOutcome, error) {
	url := fmt.Sprintf("%s/api/payments/status/%s", p.BaseURL, checkoutRequestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	switch body.Status {
	case "completed", "failed", "cancelled":
		return &PollOutcome{Status: body.Status, OrderID: body.OrderID}, nil
	default:
		return nil, nil
	}
}
