package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sokofresh-be/internal/config"
	"sokofresh-be/internal/logger"

	"go.uber.org/zap"
)

// Client talks to the Daraja API. Token, timestamp and signed password are
// regenerated per call: tokens expire and the password is bound to the
// timestamp it was derived from.
type Client struct {
	cfg        *config.MpesaConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg *config.MpesaConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		now: time.Now,
	}
}

// Timestamp renders t in the YYYYMMDDHHMMSS form Daraja expects.
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}

// Password derives the request password: base64(shortcode + passkey + timestamp).
func (c *Client) Password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.Shortcode + c.cfg.Passkey + timestamp))
}

// AccessToken exchanges the configured consumer credentials for a
// short-lived bearer token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthURL, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", ErrAuth
	case resp.StatusCode == http.StatusBadRequest:
		return "", ErrBadRequest
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("mpesa: token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("mpesa: token endpoint returned empty token")
	}

	return tok.AccessToken, nil
}

// InitiateSTKPush asks Daraja to push a payment prompt to the payer's
// phone. The returned CheckoutRequestID is the correlation key for the
// asynchronous callback.
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount int64, reference, description string) (*STKPushResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "InitiateSTKPush"),
		zap.String("reference", reference),
		zap.Int64("amount", amount),
	)

	formattedPhone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := Timestamp(c.now())
	payload := stkPushRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          c.Password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerBuyGoodsOnline",
		Amount:            amount,
		PartyA:            formattedPhone,
		PartyB:            c.cfg.PartyB,
		PhoneNumber:       formattedPhone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  reference,
		TransactionDesc:   description,
	}

	var res STKPushResponse
	if err := c.postJSON(ctx, c.cfg.STKPushURL, token, payload, &res); err != nil {
		log.Error("stk push request failed", zap.Error(err))
		return nil, err
	}

	if res.ResponseCode != "0" {
		log.Warn("stk push rejected by gateway",
			zap.String("response_code", res.ResponseCode),
			zap.String("response_description", res.ResponseDescription),
		)
		return nil, &GatewayError{Code: res.ResponseCode, Description: res.ResponseDescription}
	}

	log.Info("stk push sent",
		zap.String("checkout_request_id", res.CheckoutRequestID),
		zap.String("phone", formattedPhone),
	)

	return &res, nil
}

// QuerySTKStatus polls Daraja directly for the status of an in-flight push.
// Fallback path only; reconciliation is driven by the callback.
func (c *Client) QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := Timestamp(c.now())
	payload := stkQueryRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          c.Password(timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	var res STKQueryResponse
	if err := c.postJSON(ctx, c.cfg.STKQueryURL, token, payload, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *Client) postJSON(ctx context.Context, url, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mpesa: gateway returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
