package mpesa

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means Daraja rejected the configured consumer key/secret.
	ErrAuth = errors.New("mpesa: invalid credentials")
	// ErrBadRequest means Daraja rejected the request shape.
	ErrBadRequest = errors.New("mpesa: bad request")
	// ErrNetwork means the Daraja host could not be reached.
	ErrNetwork = errors.New("mpesa: network error")

	ErrInvalidPhone    = errors.New("mpesa: invalid phone number format, expected 254XXXXXXXXX")
	ErrInvalidAmount   = errors.New("mpesa: amount must be a positive number between 1 and 150000")
	ErrInvalidEnvelope = errors.New("mpesa: invalid callback envelope")
)

// GatewayError is Daraja's synchronous refusal of an STK push request.
// Distinct from a final payment failure, which arrives later via callback.
type GatewayError struct {
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("mpesa: gateway rejected request (code %s): %s", e.Code, e.Description)
}
