package payment

import "errors"

var (
	// ErrValidation marks bad caller input; the gateway is never called.
	ErrValidation = errors.New("invalid payment request")
	// ErrPaymentNotFound means no PendingPayment matches the checkout request id.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrGatewayQuery means the live status fallback against the gateway failed.
	ErrGatewayQuery = errors.New("gateway status query failed")

	// errAlreadyTerminal aborts a reconciliation transaction when another
	// delivery of the same callback won the conditional transition.
	errAlreadyTerminal = errors.New("pending payment already in a terminal state")
)
