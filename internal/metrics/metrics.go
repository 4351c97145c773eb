package metrics

import "sync/atomic"

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// Reconciliation holds the callback-path counters the reconciler bumps.
// Duplicates and unknown ids are expected operational noise, but a rising
// rate of either is the first sign of gateway trouble.
type Reconciliation struct {
	CallbacksReceived  Counter
	InvalidEnvelopes   Counter
	UnknownCheckoutIDs Counter
	DuplicatesIgnored  Counter
	PaymentsCompleted  Counter
	PaymentsFailed     Counter
}

func (m *Reconciliation) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"callbacks_received":   m.CallbacksReceived.Load(),
		"invalid_envelopes":    m.InvalidEnvelopes.Load(),
		"unknown_checkout_ids": m.UnknownCheckoutIDs.Load(),
		"duplicates_ignored":   m.DuplicatesIgnored.Load(),
		"payments_completed":   m.PaymentsCompleted.Load(),
		"payments_failed":      m.PaymentsFailed.Load(),
	}
}
