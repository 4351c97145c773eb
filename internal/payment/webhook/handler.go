// Package webhook is the inbound boundary for gateway payment callbacks.
// Its one rule: always acknowledge. Daraja retries on any non-200, and a
// retried callback we already settled is pure noise, so every internal
// outcome maps to the same 200 ack.
package webhook

import (
	"io"
	"net/http"

	"sokofresh-be/internal/logger"
	"sokofresh-be/internal/metrics"
	"sokofresh-be/internal/mpesa"
	"sokofresh-be/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc     payment.Service
	metrics *metrics.Reconciliation
}

func NewHandler(svc payment.Service, m *metrics.Reconciliation) *Handler {
	return &Handler{svc: svc, metrics: m}
}

func (h *Handler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)

	defer ack(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Error("failed to read callback body", zap.Error(err))
		return
	}

	cb, err := mpesa.ParseCallback(body)
	if err != nil {
		h.metrics.InvalidEnvelopes.Inc()
		log.Warn("discarding malformed callback", zap.Error(err),
			zap.ByteString("body", body))
		return
	}

	if err := h.svc.Reconcile(ctx, cb); err != nil {
		// The gateway cannot fix an internal failure, so we still ack.
		// The pending row stays pending and is visible to reprocessing.
		log.Error("callback reconciliation failed", zap.Error(err),
			zap.String("checkout_request_id", cb.CheckoutRequestID))
	}
}

func ack(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Success"})
}
