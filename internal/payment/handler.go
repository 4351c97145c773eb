package payment

import (
	"errors"
	"net/http"

	"sokofresh-be/internal/middleware"
	"sokofresh-be/internal/mpesa"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type initiateRequest struct {
	PhoneNumber string  `json:"phoneNumber"`
	Amount      float64 `json:"amount"`
	OrderID     int64   `json:"orderId"`
}

func (h *Handler) Initiate(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	res, err := h.svc.Initiate(c.Request.Context(), InitiateRequest{
		PhoneNumber: req.PhoneNumber,
		Amount:      req.Amount,
		OrderID:     req.OrderID,
		UserID:      userID,
	})
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, mpesa.ErrInvalidPhone),
		errors.Is(err, mpesa.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to initiate payment"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "STK push sent. Enter your M-Pesa PIN on your phone.",
			"data": gin.H{
				"checkoutRequestId": res.CheckoutRequestID,
				"amount":            res.Amount,
				"orderId":           res.OrderID,
			},
		})
	}
}

func (h *Handler) Status(c *gin.Context) {
	checkoutRequestID := c.Param("checkoutRequestId")
	if checkoutRequestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "checkout request id required"})
		return
	}

	res, err := h.svc.Status(c.Request.Context(), checkoutRequestID)
	switch {
	case errors.Is(err, ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "payment not found"})
	case errors.Is(err, ErrGatewayQuery):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "unable to query payment status"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to fetch payment status"})
	case res.Status == StatusPending:
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"status":    res.Status,
			"orderId":   res.OrderID,
			"mpesaData": res.MpesaData,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  res.Status,
			"orderId": res.OrderID,
		})
	}
}
