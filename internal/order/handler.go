package order

import (
	"errors"
	"net/http"
	"strconv"

	"sokofresh-be/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type createOrderRequest struct {
	Delivery bool   `json:"delivery"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

type updateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	o, err := h.svc.Create(c.Request.Context(), userID, CreateInput{
		Delivery: req.Delivery,
		Phone:    req.Phone,
		Location: req.Location,
		Notes:    req.Notes,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrCartEmpty) || errors.Is(err, ErrProductUnavailable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": o})
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid order id"})
		return
	}

	o, err := h.svc.Get(c.Request.Context(), userID, orderID, middleware.IsAdmin(c))
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "forbidden"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "data": o})
	}
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	orders, err := h.svc.List(c.Request.Context(), userID, middleware.IsAdmin(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

// UpdateStatus is admin-only; the route is registered behind the admin
// middleware.
func (h *Handler) UpdateStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid order id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	err = h.svc.UpdateStatus(c.Request.Context(), orderID, req.Status)
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
