package payment

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sokofresh-be/internal/middleware"
	"sokofresh-be/internal/mpesa"
	"sokofresh-be/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*InitiateResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentService) Status(ctx context.Context, id string) (*StatusResult, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*StatusResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentService) Reconcile(ctx context.Context, cb *mpesa.CallbackResult) error {
	return m.Called(ctx, cb).Error(0)
}

const handlerTestSecret = "handler-test-secret"

func newPaymentRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(handlerTestSecret))

	h := NewHandler(svc)
	r.POST("/api/payments/initiate", middleware.RequireAuth(), h.Initiate)
	r.GET("/api/payments/status/:checkoutRequestId", h.Status)
	return r
}

func bearerFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := user.GenerateToken(&user.User{ID: userID, Username: "alice"}, handlerTestSecret)
	require.NoError(t, err)
	return token
}

func TestHandler_Initiate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &mockPaymentService{}
		svc.On("Initiate", mock.Anything, InitiateRequest{
			PhoneNumber: "0712345678", Amount: 500, OrderID: 42, UserID: 7,
		}).Return(&InitiateResult{
			CheckoutRequestID: "ws_CO_123", Amount: 500, OrderID: 42,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate",
			bytes.NewBufferString(`{"phoneNumber":"0712345678","amount":500,"orderId":42}`))
		req.Header.Set("Authorization", "Bearer "+bearerFor(t, 7))
		w := httptest.NewRecorder()
		newPaymentRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"success": true,
			"message": "STK push sent. Enter your M-Pesa PIN on your phone.",
			"data": {"checkoutRequestId": "ws_CO_123", "amount": 500, "orderId": 42}
		}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		svc := &mockPaymentService{}

		req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate",
			bytes.NewBufferString(`{"phoneNumber":"0712345678","amount":500,"orderId":42}`))
		w := httptest.NewRecorder()
		newPaymentRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
	})

	t.Run("ValidationIs400", func(t *testing.T) {
		svc := &mockPaymentService{}
		svc.On("Initiate", mock.Anything, mock.Anything).Return(nil, ErrValidation)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate",
			bytes.NewBufferString(`{"phoneNumber":"","amount":500,"orderId":42}`))
		req.Header.Set("Authorization", "Bearer "+bearerFor(t, 7))
		w := httptest.NewRecorder()
		newPaymentRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GatewayFailureIs500", func(t *testing.T) {
		svc := &mockPaymentService{}
		svc.On("Initiate", mock.Anything, mock.Anything).Return(nil, mpesa.ErrAuth)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate",
			bytes.NewBufferString(`{"phoneNumber":"0712345678","amount":500,"orderId":42}`))
		req.Header.Set("Authorization", "Bearer "+bearerFor(t, 7))
		w := httptest.NewRecorder()
		newPaymentRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandler_Status(t *testing.T) {
	t.Run("Terminal", func(t *testing.T) {
		svc := &mockPaymentService{}
		svc.On("Status", mock.Anything, "ws_CO_123").
			Return(&StatusResult{Status: StatusCompleted, OrderID: 42}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/payments/status/ws_CO_123", nil)
		w := httptest.NewRecorder()
		newPaymentRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"status":"completed","orderId":42}`, w.Body.String())
	})

	t.Run("PendingIncludesGatewayPayload", func(t *testing.T) {
		svc := &mockPaymentService{}
		svc.On("Status", mock.Anything, "ws_CO_123").
			Return(&StatusResult{
				Status:    StatusPending,
				OrderID:   42,
				MpesaData: map[string]string{"ResultDesc": "processing"},
			}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/payments/status/ws_CO_123", nil)
		w := httptest.NewRecorder()
		newPaymentRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"mpesaData"`)
	})

	t.Run("UnknownIs404", func(t *testing.T) {
		svc := &mockPaymentService{}
		svc.On("Status", mock.Anything, "ws_CO_nope").Return(nil, ErrPaymentNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/payments/status/ws_CO_nope", nil)
		w := httptest.NewRecorder()
		newPaymentRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
