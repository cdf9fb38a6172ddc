package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *models.Order {
	return &models.Order{
		ID:          11,
		UserID:      5,
		OrderNumber: "ORD-20240101-000011",
		Items:       []models.OrderItem{{EventID: 1, AmountSnapshot: 1000}},
		TotalAmount: 1000,
		Status:      models.OrderCreated,
	}
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	t.Run("first submission", func(t *testing.T) {
		svc := &MockOrderService{}
		svc.On("CreateOrder", mock.Anything, services.CreateOrderRequest{UserID: 5, IdempotencyKey: "k-1"}).
			Return(sampleOrder(), true, nil)

		rr := serve("POST", "/orders", "/orders", "", 5, NewOrderHandler(svc).CreateOrder, IdempotencyKeyHeader, "k-1")

		require.Equal(t, http.StatusCreated, rr.Code)
		var order models.Order
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
		assert.Equal(t, 11, order.ID)
		assert.Equal(t, 1000, order.TotalAmount)
		assert.NotContains(t, rr.Body.String(), "k-1", "idempotency key is not echoed")
	})

	t.Run("repeat submission", func(t *testing.T) {
		svc := &MockOrderService{}
		svc.On("CreateOrder", mock.Anything, services.CreateOrderRequest{UserID: 5}).Return(sampleOrder(), false, nil)

		rr := serve("POST", "/orders", "/orders", "", 5, NewOrderHandler(svc).CreateOrder)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("empty cart", func(t *testing.T) {
		svc := &MockOrderService{}
		svc.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, false, models.ErrEmptyCart)

		rr := serve("POST", "/orders", "/orders", "", 5, NewOrderHandler(svc).CreateOrder)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "cart is empty")
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	svc := &MockOrderService{}
	svc.On("GetOrder", mock.Anything, 5, 11).Return(sampleOrder(), nil)
	svc.On("GetOrder", mock.Anything, 5, 12).Return(nil, models.NewNotFound("order", "12"))
	h := NewOrderHandler(svc)

	assert.Equal(t, http.StatusOK, serve("GET", "/orders/{orderID}", "/orders/11", "", 5, h.GetOrder).Code)
	assert.Equal(t, http.StatusNotFound, serve("GET", "/orders/{orderID}", "/orders/12", "", 5, h.GetOrder).Code)
	assert.Equal(t, http.StatusBadRequest, serve("GET", "/orders/{orderID}", "/orders/-1", "", 5, h.GetOrder).Code)
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	svc := &MockOrderService{}
	cancelled := sampleOrder()
	cancelled.Status = models.OrderCancelled
	svc.On("CancelOrder", mock.Anything, 5, 11).Return(cancelled, nil)
	svc.On("CancelOrder", mock.Anything, 5, 12).Return(nil, &models.StateError{Entity: "order", From: "confirmed", To: "cancelled"})
	h := NewOrderHandler(svc)

	rr := serve("POST", "/orders/{orderID}/cancel", "/orders/11/cancel", "", 5, h.CancelOrder)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"cancelled"`)

	rr = serve("POST", "/orders/{orderID}/cancel", "/orders/12/cancel", "", 5, h.CancelOrder)
	assert.Equal(t, http.StatusConflict, rr.Code)
}
