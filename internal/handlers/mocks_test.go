package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) AddItem(ctx context.Context, userID, eventID int) (*models.CartItem, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, eventID int) error {
	return m.Called(ctx, userID, eventID).Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartService) GetCart(ctx context.Context, userID int) (*services.CartView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req services.CreateOrderRequest) (*models.Order, bool, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID int) (*models.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, userID, orderID int) (*models.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, userID, orderID int) (*services.InitiationResult, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InitiationResult), args.Error(1)
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, rawBody []byte, signature string) (*services.TransitionResult, error) {
	args := m.Called(ctx, rawBody, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TransitionResult), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, userID int, mtid string) (*models.Payment, error) {
	args := m.Called(ctx, userID, mtid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type MockPaymentAdmin struct {
	mock.Mock
}

func (m *MockPaymentAdmin) AdminOverride(ctx context.Context, mtid string, to models.PaymentStatus) (*services.TransitionResult, error) {
	args := m.Called(ctx, mtid, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TransitionResult), args.Error(1)
}

func (m *MockPaymentAdmin) ReconcileOutstanding(ctx context.Context, limit int) (*services.SweepResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SweepResult), args.Error(1)
}

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) LogAction(ctx context.Context, entry services.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockAuditor) GetPaymentHistory(ctx context.Context, mtid string, limit int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, mtid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

// serve routes one request through a chi router so URL params resolve.
// userID 0 sends the request anonymously.
func serve(method, pattern, target, body string, userID int, handler http.HandlerFunc, headers ...string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if userID > 0 {
		req = req.WithContext(middleware.SetUserIDContext(req.Context(), userID))
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
