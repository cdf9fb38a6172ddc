package models

import (
	"regexp"
	"testing"
)

func TestOrder_Validate(t *testing.T) {
	items := []OrderItem{{EventID: 1, AmountSnapshot: 500}, {EventID: 2, AmountSnapshot: 300}}

	tests := []struct {
		name    string
		order   Order
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid order",
			order: Order{
				OrderNumber:    "ORD-20240101-123456",
				IdempotencyKey: "key-1",
				Items:          items,
				TotalAmount:    800,
				Status:         OrderCreated,
			},
			wantErr: false,
		},
		{
			name: "invalid order number - empty",
			order: Order{
				IdempotencyKey: "key-1",
				Items:          items,
				TotalAmount:    800,
				Status:         OrderCreated,
			},
			wantErr: true,
			errMsg:  "validation failed: order_number: is required",
		},
		{
			name: "invalid order number - format",
			order: Order{
				OrderNumber:    "INVALID-123",
				IdempotencyKey: "key-1",
				Items:          items,
				TotalAmount:    800,
				Status:         OrderCreated,
			},
			wantErr: true,
			errMsg:  "validation failed: order_number: format is invalid",
		},
		{
			name: "missing idempotency key",
			order: Order{
				OrderNumber: "ORD-20240101-123456",
				Items:       items,
				TotalAmount: 800,
				Status:      OrderCreated,
			},
			wantErr: true,
			errMsg:  "validation failed: idempotency_key: is required",
		},
		{
			name: "total does not match snapshot",
			order: Order{
				OrderNumber:    "ORD-20240101-123456",
				IdempotencyKey: "key-1",
				Items:          items,
				TotalAmount:    900,
				Status:         OrderCreated,
			},
			wantErr: true,
			errMsg:  "validation failed: total_amount: does not match item snapshot",
		},
		{
			name: "invalid status",
			order: Order{
				OrderNumber:    "ORD-20240101-123456",
				IdempotencyKey: "key-1",
				Items:          items,
				TotalAmount:    800,
				Status:         "paid",
			},
			wantErr: true,
			errMsg:  "validation failed: status: invalid order status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Order.Validate() expected error but got none")
					return
				}
				if err.Error() != tt.errMsg {
					t.Errorf("Order.Validate() error = %v, want %v", err.Error(), tt.errMsg)
				}
				if !IsValidation(err) {
					t.Errorf("Order.Validate() error should be a ValidationError")
				}
			} else if err != nil {
				t.Errorf("Order.Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestNewOrder(t *testing.T) {
	items := []OrderItem{{EventID: 1, AmountSnapshot: 500}, {EventID: 2, AmountSnapshot: 300}}

	order, err := NewOrder(7, "key-1", items)
	if err != nil {
		t.Fatalf("NewOrder() unexpected error = %v", err)
	}

	if order.TotalAmount != 800 {
		t.Errorf("TotalAmount = %d, want 800", order.TotalAmount)
	}
	if order.Status != OrderCreated {
		t.Errorf("Status = %s, want created", order.Status)
	}
	if err := order.Validate(); err != nil {
		t.Errorf("new order should validate, got %v", err)
	}

	// The order owns its own copy of the snapshot.
	items[0].AmountSnapshot = 10000
	if order.Items[0].AmountSnapshot != 500 {
		t.Errorf("order snapshot changed with caller slice")
	}
	if order.TotalAmount != order.SnapshotTotal() {
		t.Errorf("TotalAmount %d != SnapshotTotal %d", order.TotalAmount, order.SnapshotTotal())
	}
}

func TestNewOrder_Errors(t *testing.T) {
	if _, err := NewOrder(1, "k", nil); !IsConflict(err) {
		t.Errorf("empty items should be a ConflictError, got %v", err)
	}
	if _, err := NewOrder(1, "k", []OrderItem{{EventID: 1, AmountSnapshot: -1}}); !IsValidation(err) {
		t.Errorf("negative snapshot should be a ValidationError, got %v", err)
	}
	if _, err := NewOrder(1, "k", []OrderItem{{EventID: 1, AmountSnapshot: 10000001}}); !IsValidation(err) {
		t.Errorf("oversized total should be a ValidationError, got %v", err)
	}
}

func TestOrder_StatusChecks(t *testing.T) {
	tests := []struct {
		status        OrderStatus
		canCancel     bool
		canConfirm    bool
		canRefund     bool
		wantDisplayed string
	}{
		{OrderCreated, true, true, false, "Awaiting Payment"},
		{OrderConfirmed, false, false, true, "Confirmed"},
		{OrderCancelled, false, false, false, "Cancelled"},
		{OrderRefunded, false, false, false, "Refunded"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := &Order{Status: tt.status}
			if got := o.CanBeCancelled(); got != tt.canCancel {
				t.Errorf("CanBeCancelled() = %v, want %v", got, tt.canCancel)
			}
			if got := o.CanBeConfirmed(); got != tt.canConfirm {
				t.Errorf("CanBeConfirmed() = %v, want %v", got, tt.canConfirm)
			}
			if got := o.CanBeRefunded(); got != tt.canRefund {
				t.Errorf("CanBeRefunded() = %v, want %v", got, tt.canRefund)
			}
			if got := o.GetStatusDisplayName(); got != tt.wantDisplayed {
				t.Errorf("GetStatusDisplayName() = %v, want %v", got, tt.wantDisplayed)
			}
		})
	}
}

func TestOrder_TotalAmountInCurrency(t *testing.T) {
	order := Order{TotalAmount: 2550}
	expected := 25.50
	if got := order.TotalAmountInCurrency(); got != expected {
		t.Errorf("TotalAmountInCurrency() = %v, want %v", got, expected)
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	orderNumber := GenerateOrderNumber()

	matched, _ := regexp.MatchString(`^ORD-\d{8}-\d{6}$`, orderNumber)
	if !matched {
		t.Errorf("GenerateOrderNumber() = %v, doesn't match expected format", orderNumber)
	}
}
