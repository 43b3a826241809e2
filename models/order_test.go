package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPendingPayment, OrderStatusAwaitingShipment, true},
		{OrderStatusPendingPayment, OrderStatusProcessing, true},
		{OrderStatusPendingPayment, OrderStatusCancelled, true},
		{OrderStatusPendingPayment, OrderStatusFailed, true},
		{OrderStatusPendingPayment, OrderStatusShipped, false},
		{OrderStatusAwaitingShipment, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCompleted, true},
		{OrderStatusAwaitingReview, OrderStatusCompleted, true},
		{OrderStatusRefundPending, OrderStatusRefunded, true},
		// no way out of a terminal state
		{OrderStatusCompleted, OrderStatusRefundPending, false},
		{OrderStatusCancelled, OrderStatusPendingPayment, false},
		{OrderStatusRefunded, OrderStatusCompleted, false},
		{OrderStatusFailed, OrderStatusPendingPayment, false},
		// self transitions are not transitions
		{OrderStatusShipped, OrderStatusShipped, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
		assert.Empty(t, allowedTransitions[s], "%s must have no outgoing transitions", s)
	}
	open := []OrderStatus{OrderStatusPendingPayment, OrderStatusProcessing, OrderStatusAwaitingShipment,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusAwaitingReview, OrderStatusRefundPending}
	for _, s := range open {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestPaymentStatusMapping(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   string
	}{
		{OrderStatusPendingPayment, "pending"},
		{OrderStatusProcessing, "paid"},
		{OrderStatusAwaitingShipment, "paid"},
		{OrderStatusShipped, "paid"},
		{OrderStatusDelivered, "paid"},
		{OrderStatusAwaitingReview, "paid"},
		{OrderStatusCompleted, "paid"},
		{OrderStatusCancelled, "failed"},
		{OrderStatusFailed, "failed"},
		{OrderStatusRefundPending, "unknown"},
		{OrderStatusRefunded, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.PaymentStatus(), "status %s", tt.status)
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("  Pending_Payment ")
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPayment, s)

	_, err = ParseOrderStatus("delivering")
	assert.Error(t, err)
}

func TestOrderStatusFromCode(t *testing.T) {
	s, ok := OrderStatusFromCode(1)
	assert.True(t, ok)
	assert.Equal(t, OrderStatusPendingPayment, s)

	s, ok = OrderStatusFromCode(6)
	assert.True(t, ok)
	assert.Equal(t, OrderStatusCancelled, s)

	_, ok = OrderStatusFromCode(7)
	assert.False(t, ok)
}
