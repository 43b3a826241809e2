package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment   OrderStatus = "pending_payment"   // Awaiting buyer payment
	OrderStatusProcessing       OrderStatus = "processing"        // Paid, being prepared
	OrderStatusAwaitingShipment OrderStatus = "awaiting_shipment" // Paid, ready for dispatch
	OrderStatusShipped          OrderStatus = "shipped"           // Out for delivery
	OrderStatusDelivered        OrderStatus = "delivered"         // Carrier reports delivered
	OrderStatusAwaitingReview   OrderStatus = "awaiting_review"   // Received, awaiting buyer review
	OrderStatusCompleted        OrderStatus = "completed"         // Buyer confirmed receipt
	OrderStatusCancelled        OrderStatus = "cancelled"         // Cancelled before shipping
	OrderStatusRefundPending    OrderStatus = "refund_pending"    // Refund requested
	OrderStatusRefunded         OrderStatus = "refunded"          // Money returned
	OrderStatusFailed           OrderStatus = "failed"            // Payment or fulfilment failed
)

// allowedTransitions is the single source of truth for the order state
// machine. Terminal states have no outgoing edges.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment:   {OrderStatusProcessing, OrderStatusAwaitingShipment, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusProcessing:       {OrderStatusAwaitingShipment, OrderStatusShipped, OrderStatusRefundPending},
	OrderStatusAwaitingShipment: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefundPending},
	OrderStatusShipped:          {OrderStatusDelivered, OrderStatusRefundPending},
	OrderStatusDelivered:        {OrderStatusAwaitingReview, OrderStatusCompleted, OrderStatusRefundPending},
	OrderStatusAwaitingReview:   {OrderStatusCompleted},
	OrderStatusRefundPending:    {OrderStatusRefunded},
	OrderStatusCompleted:        {},
	OrderStatusCancelled:        {},
	OrderStatusRefunded:         {},
	OrderStatusFailed:           {},
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether an order in status s may move to target.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsPaid reports whether the order has passed the payment stage.
func (s OrderStatus) IsPaid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusAwaitingShipment, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusAwaitingReview, OrderStatusCompleted:
		return true
	}
	return false
}

// PaymentStatus maps the internal order status to the coarse vocabulary the
// payment polling endpoint exposes.
func (s OrderStatus) PaymentStatus() string {
	switch {
	case s.IsPaid():
		return "paid"
	case s == OrderStatusPendingPayment:
		return "pending"
	case s == OrderStatusCancelled || s == OrderStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedTransitions[s]; !ok {
		return "", errors.New("invalid order status: " + raw)
	}
	return s, nil
}

// OrderStatusFromCode maps the legacy numeric filter values used by the
// storefront (1:pending payment ... 6:cancelled) to a status.
func OrderStatusFromCode(code int) (OrderStatus, bool) {
	switch code {
	case 1:
		return OrderStatusPendingPayment, true
	case 2:
		return OrderStatusAwaitingShipment, true
	case 3:
		return OrderStatusShipped, true
	case 4:
		return OrderStatusAwaitingReview, true
	case 5:
		return OrderStatusCompleted, true
	case 6:
		return OrderStatusCancelled, true
	}
	return "", false
}

type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderNo            string          `gorm:"uniqueIndex;size:100;not null" json:"order_no"`
	UserID             string          `gorm:"index;not null" json:"user_id"`
	User               User            `gorm:"foreignKey:UserID" json:"-"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PayAmount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"pay_amount"`
	FreightAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"freight_amount"`
	Status             OrderStatus     `gorm:"type:varchar(30);not null;index" json:"status"`
	PayType            int             `json:"pay_type"`
	ReceiverName       string          `gorm:"size:100" json:"receiver_name"`
	ReceiverPhone      string          `gorm:"size:30" json:"receiver_phone"`
	ReceiverProvince   string          `gorm:"size:100" json:"receiver_province"`
	ReceiverCity       string          `gorm:"size:100" json:"receiver_city"`
	ReceiverDistrict   string          `gorm:"size:100" json:"receiver_district"`
	ReceiverAddress    string          `gorm:"size:500;not null" json:"receiver_address"`
	ReceiverPostalCode string          `gorm:"size:20" json:"receiver_postal_code"`
	Note               string          `gorm:"size:500" json:"note"`
	PayTime            *time.Time      `json:"pay_time"`
	DeliveryTime       *time.Time      `json:"delivery_time"`
	ReceiveTime        *time.Time      `json:"receive_time"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OrderItem freezes the product name, image, specs and unit price at order
// time so later catalog edits never change historical orders.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"index;not null" json:"order_id"`
	ProductID    uint            `gorm:"not null" json:"product_id"`
	ProductName  string          `gorm:"not null" json:"product_name"`
	ProductImage string          `json:"product_image"`
	ProductSpecs string          `gorm:"size:500" json:"product_specs"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt    time.Time       `json:"created_at"`
}
