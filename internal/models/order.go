package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a purchase. Transitions are monotonic
// forward except the explicit cancellation from pending.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusGenerating OrderStatus = "generating"
	OrderStatusComplete   OrderStatus = "complete"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// Order links a buyer to a Storybook and tracks payment and fulfillment.
// Mutated only by payment verification and the generation orchestrator.
type Order struct {
	ID               uuid.UUID       `json:"id"`
	StorybookID      uuid.UUID       `json:"storybookId"`
	UserID           uuid.UUID       `json:"userId"`
	Status           OrderStatus     `json:"status"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	PaymentStatus    string          `json:"paymentStatus"`
	PaymentSessionID string          `json:"paymentSessionId,omitempty"`
	ErrorDetails     *string         `json:"errorDetails,omitempty"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	ShippedAt        *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt      *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// IsTerminal reports whether the order reached a state the generation
// pipeline will never move it out of.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusComplete, OrderStatusFailed, OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}
