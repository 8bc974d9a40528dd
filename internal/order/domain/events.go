package domain

import "time"

const (
	EventOrderCreated = "OrderCreated"
	EventOrderPaid    = "OrderPaid"
)

// OrderSnapshot is the aggregate as it stood when the event fired. Events
// carry a copy rather than a reference so a late or duplicate delivery can
// never observe or corrupt newer order state.
type OrderSnapshot struct {
	OrderID         string          `json:"order_id"`
	OwnerUserID     string          `json:"owner_user_id"`
	Items           []LineItem      `json:"items"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Prices          PriceBreakdown  `json:"prices"`
	PaymentState    PaymentState    `json:"payment_state"`
	PaymentDetails  *PaymentDetails `json:"payment_details,omitempty"`
	DeliveryState   DeliveryState   `json:"delivery_state"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Snapshot copies the order into an event payload.
func (o *Order) Snapshot() OrderSnapshot {
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)
	return OrderSnapshot{
		OrderID:         o.ID,
		OwnerUserID:     o.OwnerUserID,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Prices:          o.Prices,
		PaymentState:    o.PaymentState,
		PaymentDetails:  o.PaymentDetails,
		DeliveryState:   o.DeliveryState,
		CreatedAt:       o.CreatedAt,
	}
}
