package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentState string

type DeliveryState string

const (
	PaymentUnpaid PaymentState = "unpaid"
	PaymentPaid   PaymentState = "paid"

	DeliveryPending   DeliveryState = "pending"
	DeliveryDelivered DeliveryState = "delivered"
)

const DefaultPaymentMethod = "Cash on Delivery"

// LineItem references one product with the quantity selected and the unit
// price captured at creation time. A later catalog price change never
// touches an existing order.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Address struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentDetails is the externally validated payment fact recorded when an
// order is confirmed paid.
type PaymentDetails struct {
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	PaidAt        time.Time `json:"paid_at"`
	PayerEmail    string    `json:"payer_email"`
}

// PriceBreakdown is the client-submitted pricing of an order. The total is
// verified against the parts, never recomputed from them.
type PriceBreakdown struct {
	Items    decimal.Decimal `json:"items"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Order is the aggregate for one customer purchase. Line items, prices and
// owner are fixed at creation; the only legal mutations are the pay and
// deliver transitions.
type Order struct {
	ID              string
	OwnerUserID     string
	Items           []LineItem
	ShippingAddress Address
	PaymentMethod   string
	Prices          PriceBreakdown

	PaymentState   PaymentState
	PaymentDetails *PaymentDetails
	DeliveryState  DeliveryState

	CreatedAt   time.Time
	PaidAt      *time.Time
	DeliveredAt *time.Time
}

// NewOrder validates the cart and breakdown and builds an Unpaid/Pending
// aggregate. It does not touch inventory; the lifecycle service reserves
// stock before calling it.
func NewOrder(id, ownerUserID string, items []LineItem, addr Address, paymentMethod string, prices PriceBreakdown) (Order, error) {
	if ownerUserID == "" {
		return Order{}, &ValidationError{Reason: "order has no owner"}
	}
	if len(items) == 0 {
		return Order{}, &ValidationError{Reason: "cart is empty"}
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return Order{}, &ValidationError{Reason: "line item without product id"}
		}
		if it.Quantity <= 0 {
			return Order{}, &ValidationError{Reason: "line item quantity must be positive"}
		}
		if it.UnitPrice.IsNegative() {
			return Order{}, &ValidationError{Reason: "line item price must not be negative"}
		}
		if _, dup := seen[it.ProductID]; dup {
			return Order{}, &ValidationError{Reason: "cart lists product " + it.ProductID + " more than once"}
		}
		seen[it.ProductID] = struct{}{}
	}
	if prices.Items.IsNegative() || prices.Shipping.IsNegative() || prices.Tax.IsNegative() || prices.Total.IsNegative() {
		return Order{}, &ValidationError{Reason: "price breakdown must not be negative"}
	}
	if !prices.Items.Add(prices.Shipping).Add(prices.Tax).Equal(prices.Total) {
		return Order{}, &ValidationError{Reason: "total does not match items + shipping + tax"}
	}
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	return Order{
		ID:              id,
		OwnerUserID:     ownerUserID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		Prices:          prices,
		PaymentState:    PaymentUnpaid,
		DeliveryState:   DeliveryPending,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// MarkPaid transitions Unpaid -> Paid. Re-invocation is rejected, not
// silently absorbed, so a double charge is visible to the caller.
func (o *Order) MarkPaid(details PaymentDetails, now time.Time) error {
	if o.PaymentState == PaymentPaid {
		return ErrAlreadyPaid
	}
	if details.PaidAt.IsZero() {
		details.PaidAt = now
	}
	o.PaymentState = PaymentPaid
	o.PaidAt = &now
	o.PaymentDetails = &details
	return nil
}

// MarkDelivered transitions Pending -> Delivered.
func (o *Order) MarkDelivered(now time.Time) error {
	if o.DeliveryState == DeliveryDelivered {
		return ErrAlreadyDelivered
	}
	o.DeliveryState = DeliveryDelivered
	o.DeliveredAt = &now
	return nil
}

// Paid reports whether payment has been confirmed.
func (o *Order) Paid() bool { return o.PaymentState == PaymentPaid }
