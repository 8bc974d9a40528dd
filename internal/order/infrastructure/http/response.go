package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/infoshop/orderflow/internal/order/domain"
)

type orderView struct {
	ID              string                 `json:"id"`
	OwnerUserID     string                 `json:"owner_user_id"`
	Items           []domain.LineItem      `json:"items"`
	ShippingAddress domain.Address         `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	ItemsPrice      decimal.Decimal        `json:"items_price"`
	ShippingPrice   decimal.Decimal        `json:"shipping_price"`
	TaxPrice        decimal.Decimal        `json:"tax_price"`
	TotalPrice      decimal.Decimal        `json:"total_price"`
	IsPaid          bool                   `json:"is_paid"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	PaymentDetails  *domain.PaymentDetails `json:"payment_details,omitempty"`
	IsDelivered     bool                   `json:"is_delivered"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

func orderResponse(o domain.Order) orderView {
	return orderView{
		ID:              o.ID,
		OwnerUserID:     o.OwnerUserID,
		Items:           o.Items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		ItemsPrice:      o.Prices.Items,
		ShippingPrice:   o.Prices.Shipping,
		TaxPrice:        o.Prices.Tax,
		TotalPrice:      o.Prices.Total,
		IsPaid:          o.PaymentState == domain.PaymentPaid,
		PaidAt:          o.PaidAt,
		PaymentDetails:  o.PaymentDetails,
		IsDelivered:     o.DeliveryState == domain.DeliveryDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}

func ordersResponse(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderResponse(o))
	}
	return views
}
