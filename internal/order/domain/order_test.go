package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/infoshop/orderflow/internal/order/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func validItems() []domain.LineItem {
	return []domain.LineItem{
		{ProductID: "p-1", Name: "Ceramic vase", Quantity: 2, UnitPrice: dec("40.00")},
		{ProductID: "p-2", Name: "Wall print", Quantity: 1, UnitPrice: dec("20.00")},
	}
}

func validPrices() domain.PriceBreakdown {
	return domain.PriceBreakdown{
		Items:    dec("100.00"),
		Shipping: dec("10.00"),
		Tax:      dec("5.00"),
		Total:    dec("115.00"),
	}
}

func TestNewOrder(t *testing.T) {
	o, err := domain.NewOrder("o-1", "u-1", validItems(), domain.Address{City: "Tunis"}, "", validPrices())
	require.NoError(t, err)

	require.Equal(t, domain.PaymentUnpaid, o.PaymentState)
	require.Equal(t, domain.DeliveryPending, o.DeliveryState)
	require.Nil(t, o.PaidAt)
	require.Nil(t, o.DeliveredAt)
	require.Nil(t, o.PaymentDetails)
	require.Equal(t, domain.DefaultPaymentMethod, o.PaymentMethod)
	require.False(t, o.CreatedAt.IsZero())
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(items *[]domain.LineItem, prices *domain.PriceBreakdown, owner *string)
	}{
		{"empty cart", func(items *[]domain.LineItem, _ *domain.PriceBreakdown, _ *string) {
			*items = nil
		}},
		{"zero quantity", func(items *[]domain.LineItem, _ *domain.PriceBreakdown, _ *string) {
			(*items)[0].Quantity = 0
		}},
		{"negative quantity", func(items *[]domain.LineItem, _ *domain.PriceBreakdown, _ *string) {
			(*items)[0].Quantity = -3
		}},
		{"negative unit price", func(items *[]domain.LineItem, _ *domain.PriceBreakdown, _ *string) {
			(*items)[0].UnitPrice = dec("-1.00")
		}},
		{"missing product id", func(items *[]domain.LineItem, _ *domain.PriceBreakdown, _ *string) {
			(*items)[1].ProductID = ""
		}},
		{"duplicate product", func(items *[]domain.LineItem, _ *domain.PriceBreakdown, _ *string) {
			(*items)[1].ProductID = (*items)[0].ProductID
		}},
		{"inconsistent total", func(_ *[]domain.LineItem, prices *domain.PriceBreakdown, _ *string) {
			prices.Total = dec("200.00")
		}},
		{"negative shipping", func(_ *[]domain.LineItem, prices *domain.PriceBreakdown, _ *string) {
			prices.Shipping = dec("-10.00")
		}},
		{"no owner", func(_ *[]domain.LineItem, _ *domain.PriceBreakdown, owner *string) {
			*owner = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := validItems()
			prices := validPrices()
			owner := "u-1"
			tt.mutate(&items, &prices, &owner)

			_, err := domain.NewOrder("o-1", owner, items, domain.Address{}, "PayPal", prices)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestMarkPaid(t *testing.T) {
	o, err := domain.NewOrder("o-1", "u-1", validItems(), domain.Address{}, "PayPal", validPrices())
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	details := domain.PaymentDetails{TransactionID: "tx-9", Status: "COMPLETED", PayerEmail: "amira@example.com"}

	require.NoError(t, o.MarkPaid(details, now))
	require.Equal(t, domain.PaymentPaid, o.PaymentState)
	require.NotNil(t, o.PaidAt)
	require.Equal(t, now, *o.PaidAt)
	require.NotNil(t, o.PaymentDetails)
	require.Equal(t, "tx-9", o.PaymentDetails.TransactionID)
	require.Equal(t, now, o.PaymentDetails.PaidAt)

	err = o.MarkPaid(details, now.Add(time.Minute))
	require.True(t, errors.Is(err, domain.ErrAlreadyPaid))
	require.Equal(t, now, *o.PaidAt, "second call must not move the timestamp")
}

func TestMarkDelivered(t *testing.T) {
	o, err := domain.NewOrder("o-1", "u-1", validItems(), domain.Address{}, "PayPal", validPrices())
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC)
	require.NoError(t, o.MarkDelivered(now))
	require.Equal(t, domain.DeliveryDelivered, o.DeliveryState)
	require.NotNil(t, o.DeliveredAt)
	require.Equal(t, now, *o.DeliveredAt)

	err = o.MarkDelivered(now.Add(time.Hour))
	require.True(t, errors.Is(err, domain.ErrAlreadyDelivered))
}

func TestSnapshotIsACopy(t *testing.T) {
	o, err := domain.NewOrder("o-1", "u-1", validItems(), domain.Address{}, "PayPal", validPrices())
	require.NoError(t, err)

	snap := o.Snapshot()
	snap.Items[0].Quantity = 99

	require.Equal(t, 2, o.Items[0].Quantity, "mutating a snapshot must not touch the aggregate")
}
