package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	invdomain "github.com/infoshop/orderflow/internal/inventory/domain"
	"github.com/infoshop/orderflow/internal/order/domain"
	"github.com/infoshop/orderflow/pkg/tracing"
)

// Config carries the lifecycle policies that exist as explicit flags rather
// than hard-coded behavior.
type Config struct {
	// AutoConfirmOnCreate marks every new order Paid and Delivered at
	// creation, the way the legacy storefront did. Off by default because
	// it contradicts the separate pay and deliver endpoints.
	AutoConfirmOnCreate bool
	// RequirePaymentBeforeDelivery rejects ConfirmDelivery on unpaid orders.
	RequirePaymentBeforeDelivery bool
	// ReleaseStockOnDelete returns reserved stock when an unpaid order is
	// deleted. Paid orders never restock: the goods are considered sold.
	ReleaseStockOnDelete bool
}

// Service orchestrates the order lifecycle: it is the only writer of order
// aggregates and the only caller of the inventory ledger.
type Service struct {
	log    *slog.Logger
	repo   OrderRepository
	ledger Ledger
	cfg    Config
	now    func() time.Time
	newID  func() string
}

func NewService(log *slog.Logger, repo OrderRepository, ledger Ledger, cfg Config) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		ledger: ledger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// CreateOrder validates the cart, reserves stock all-or-nothing, persists the
// aggregate together with its OrderCreated event and returns it.
//
// The per-item availability read is a best-effort pre-check for a clearer
// error message; the ledger reservation is the authority. If the reservation
// succeeds but the order cannot be persisted, the reservation is released so
// stock is not leaked.
func (s *Service) CreateOrder(ctx context.Context, ownerUserID string, items []domain.LineItem, addr domain.Address, paymentMethod string, prices domain.PriceBreakdown) (domain.Order, error) {
	o, err := domain.NewOrder(s.newID(), ownerUserID, items, addr, paymentMethod, prices)
	if err != nil {
		return domain.Order{}, err
	}

	reservations := make([]invdomain.Reservation, 0, len(items))
	for _, it := range items {
		available, err := s.ledger.Available(ctx, it.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if available < it.Quantity {
			return domain.Order{}, &invdomain.OutOfStockError{ProductID: it.ProductID}
		}
		reservations = append(reservations, invdomain.Reservation{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	if err := s.ledger.Reserve(ctx, reservations); err != nil {
		return domain.Order{}, err
	}

	if s.cfg.AutoConfirmOnCreate {
		now := s.now()
		_ = o.MarkPaid(domain.PaymentDetails{Status: "auto-confirmed", PaidAt: now}, now)
		_ = o.MarkDelivered(now)
	}

	payload, err := json.Marshal(o.Snapshot())
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal OrderCreated: %w", err)
	}
	if err := s.repo.SaveWithOutbox(ctx, o, domain.EventOrderCreated, payload, tracing.Traceparent(ctx)); err != nil {
		if relErr := s.ledger.Release(ctx, reservations); relErr != nil {
			s.log.Error("failed to release reservation after save error", "order_id", o.ID, "err", relErr)
		}
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.log.Info("order created", "order_id", o.ID, "owner", ownerUserID, "items", len(items), "total", prices.Total.String())
	return o, nil
}

// ConfirmPayment records an externally validated payment on an unpaid order
// and emits exactly one OrderPaid event with the transition.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string, details domain.PaymentDetails) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := o.MarkPaid(details, s.now()); err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(o.Snapshot())
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal OrderPaid: %w", err)
	}
	if err := s.repo.SaveWithOutbox(ctx, o, domain.EventOrderPaid, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.log.Info("order paid", "order_id", o.ID, "transaction_id", details.TransactionID)
	return o, nil
}

// ConfirmDelivery marks an order delivered. No notification accompanies this
// transition. By default delivery requires a paid order; the legacy behavior
// of delivering regardless is available through the policy flag.
func (s *Service) ConfirmDelivery(ctx context.Context, orderID string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if s.cfg.RequirePaymentBeforeDelivery && !o.Paid() {
		return domain.Order{}, domain.ErrNotPaid
	}
	if err := o.MarkDelivered(s.now()); err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.Save(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.log.Info("order delivered", "order_id", o.ID)
	return o, nil
}

// DeleteOrder removes an aggregate. Stock is returned only for unpaid orders
// and only when the policy flag says so.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return err
	}

	if s.cfg.ReleaseStockOnDelete && !o.Paid() {
		reservations := make([]invdomain.Reservation, 0, len(o.Items))
		for _, it := range o.Items {
			reservations = append(reservations, invdomain.Reservation{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if err := s.ledger.Release(ctx, reservations); err != nil {
			s.log.Error("failed to release stock for deleted order", "order_id", orderID, "err", err)
			return err
		}
	}

	s.log.Info("order deleted", "order_id", orderID)
	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *Service) ListOrdersForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.FindByOwner(ctx, userID)
}

func (s *Service) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.FindAll(ctx)
}
