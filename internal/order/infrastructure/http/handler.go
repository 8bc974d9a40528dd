package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/infoshop/orderflow/internal/inventory/domain"
	"github.com/infoshop/orderflow/internal/identity"
	"github.com/infoshop/orderflow/internal/order/application"
	"github.com/infoshop/orderflow/internal/order/domain"
	"github.com/infoshop/orderflow/internal/reporting"
)

// Handler maps the HTTP surface onto lifecycle operations, one route per
// operation plus the authorization check.
type Handler struct {
	log       *slog.Logger
	service   *application.Service
	reporting *reporting.Service
	tracer    trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, rep *reporting.Service) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		reporting: rep,
		tracer:    otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identity.Middleware)

	r.Post("/orders", h.createOrder)
	r.Get("/orders/mine", h.listMine)
	r.Get("/orders/{id}", h.getOrder)
	r.Put("/orders/{id}/pay", h.payOrder)
	r.Put("/orders/{id}/deliver", h.deliverOrder)

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireAdmin)
		r.Get("/orders", h.listAll)
		r.Get("/orders/summary", h.summary)
		r.Delete("/orders/{id}", h.deleteOrder)
	})

	return r
}

type lineItemReq struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderReq struct {
	Items           []lineItemReq   `json:"items"`
	ShippingAddress domain.Address  `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	ItemsPrice      decimal.Decimal `json:"items_price"`
	ShippingPrice   decimal.Decimal `json:"shipping_price"`
	TaxPrice        decimal.Decimal `json:"tax_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	caller, _ := identity.From(ctx)

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	o, err := h.service.CreateOrder(ctx, caller.UserID, items, req.ShippingAddress, req.PaymentMethod, domain.PriceBreakdown{
		Items:    req.ItemsPrice,
		Shipping: req.ShippingPrice,
		Tax:      req.TaxPrice,
		Total:    req.TotalPrice,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, orderResponse(o))
}

type payOrderReq struct {
	TransactionID string    `json:"id"`
	Status        string    `json:"status"`
	UpdateTime    time.Time `json:"update_time"`
	EmailAddress  string    `json:"email_address"`
}

func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ConfirmPayment")
	defer span.End()

	var req payOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.service.ConfirmPayment(ctx, chi.URLParam(r, "id"), domain.PaymentDetails{
		TransactionID: req.TransactionID,
		Status:        req.Status,
		PaidAt:        req.UpdateTime,
		PayerEmail:    req.EmailAddress,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orderResponse(o))
}

func (h *Handler) deliverOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ConfirmDelivery")
	defer span.End()

	o, err := h.service.ConfirmDelivery(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orderResponse(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteOrder")
	defer span.End()

	if err := h.service.DeleteOrder(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	caller, _ := identity.From(ctx)

	o, err := h.service.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if o.OwnerUserID != caller.UserID && !caller.IsAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	h.writeJSON(w, http.StatusOK, orderResponse(o))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListMyOrders")
	defer span.End()

	caller, _ := identity.From(ctx)

	orders, err := h.service.ListOrdersForUser(ctx, caller.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ordersResponse(orders))
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListAllOrders")
	defer span.End()

	orders, err := h.service.ListAllOrders(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ordersResponse(orders))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Summary")
	defer span.End()

	s, err := h.reporting.Summary(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		validation   *domain.ValidationError
		outOfStock   *invdomain.OutOfStockError
		insufficient *invdomain.InsufficientStockError
		unknown      *invdomain.UnknownProductError
	)

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrAlreadyDelivered),
		errors.Is(err, domain.ErrNotPaid):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &validation),
		errors.As(err, &outOfStock),
		errors.As(err, &insufficient),
		errors.As(err, &unknown):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("request failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
