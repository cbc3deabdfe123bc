package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/coalmart/storefront/internal/fulfillment/application"
	"github.com/coalmart/storefront/internal/fulfillment/domain"
	"github.com/coalmart/storefront/internal/httpapi"
	"github.com/coalmart/storefront/pkg/tracing"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/submit", h.submitOrder)
	r.Get("/outstanding", h.listOutstanding)

	return r
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitOrder")
	defer span.End()

	userID, err := httpapi.ShopperID(r)
	if err != nil {
		httpapi.Error(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpapi.Error(w, domain.ErrCheckoutFailed)
		return
	}

	contact := domain.Contact{
		FirstName:    r.PostFormValue("first_name"),
		LastName:     r.PostFormValue("last_name"),
		Email:        r.PostFormValue("email"),
		Phone:        r.PostFormValue("phone"),
		Country:      r.PostFormValue("country"),
		PostalCode:   r.PostFormValue("postal_code"),
		City:         r.PostFormValue("city"),
		AddressLine1: r.PostFormValue("address_line_1"),
		AddressLine2: r.PostFormValue("address_line_2"),
	}

	orderID, err := h.service.Checkout(ctx, userID, contact, tracing.Traceparent(ctx))
	if err != nil {
		h.log.Info("checkout rejected", "user_id", userID, "err", err)
		httpapi.Error(w, err)
		return
	}

	h.log.Info("order placed", "user_id", userID, "order_id", orderID)
	httpapi.WriteJSON(w, http.StatusCreated, map[string]string{"order_id": orderID})
}

type outstandingResp struct {
	OrderID    string            `json:"order_id"`
	Contact    domain.Contact    `json:"contact"`
	Items      []outstandingItem `json:"items"`
	TotalCents int64             `json:"total_cents"`
}

type outstandingItem struct {
	ProductID  int64 `json:"product_id"`
	Quantity   int   `json:"quantity"`
	PriceCents int64 `json:"price_cents"`
}

func (h *Handler) listOutstanding(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOutstandingOrders")
	defer span.End()

	orders, err := h.service.ListOutstandingOrders(ctx)
	if err != nil {
		h.log.Error("list outstanding failed", "err", err)
		httpapi.Error(w, err)
		return
	}

	resp := make([]outstandingResp, 0, len(orders))
	for _, o := range orders {
		item := outstandingResp{
			OrderID:    o.Order.ID,
			Contact:    o.Order.Contact,
			TotalCents: o.TotalCents(),
		}
		for _, it := range o.Items {
			item.Items = append(item.Items, outstandingItem{
				ProductID:  it.ProductID,
				Quantity:   it.Quantity,
				PriceCents: it.PriceCents,
			})
		}
		resp = append(resp, item)
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}
