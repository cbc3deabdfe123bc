package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/coalmart/storefront/internal/httpapi"
	"github.com/coalmart/storefront/internal/reservation/application"
	"github.com/coalmart/storefront/internal/reservation/domain"
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
		tracer:  otel.Tracer("cart-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/add/{productID}", h.addToCart)
	r.Post("/remove/{productID}", h.removeFromCart)
	r.Get("/", h.viewCart)

	return r
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddToCart")
	defer span.End()

	userID, err := httpapi.ShopperID(r)
	if err != nil {
		httpapi.Error(w, err)
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpapi.Error(w, domain.ErrNotFound)
		return
	}

	quantity := 1
	if q := r.FormValue("quantity"); q != "" {
		quantity, err = strconv.Atoi(q)
		if err != nil {
			httpapi.Error(w, domain.ErrInvalidQuantity)
			return
		}
	}

	if err := h.service.AddToCart(ctx, userID, productID, quantity); err != nil {
		h.log.Info("add to cart rejected", "user_id", userID, "product_id", productID, "quantity", quantity, "err", err)
		httpapi.Error(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveFromCart")
	defer span.End()

	userID, err := httpapi.ShopperID(r)
	if err != nil {
		httpapi.Error(w, err)
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpapi.Error(w, domain.ErrNotFound)
		return
	}

	if err := h.service.RemoveFromCart(ctx, userID, productID); err != nil {
		httpapi.Error(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type cartItemResp struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ViewCart")
	defer span.End()

	userID, err := httpapi.ShopperID(r)
	if err != nil {
		httpapi.Error(w, err)
		return
	}

	items, err := h.service.Cart(ctx, userID)
	if err != nil {
		h.log.Error("cart view failed", "user_id", userID, "err", err)
		httpapi.Error(w, err)
		return
	}

	resp := make([]cartItemResp, 0, len(items))
	for _, item := range items {
		resp = append(resp, cartItemResp{
			ProductID:  item.Product.ID,
			Name:       item.Product.Name,
			PriceCents: item.Product.PriceCents,
			Quantity:   item.Quantity,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}
