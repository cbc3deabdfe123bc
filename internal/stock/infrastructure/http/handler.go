package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/coalmart/storefront/internal/httpapi"
	"github.com/coalmart/storefront/internal/stock/application"
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
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/products", h.listProducts)

	return r
}

type productResp struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	InStock     int    `json:"in_stock"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	products, err := h.service.ListAvailable(ctx)
	if err != nil {
		h.log.Error("list products failed", "err", err)
		httpapi.Error(w, err)
		return
	}

	resp := make([]productResp, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResp{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			PriceCents:  p.PriceCents,
			InStock:     p.InStock,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}
