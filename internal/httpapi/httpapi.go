package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	fulfillment "github.com/coalmart/storefront/internal/fulfillment/domain"
	reservation "github.com/coalmart/storefront/internal/reservation/domain"
	stock "github.com/coalmart/storefront/internal/stock/domain"
)

// ShopperCookie carries the externally assigned shopper identity. The core
// treats the value as an opaque integer with no authentication guarantee;
// assigning it is the session collaborator's job.
const ShopperCookie = "shopper_id"

var ErrNoShopper = errors.New("missing shopper identity")

func ShopperID(r *http.Request) (int64, error) {
	c, err := r.Cookie(ShopperCookie)
	if err != nil {
		return 0, ErrNoShopper
	}
	id, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil {
		return 0, ErrNoShopper
	}
	return id, nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps domain errors onto HTTP statuses. Out-of-stock and invalid
// quantity are distinct so the presentation layer can show the right message;
// checkout failure is a generic retry-later condition.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoShopper):
		WriteJSON(w, http.StatusBadRequest, errBody(err))
	case errors.Is(err, stock.ErrInvalidQuantity), errors.Is(err, reservation.ErrInvalidQuantity):
		WriteJSON(w, http.StatusBadRequest, errBody(err))
	case errors.Is(err, fulfillment.ErrEmptyCart):
		WriteJSON(w, http.StatusBadRequest, errBody(err))
	case errors.Is(err, stock.ErrInsufficientStock):
		WriteJSON(w, http.StatusConflict, errBody(err))
	case errors.Is(err, stock.ErrProductNotFound),
		errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, fulfillment.ErrOrderNotFound):
		WriteJSON(w, http.StatusNotFound, errBody(err))
	default:
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
