package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crunchkart/storefront/internal/application/checkout"
	domcart "github.com/crunchkart/storefront/internal/domain/cart"
	domcatalog "github.com/crunchkart/storefront/internal/domain/catalog"
	domorder "github.com/crunchkart/storefront/internal/domain/order"
	dompayment "github.com/crunchkart/storefront/internal/domain/payment"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domcart.ErrOutOfStock),
		errors.Is(err, domcatalog.ErrInsufficientStock),
		errors.Is(err, domorder.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domcart.ErrLineNotFound),
		errors.Is(err, domcatalog.ErrProductNotFound),
		errors.Is(err, domcatalog.ErrCategoryNotFound),
		errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dompayment.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domorder.ErrEmptyOrder),
		errors.Is(err, dompayment.ErrUnknownMethod),
		errors.Is(err, domcatalog.ErrInvalidName),
		errors.Is(err, domcatalog.ErrInvalidPrice),
		errors.Is(err, domcatalog.ErrInvalidStock),
		errors.Is(err, domcatalog.ErrInvalidCategoryName),
		errors.Is(err, checkout.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, checkout.ErrCheckoutFailed):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
