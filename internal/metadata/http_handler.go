package metadata

import (
	"errors"
	"net/http"
	"strconv"

	"booklib/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Search handles GET /v1/metadata/search. It queries Open Library with the
// given title/author filters, merges every hit into the local store and
// returns the authoritative records in hit order.
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	records, err := h.svc.SearchAndReconcile(r.Context(), query.Get("title"), query.Get("author"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, records, map[string]interface{}{
		"count": len(records),
	})
}

// GetByID handles GET /v1/metadata/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Metadata id must be an integer", nil)
		return
	}

	rec, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, rec, nil)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_QUERY", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Metadata record not found", nil)
	case errors.Is(err, ErrUpstreamUnavailable):
		httpx.JSONError(w, r, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Open Library is unavailable", nil)
	case errors.Is(err, ErrStoreUnavailable):
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Storage is unavailable", nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
