package mapping

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

type Handler struct {
	svc *security.MappingService
}

func NewHandler(svc *security.MappingService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type mappingResponse struct {
	ID         uuid.UUID           `json:"id"`
	Identifier string              `json:"identifier"`
	Symbol     string              `json:"symbol"`
	Currency   string              `json:"currency,omitempty"`
	DataSource activity.DataSource `json:"data_source"`
	CreatedAt  time.Time           `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]mappingResponse, 0, len(mappings))
	for _, m := range mappings {
		resp = append(resp, toResponse(m))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := security.Query{
		ISIN:     params.Get("isin"),
		Ticker:   params.Get("ticker"),
		Name:     params.Get("name"),
		Currency: params.Get("currency"),
	}

	if len(q.Terms()) == 0 {
		http.Error(w, "one of isin, ticker or name is required", http.StatusBadRequest)
		return
	}

	m, err := h.svc.Suggest(r.Context(), q)
	if errors.Is(err, security.ErrMappingNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type learnRequest struct {
	Identifier string              `json:"identifier"`
	Symbol     string              `json:"symbol"`
	Currency   string              `json:"currency"`
	DataSource activity.DataSource `json:"data_source"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.Learn(r.Context(), req.Identifier, req.Symbol, req.Currency, req.DataSource)
	if errors.Is(err, security.ErrInvalidMapping) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toResponse(m *security.Mapping) mappingResponse {
	return mappingResponse{
		ID:         m.ID,
		Identifier: m.Identifier,
		Symbol:     m.Symbol,
		Currency:   m.Currency,
		DataSource: m.DataSource,
		CreatedAt:  m.CreatedAt,
	}
}
