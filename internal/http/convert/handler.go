package convert

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/importer"
)

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.convert)
}

func (h *Handler) ProviderRoutes(r chi.Router) {
	r.Get("/", h.providers)
}

type convertResponse struct {
	Meta       activity.Meta       `json:"meta"`
	Activities []activity.Activity `json:"activities"`
	Skipped    []importer.Skip     `json:"skipped"`
}

type providersResponse struct {
	Providers []importer.Provider `json:"providers"`
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	provider := importer.Provider(r.FormValue("provider"))
	if provider == "" {
		http.Error(w, "provider field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	skipped := []importer.Skip{}

	env, err := h.importSvc.Convert(r.Context(), provider, file,
		importer.WithSkipHandler(func(s importer.Skip) { skipped = append(skipped, s) }),
	)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(convertResponse{
		Meta:       env.Meta,
		Activities: env.Activities,
		Skipped:    skipped,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func statusFor(err error) int {
	var (
		parseErr   *importer.ParseError
		resolveErr *importer.ResolutionError
	)

	switch {
	case errors.Is(err, importer.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &resolveErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) providers(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(providersResponse{Providers: h.importSvc.Providers()}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
