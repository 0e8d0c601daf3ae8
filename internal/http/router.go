package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/folioport/internal/http/convert"
	"github.com/MrJamesThe3rd/folioport/internal/http/mapping"
)

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

// New builds the API router. mappingV1 may be nil when no mapping store is configured.
func New(opts Options, convertV1 *convert.Handler, mappingV1 *mapping.Handler) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/convert", convertV1.Routes)
		r.Route("/providers", convertV1.ProviderRoutes)

		if mappingV1 != nil {
			r.Route("/mappings", func(r chi.Router) {
				mappingV1.Routes(r)
			})
		}
	})

	return router
}
