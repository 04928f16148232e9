package console

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// Pages and feeds
	if h.staticServer != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
	}
	if h.templates != nil {
		r.Get("/", h.handleIndex)
	}
	if h.Feed != nil {
		r.Get("/ws", h.Feed.ServeWs)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetPage)
		r.Get("/snapshot", h.handleGetSnapshot)
		r.Get("/info", h.handleGetInfo)
		r.Get("/qr", h.handleGetQR)

		r.Post("/select", h.handleSelect)
		r.Post("/claim", h.handleClaim)
		r.Post("/users", h.handleAddUser)
		r.Post("/users/reload", h.handleReloadRoster)

		r.Post("/history/page", h.handleLoadHistoryPage)
		r.Post("/history/next", h.handleNextHistoryPage)
		r.Post("/history/prev", h.handlePreviousHistoryPage)

		r.Post("/panels/add-user", h.handleToggleAddUser)
		r.Post("/panels/history", h.handleToggleHistory)
	})

	return r
}
