package ledgerd

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// envelope is written for every response
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Handlers serves the ledger REST API
type Handlers struct {
	Service *Service
	Log     logger.Logger
}

// NewHandlers creates ledger handlers
func NewHandlers(service *Service, log logger.Logger) *Handlers {
	return &Handlers{Service: service, Log: log}
}

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

// Router returns the ledger routes under /api
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", h.handleListUsers)
		r.Post("/users", h.handleAddUser)
		r.Post("/claim-points", h.handleClaim)
		r.Get("/history", h.handleHistory)
	})

	return r
}

func respond(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// respondError maps an application error to a status and a failed envelope.
// Internal details never reach the caller.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		switch appErr.Kind {
		case errors.ErrValidation, errors.ErrInvalidInput:
			status, message = http.StatusBadRequest, appErr.Message
		case errors.ErrNotFound:
			status, message = http.StatusNotFound, appErr.Message
		case errors.ErrConflict:
			status, message = http.StatusConflict, appErr.Message
		}
	}
	if status == http.StatusInternalServerError {
		h.Log.Error("Ledger request failed", "error", err)
	}
	respond(w, status, envelope{Success: false, Message: message})
}

func decodeBody(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return errors.Validation("Request body is empty")
		}
		return errors.Validation("Invalid JSON")
	}
	return nil
}

func (h *Handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Users(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Data: users})
}

func (h *Handlers) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req ledger.AddUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	users, msg, err := h.Service.AddUser(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, envelope{Success: true, Data: users, Message: msg})
}

func (h *Handlers) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req ledger.ClaimRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	data, msg, err := h.Service.Claim(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Data: data, Message: msg})
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", ledger.DefaultPageSize)

	hp, err := h.Service.History(r.Context(), page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, envelope{Success: true, Data: hp})
}

// queryInt reads an integer query parameter, falling back to def when it is
// missing or malformed
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
