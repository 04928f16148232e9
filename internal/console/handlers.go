// Package console serves the operator console: the page, its live feed and
// the JSON actions that drive the session.
package console

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/internal/view"
)

// Session is the client state the console drives
type Session interface {
	Snapshot() models.Snapshot
	Select(id string)
	Claim(ctx context.Context) error
	AddUser(ctx context.Context, name string) error
	ReloadRoster(ctx context.Context) error
	LoadHistoryPage(ctx context.Context, page int) error
	NextHistoryPage(ctx context.Context) error
	PreviousHistoryPage(ctx context.Context) error
	ToggleAddUser() bool
	ToggleHistory() bool
}

// Feed serves the live websocket feed
type Feed interface {
	ServeWs(w http.ResponseWriter, r *http.Request)
}

// Ledger reports where the backend lives
type Ledger interface {
	BaseURL() string
}

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index *template.Template
}

// IndexData is passed to the index template
type IndexData struct {
	Title      string
	Page       view.Page
	ConsoleURL string
	LedgerURL  string
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Session      Session
	Feed         Feed
	Ledger       Ledger
	Log          logger.Logger
	ConsoleURL   string
	compose      func(models.Snapshot) view.Page
	templates    *Templates
	staticServer http.Handler
}

// New creates a new Handlers instance with all dependencies
func New(
	session Session,
	feed Feed,
	ledger Ledger,
	templatesFS fs.FS,
	staticServer http.Handler,
	log logger.Logger,
	consoleURL string,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Session:      session,
		Feed:         feed,
		Ledger:       ledger,
		Log:          log,
		ConsoleURL:   consoleURL,
		compose:      view.Compose,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NewForTesting creates a Handlers instance without templates or a feed, for
// testing the JSON API.
func NewForTesting(session Session, ledger Ledger) *Handlers {
	return &Handlers{
		Session:    session,
		Ledger:     ledger,
		Log:        logger.Nop(),
		ConsoleURL: "http://127.0.0.1:8082",
		compose:    view.Compose,
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	return t, nil
}

func (h *Handlers) page() view.Page {
	return h.compose(h.Session.Snapshot())
}

func (h *Handlers) ledgerURL() string {
	if h.Ledger == nil {
		return ""
	}
	return h.Ledger.BaseURL()
}
