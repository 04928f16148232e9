package app

import (
	"context"
	"fmt"
	"net"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/claimboard/internal/config"
	"github.com/abrezinsky/claimboard/internal/ledgerd"
	"github.com/abrezinsky/claimboard/internal/logger"
)

// Ledger holds the development ledger's dependencies
type Ledger struct {
	log      logger.Logger
	cfg      config.LedgerConfig
	store    *ledgerd.Store
	handlers *ledgerd.Handlers
}

// NewLedger opens the ledger database and wires its handlers
func NewLedger(log logger.Logger, cfg config.LedgerConfig) (*Ledger, error) {
	store, err := ledgerd.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	svc := ledgerd.NewService(log.With("component", "ledgerd"), store, cfg.MaxPoints)
	return &Ledger{
		log:      log,
		cfg:      cfg,
		store:    store,
		handlers: ledgerd.NewHandlers(svc, log),
	}, nil
}

// Router returns the ledger REST routes
func (l *Ledger) Router() chi.Router {
	return l.handlers.Router()
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.store.Close()
}

// Run serves the ledger until ctx is cancelled
func (l *Ledger) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.cfg.Listen, err)
	}

	l.log.Info("Ledger starting", "addr", ln.Addr().String(), "db", l.cfg.DB, "max_points", l.cfg.MaxPoints)
	return serve(ctx, l.log, ln, l.Router())
}
