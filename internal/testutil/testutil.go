// Package testutil starts real collaborators for tests outside the ledger
// package.
package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/abrezinsky/claimboard/internal/ledgerd"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// NewTestStore creates a fresh in-memory ledger store, closed when the test
// ends.
func NewTestStore(t *testing.T) *ledgerd.Store {
	t.Helper()

	store, err := ledgerd.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// NewLedgerServer serves a development ledger over HTTP and returns a client
// pointed at it. Every claim awards between 1 and maxPoints.
func NewLedgerServer(t *testing.T, maxPoints int) (*httptest.Server, *ledger.HTTPClient) {
	t.Helper()

	svc := ledgerd.NewService(logger.Nop(), NewTestStore(t), maxPoints)
	server := httptest.NewServer(ledgerd.NewHandlers(svc, logger.Nop()).Router())
	t.Cleanup(server.Close)

	return server, ledger.NewHTTPClient(server.URL+"/api", logger.Nop())
}
