// Package history pages through the ledger's claim history independently of
// the roster.
package history

import (
	"context"
	"sync"

	apperrors "github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// ErrStale is returned by Load when a newer Load was issued before this one
// completed. The response is dropped.
var ErrStale = apperrors.Conflict("history response superseded by a newer request")

// Pager holds one page of history. States move Idle/Loaded/Error -> Loading on
// every Load and Loading -> Loaded or Error on completion. The last loaded
// page survives Loading and Error.
type Pager struct {
	log    logger.Logger
	client ledger.Client
	limit  int

	mu       sync.Mutex
	status   models.HistoryStatus
	page     *models.HistoryPage
	current  int
	lastErr  string
	seq      uint64
	onChange func()

	wg sync.WaitGroup
}

// New creates an idle Pager. A non-positive limit means ledger.DefaultPageSize.
func New(log logger.Logger, client ledger.Client, limit int) *Pager {
	if limit <= 0 {
		limit = ledger.DefaultPageSize
	}
	return &Pager{
		log:    log,
		client: client,
		limit:  limit,
		status: models.HistoryIdle,
	}
}

// SetOnChange registers fn to run after every state transition.
func (p *Pager) SetOnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *Pager) changed() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Load fetches a 1-based page. Each call takes a sequence number; only the
// response to the most recently issued call may change the state, so a slow
// response for an older request never overwrites a newer page. The current
// page follows the ledger's pagination when it reports one. Failures are
// logged and keep the previous page.
func (p *Pager) Load(ctx context.Context, page int) error {
	if page < 1 {
		return apperrors.InvalidInput("page must be 1 or greater")
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.status = models.HistoryLoading
	p.mu.Unlock()
	p.changed()

	hp, err := p.client.FetchHistory(ctx, page, p.limit)

	p.mu.Lock()
	if seq != p.seq {
		p.mu.Unlock()
		p.log.Debug("Dropping superseded history response", "page", page, "seq", seq)
		return ErrStale
	}
	if err != nil {
		p.status = models.HistoryError
		p.lastErr = err.Error()
		p.mu.Unlock()
		p.log.Warn("Error fetching history", "page", page, "error", err)
		p.changed()
		return err
	}
	p.status = models.HistoryLoaded
	p.page = hp
	p.current = page
	if cur := hp.Pagination.CurrentPage; cur >= 1 {
		p.current = cur
	}
	p.lastErr = ""
	p.mu.Unlock()

	p.log.Debug("History page loaded", "page", page, "records", len(hp.Records))
	p.changed()
	return nil
}

// LoadAsync runs Load in the background. Wait blocks until every background
// load has finished.
func (p *Pager) LoadAsync(ctx context.Context, page int) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Load(ctx, page)
	}()
}

// Wait blocks until all LoadAsync calls have completed
func (p *Pager) Wait() {
	p.wg.Wait()
}

// Next loads the page after the current one. Without a next page it does
// nothing.
func (p *Pager) Next(ctx context.Context) error {
	p.mu.Lock()
	if p.page == nil || !p.page.Pagination.HasNext {
		p.mu.Unlock()
		return nil
	}
	target := p.current + 1
	p.mu.Unlock()
	return p.Load(ctx, target)
}

// Previous loads the page before the current one. Without a previous page it
// does nothing.
func (p *Pager) Previous(ctx context.Context) error {
	p.mu.Lock()
	if p.page == nil || !p.page.Pagination.HasPrev || p.current <= 1 {
		p.mu.Unlock()
		return nil
	}
	target := p.current - 1
	p.mu.Unlock()
	return p.Load(ctx, target)
}

// State returns a copy of the pager state
func (p *Pager) State() models.HistoryState {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := models.HistoryState{
		Status:      p.status,
		CurrentPage: p.current,
		LastError:   p.lastErr,
	}
	if p.page != nil {
		records := make([]models.HistoryRecord, len(p.page.Records))
		copy(records, p.page.Records)
		st.Page = &models.HistoryPage{Records: records, Pagination: p.page.Pagination}
	}
	return st
}
