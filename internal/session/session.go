// Package session is the coordinating owner of all client state. It wires the
// roster, claim workflow, history pager, notifier and loading flag together
// and publishes a consistent snapshot after every change.
package session

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/claimboard/internal/claim"
	"github.com/abrezinsky/claimboard/internal/history"
	"github.com/abrezinsky/claimboard/internal/loading"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/internal/notify"
	"github.com/abrezinsky/claimboard/internal/roster"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// Broadcaster receives a snapshot after every state change
type Broadcaster interface {
	BroadcastSnapshot(snap models.Snapshot)
}

// Options tunes a Session. Zero values fall back to the defaults.
type Options struct {
	PageSize        int
	NotificationTTL time.Duration
	Clock           notify.Clock
}

// Session owns the client state
type Session struct {
	log     logger.Logger
	client  ledger.Client
	flag    *loading.Flag
	notes   *notify.Notifier
	roster  *roster.Sync
	history *history.Pager
	claims  *claim.Workflow

	mu          sync.Mutex
	showAddUser bool
	showHistory bool
	bcast       Broadcaster

	// pubMu keeps snapshots broadcast in the order they were taken
	pubMu sync.Mutex
}

// New creates a Session around a ledger client
func New(log logger.Logger, client ledger.Client, opts Options) *Session {
	flag := loading.New()
	notes := notify.New(log.With("component", "notify"), opts.Clock, opts.NotificationTTL)
	r := roster.New(log.With("component", "roster"), client, notes, flag)
	h := history.New(log.With("component", "history"), client, opts.PageSize)
	c := claim.New(log.With("component", "claim"), client, r, h, notes, flag)

	s := &Session{
		log:     log,
		client:  client,
		flag:    flag,
		notes:   notes,
		roster:  r,
		history: h,
		claims:  c,
	}

	flag.SetOnChange(s.publish)
	notes.SetOnChange(s.publish)
	r.SetOnChange(s.publish)
	h.SetOnChange(s.publish)
	return s
}

// SetBroadcaster registers where snapshots are published
func (s *Session) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bcast = b
}

func (s *Session) publish() {
	s.mu.Lock()
	b := s.bcast
	s.mu.Unlock()
	if b == nil {
		return
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	b.BroadcastSnapshot(s.Snapshot())
}

// Start issues the initial roster fetch and the first history page
// concurrently and waits for both. Each failure has already been handled by
// its component; the first one is returned for the caller to log.
func (s *Session) Start(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.roster.Load(ctx) })
	g.Go(func() error { return s.history.Load(ctx, 1) })
	return g.Wait()
}

// ReloadRoster re-fetches the roster
func (s *Session) ReloadRoster(ctx context.Context) error {
	return s.roster.Load(ctx)
}

// Select changes the selected user. No ledger call is made.
func (s *Session) Select(id string) {
	s.roster.Select(id)
}

// MoveSelection selects the user delta positions away from the current one
// on the leaderboard, clamped to its ends. With no usable selection the rank
// 1 user is selected.
func (s *Session) MoveSelection(delta int) {
	users := s.roster.Users()
	if len(users) == 0 {
		return
	}
	idx := -1
	sel := s.roster.Selection()
	for i, u := range users {
		if u.ID == sel {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.roster.Select(users[0].ID)
		return
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(users) {
		idx = len(users) - 1
	}
	s.roster.Select(users[idx].ID)
}

// Claim claims points for the selected user
func (s *Session) Claim(ctx context.Context) error {
	_, err := s.claims.Claim(ctx)
	return err
}

// AddUser creates a user. On success the add-user panel closes.
func (s *Session) AddUser(ctx context.Context, name string) error {
	if err := s.roster.AddUser(ctx, name); err != nil {
		return err
	}
	s.mu.Lock()
	s.showAddUser = false
	s.mu.Unlock()
	s.publish()
	return nil
}

// LoadHistoryPage loads a specific history page
func (s *Session) LoadHistoryPage(ctx context.Context, page int) error {
	return s.history.Load(ctx, page)
}

// NextHistoryPage moves history forward one page when possible
func (s *Session) NextHistoryPage(ctx context.Context) error {
	return s.history.Next(ctx)
}

// PreviousHistoryPage moves history back one page when possible
func (s *Session) PreviousHistoryPage(ctx context.Context) error {
	return s.history.Previous(ctx)
}

// ToggleAddUser flips the add-user panel and returns its new visibility
func (s *Session) ToggleAddUser() bool {
	s.mu.Lock()
	s.showAddUser = !s.showAddUser
	v := s.showAddUser
	s.mu.Unlock()
	s.publish()
	return v
}

// ToggleHistory flips the history panel and returns its new visibility
func (s *Session) ToggleHistory() bool {
	s.mu.Lock()
	s.showHistory = !s.showHistory
	v := s.showHistory
	s.mu.Unlock()
	s.publish()
	return v
}

// Notification returns the live notification, or nil
func (s *Session) Notification() *models.Notification {
	return s.notes.Current()
}

// Snapshot returns a copy of all client state
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	showAdd, showHist := s.showAddUser, s.showHistory
	s.mu.Unlock()

	return models.Snapshot{
		Users:        s.roster.Users(),
		Selection:    s.roster.Selection(),
		History:      s.history.State(),
		Notification: s.notes.Current(),
		Loading:      s.flag.Held(),
		ShowAddUser:  showAdd,
		ShowHistory:  showHist,
	}
}

// Wait blocks until background history reloads have finished
func (s *Session) Wait() {
	s.history.Wait()
}

// Close waits for background work and cancels the pending notification expiry
func (s *Session) Close() {
	s.history.Wait()
	s.notes.Close()
}
