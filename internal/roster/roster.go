// Package roster keeps the authoritative user list and the operator's
// selection in step with the ledger.
package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/loading"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// Messages shown to the operator
const (
	MsgFetchFailed  = "Failed to fetch users"
	MsgAddFailed    = "Failed to add user"
	MsgNameRequired = "Please enter a user name"
)

// ErrBlankName is returned by AddUser for an empty or whitespace-only name
var ErrBlankName = apperrors.Validation(MsgNameRequired)

// ErrStale is returned by Load when the roster was written after the fetch
// was issued. The fetched roster is dropped.
var ErrStale = apperrors.Conflict("roster response superseded by a newer write")

// Notifier is the sink for operator messages
type Notifier interface {
	Success(text string)
	Error(text string)
}

// Sync owns the roster and the selection
type Sync struct {
	log    logger.Logger
	client ledger.Client
	notes  Notifier
	flag   *loading.Flag

	mu        sync.RWMutex
	users     []models.User
	selection string
	gen       uint64
	onChange  func()
}

// New creates a roster Sync with an empty roster and no selection
func New(log logger.Logger, client ledger.Client, notes Notifier, flag *loading.Flag) *Sync {
	return &Sync{
		log:    log,
		client: client,
		notes:  notes,
		flag:   flag,
	}
}

// SetOnChange registers fn to run after the roster or selection changes.
func (s *Sync) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Sync) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Load fetches the full roster. On success the roster is replaced and, when
// nothing is selected yet, the rank 1 user becomes the selection. On failure
// the roster is left as it was. If another Load was issued or a Replace landed
// while the fetch was in flight, the response is dropped with ErrStale.
func (s *Sync) Load(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	users, err := s.client.ListUsers(ctx)
	if err != nil {
		s.log.Error("Error fetching users", "error", err)
		s.notes.Error(MsgFetchFailed)
		return err
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("Dropping superseded roster response", "gen", gen)
		return ErrStale
	}
	s.users = s.ordered(users)
	if s.selection == "" && len(s.users) > 0 {
		s.selection = s.users[0].ID
		s.log.Debug("Auto-selected first user", "id", s.selection)
	}
	s.mu.Unlock()

	s.log.Debug("Roster loaded", "users", len(users))
	s.changed()
	return nil
}

// Replace swaps in a full roster returned by the ledger. The selection is
// not touched.
func (s *Sync) Replace(users []models.User) {
	s.mu.Lock()
	s.gen++
	s.users = s.ordered(users)
	s.mu.Unlock()
	s.changed()
}

// ordered copies users so the sequence follows the rank field. A payload out
// of rank order is logged and re-sorted.
func (s *Sync) ordered(users []models.User) []models.User {
	out := make([]models.User, len(users))
	copy(out, users)
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Rank < out[j].Rank }) {
		s.log.Warn("Roster arrived out of rank order", "users", len(out))
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	}
	return out
}

// Select sets the selection without checking it against the roster.
// Selecting the current id again is a no-op.
func (s *Sync) Select(id string) {
	s.mu.Lock()
	if s.selection == id {
		s.mu.Unlock()
		return
	}
	s.selection = id
	s.mu.Unlock()
	s.changed()
}

// Selection returns the raw selected id, which may be stale
func (s *Sync) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Selected resolves the selection against the current roster.
func (s *Sync) Selected() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FindUser(s.users, s.selection)
}

// Users returns a copy of the roster in rank order
func (s *Sync) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

// AddUser creates a participant on the ledger and adopts the roster it
// returns. Blank names are rejected locally without touching the loading flag.
func (s *Sync) AddUser(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		s.notes.Error(MsgNameRequired)
		return ErrBlankName
	}

	if err := s.flag.TryAcquire(); err != nil {
		return err
	}
	defer s.flag.Release()

	res, err := s.client.AddUser(ctx, name)
	if err != nil {
		s.log.Error("Error adding user", "name", name, "error", err)
		s.notes.Error(apperrors.UserMessage(err, MsgAddFailed))
		return err
	}

	s.Replace(res.Users)

	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("User %s added", name)
	}
	s.notes.Success(msg)
	return nil
}
