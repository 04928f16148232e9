package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrezinsky/claimboard/internal/loading"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/internal/notify"
	"github.com/abrezinsky/claimboard/internal/roster"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

type snapshots struct {
	mu   sync.Mutex
	seen []models.Snapshot
}

func (s *snapshots) BroadcastSnapshot(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, snap)
}

func (s *snapshots) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *snapshots) last() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[len(s.seen)-1]
}

func (s *snapshots) anyLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.seen {
		if snap.Loading {
			return true
		}
	}
	return false
}

func newSession(t *testing.T, client ledger.Client) (*Session, *notify.FakeClock) {
	t.Helper()
	clock := notify.NewFakeClock(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	s := New(logger.Nop(), client, Options{PageSize: 5, NotificationTTL: 3 * time.Second, Clock: clock})
	t.Cleanup(s.Close)
	return s, clock
}

func ranked() ledger.MockOption {
	return ledger.WithUsers([]models.User{
		{ID: "a", Name: "Ada", TotalPoints: 20},
		{ID: "g", Name: "Grace", TotalPoints: 15},
		{ID: "l", Name: "Linus", TotalPoints: 3},
	})
}

func TestStart_LoadsRosterAndFirstHistoryPage(t *testing.T) {
	client := ledger.NewMockClient(ranked())
	s, _ := newSession(t, client)

	require.NoError(t, s.Start(context.Background()))

	snap := s.Snapshot()
	assert.Len(t, snap.Users, 3)
	assert.Equal(t, "a", snap.Selection, "rank 1 is selected on first load")
	assert.Equal(t, models.HistoryLoaded, snap.History.Status)
	assert.Equal(t, 1, snap.History.CurrentPage)
	assert.False(t, snap.Loading)
	assert.Equal(t, 1, client.Calls("list"))
	assert.Equal(t, 1, client.Calls("history"))
}

func TestStart_FailuresAreIndependent(t *testing.T) {
	client := ledger.NewMockClient(ranked(), ledger.WithListError(errors.New("connection refused")))
	s, _ := newSession(t, client)

	err := s.Start(context.Background())

	require.Error(t, err)
	snap := s.Snapshot()
	assert.Empty(t, snap.Users)
	assert.Equal(t, models.HistoryLoaded, snap.History.Status, "history still loads when the roster fails")
	require.NotNil(t, snap.Notification)
	assert.Equal(t, "Failed to fetch users", snap.Notification.Text)
	assert.Equal(t, models.SeverityError, snap.Notification.Severity)
}

func TestSnapshot_PublishedOnEveryChange(t *testing.T) {
	s, _ := newSession(t, ledger.NewMockClient(ranked()))
	b := &snapshots{}
	s.SetBroadcaster(b)

	require.NoError(t, s.Start(context.Background()))
	n := b.count()
	assert.Greater(t, n, 0)

	s.Select("g")
	assert.Equal(t, n+1, b.count())

	s.Select("g")
	assert.Equal(t, n+1, b.count(), "reselecting is a no-op")
}

func TestMoveSelection(t *testing.T) {
	s, _ := newSession(t, ledger.NewMockClient(ranked()))
	require.NoError(t, s.Start(context.Background()))

	s.MoveSelection(1)
	assert.Equal(t, "g", s.Snapshot().Selection)
	s.MoveSelection(5)
	assert.Equal(t, "l", s.Snapshot().Selection)
	s.MoveSelection(-10)
	assert.Equal(t, "a", s.Snapshot().Selection)

	s.Select("gone")
	s.MoveSelection(1)
	assert.Equal(t, "a", s.Snapshot().Selection, "a stale selection restarts at rank 1")
}

func TestToggles(t *testing.T) {
	s, _ := newSession(t, ledger.NewMockClient())

	assert.True(t, s.ToggleAddUser())
	assert.True(t, s.ToggleHistory())
	snap := s.Snapshot()
	assert.True(t, snap.ShowAddUser)
	assert.True(t, snap.ShowHistory)

	assert.False(t, s.ToggleAddUser())
	assert.False(t, s.Snapshot().ShowAddUser)
}

func TestAddUser_ClosesPanelOnSuccessOnly(t *testing.T) {
	s, _ := newSession(t, ledger.NewMockClient(ranked()))
	require.NoError(t, s.Start(context.Background()))
	s.ToggleAddUser()

	err := s.AddUser(context.Background(), "ada")
	require.Error(t, err)
	assert.True(t, s.Snapshot().ShowAddUser)
	assert.Equal(t, "User already exists", s.Notification().Text)

	require.NoError(t, s.AddUser(context.Background(), "  Margaret "))
	snap := s.Snapshot()
	assert.False(t, snap.ShowAddUser)
	assert.Len(t, snap.Users, 4)
	assert.Equal(t, "User Margaret added successfully", snap.Notification.Text)
}

func TestNotification_ExpiresAfterTTL(t *testing.T) {
	s, clock := newSession(t, ledger.NewMockClient(ranked()))
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Claim(context.Background()))
	s.Wait()
	require.NotNil(t, s.Notification())

	clock.Advance(2 * time.Second)
	assert.NotNil(t, s.Notification())
	clock.Advance(time.Second)
	assert.Nil(t, s.Notification())
}

func TestClaim_SecondActionRejectedWhileBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	client := ledger.NewMockClient(ranked(), ledger.WithClaimHook(func(ctx context.Context, userID string) error {
		close(entered)
		<-release
		return nil
	}))
	s, _ := newSession(t, client)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Claim(context.Background()) }()
	<-entered

	assert.True(t, s.Snapshot().Loading)
	err := s.AddUser(context.Background(), "Barbara")
	assert.True(t, errors.Is(err, loading.ErrBusy))
	assert.Equal(t, 0, client.Calls("add"))

	close(release)
	require.NoError(t, <-done)
	s.Wait()
	assert.False(t, s.Snapshot().Loading)
}

func TestReloadRoster_InFlightReloadDoesNotUndoClaim(t *testing.T) {
	var hold atomic.Bool
	listed := make(chan struct{})
	release := make(chan struct{})
	client := ledger.NewMockClient(ranked(), ledger.WithListHook(func(ctx context.Context) error {
		if hold.CompareAndSwap(true, false) {
			close(listed)
			<-release
		}
		return nil
	}))
	s, _ := newSession(t, client)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	s.Select("l")

	hold.Store(true)
	reloaded := make(chan error, 1)
	go func() { reloaded <- s.ReloadRoster(ctx) }()
	<-listed

	require.NoError(t, s.Claim(ctx))
	s.Wait()
	linus, ok := models.FindUser(s.Snapshot().Users, "l")
	require.True(t, ok)
	assert.Equal(t, 8, linus.TotalPoints)

	close(release)
	assert.ErrorIs(t, <-reloaded, roster.ErrStale)

	linus, ok = models.FindUser(s.Snapshot().Users, "l")
	require.True(t, ok)
	assert.Equal(t, 8, linus.TotalPoints, "the older reload is dropped")
}

func TestClaim_LastBroadcastMatchesFinalState(t *testing.T) {
	for i := 0; i < 20; i++ {
		s, _ := newSession(t, ledger.NewMockClient(ranked()))
		b := &snapshots{}
		s.SetBroadcaster(b)
		ctx := context.Background()
		require.NoError(t, s.Start(ctx))

		require.NoError(t, s.Claim(ctx))
		s.Wait()

		last := b.last()
		assert.False(t, last.Loading, "the last pushed snapshot has the flag released")
		assert.Equal(t, models.HistoryLoaded, last.History.Status)
		assert.Equal(t, s.Snapshot().Users, last.Users)
	}
}

func TestHistoryPaging(t *testing.T) {
	client := ledger.NewMockClient(ranked())
	s, _ := newSession(t, client)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	for i := 0; i < 7; i++ {
		require.NoError(t, s.Claim(ctx))
		s.Wait()
	}

	require.NoError(t, s.LoadHistoryPage(ctx, 1))
	require.NoError(t, s.NextHistoryPage(ctx))
	h := s.Snapshot().History
	assert.Equal(t, 2, h.CurrentPage)
	assert.Len(t, h.Page.Records, 2)
	assert.False(t, h.Page.Pagination.HasNext)

	calls := client.Calls("history")
	require.NoError(t, s.NextHistoryPage(ctx))
	assert.Equal(t, calls, client.Calls("history"), "next past the last page does nothing")

	require.NoError(t, s.PreviousHistoryPage(ctx))
	assert.Equal(t, 1, s.Snapshot().History.CurrentPage)
}

func TestEndToEnd_AddClaimAndReadHistory(t *testing.T) {
	client := ledger.NewMockClient(ledger.WithAward(func(string) int { return 7 }))
	s, _ := newSession(t, client)
	b := &snapshots{}
	s.SetBroadcaster(b)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	snap := s.Snapshot()
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Selection)

	require.NoError(t, s.AddUser(ctx, "Ada"))
	snap = s.Snapshot()
	require.Len(t, snap.Users, 1)
	ada := snap.Users[0]
	assert.Equal(t, "Ada", ada.Name)
	assert.Equal(t, 0, ada.TotalPoints)
	assert.Equal(t, 1, ada.Rank)

	s.Select(ada.ID)
	require.NoError(t, s.Claim(ctx))
	s.Wait()

	snap = s.Snapshot()
	user, ok := snap.SelectedUser()
	require.True(t, ok)
	assert.Equal(t, 7, user.TotalPoints)
	assert.Equal(t, "Ada claimed 7 points!", snap.Notification.Text)
	assert.True(t, b.anyLoading(), "loading was published while the claim ran")

	require.NoError(t, s.LoadHistoryPage(ctx, 1))
	h := s.Snapshot().History
	require.NotNil(t, h.Page)
	require.NotEmpty(t, h.Page.Records)
	assert.Equal(t, "Ada", h.Page.Records[0].UserName)
	assert.Equal(t, 7, h.Page.Records[0].PointsAwarded)
}
