package claim

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrezinsky/claimboard/internal/history"
	"github.com/abrezinsky/claimboard/internal/loading"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/internal/roster"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

type note struct {
	text     string
	severity models.Severity
}

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Success(text string) { r.add(text, models.SeveritySuccess) }
func (r *recorder) Error(text string)   { r.add(text, models.SeverityError) }

func (r *recorder) add(text string, sev models.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{text, sev})
}

func (r *recorder) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

type fixture struct {
	client  *ledger.MockClient
	roster  *roster.Sync
	history *history.Pager
	notes   *recorder
	flag    *loading.Flag
	flow    *Workflow
}

func newFixture(t *testing.T, opts ...ledger.MockOption) *fixture {
	t.Helper()
	f := &fixture{
		client: ledger.NewMockClient(opts...),
		notes:  &recorder{},
		flag:   loading.New(),
	}
	f.roster = roster.New(logger.Nop(), f.client, f.notes, f.flag)
	f.history = history.New(logger.Nop(), f.client, 5)
	f.flow = New(logger.Nop(), f.client, f.roster, f.history, f.notes, f.flag)
	require.NoError(t, f.roster.Load(context.Background()))
	return f
}

func twoUsers() ledger.MockOption {
	return ledger.WithUsers([]models.User{
		{ID: "a", Name: "Ada", TotalPoints: 10},
		{ID: "b", Name: "Bob", TotalPoints: 8},
	})
}

func TestClaim_NoSelectionMakesNoCall(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, "", f.roster.Selection())
	before := f.client.TotalCalls()

	_, err := f.flow.Claim(context.Background())

	assert.True(t, errors.Is(err, ErrNoSelection))
	assert.Equal(t, before, f.client.TotalCalls())
	assert.Equal(t, []note{{"Please select a user first", models.SeverityError}}, f.notes.all())
	assert.False(t, f.flag.Held())
}

func TestClaim_SuccessReplacesRosterAndReloadsHistory(t *testing.T) {
	f := newFixture(t, twoUsers(), ledger.WithAward(func(string) int { return 5 }))
	f.roster.Select("b")

	res, err := f.flow.Claim(context.Background())
	require.NoError(t, err)
	f.history.Wait()

	users := f.roster.Users()
	assert.Equal(t, res.AllUsers, users)
	assert.Equal(t, "b", users[0].ID, "Bob overtakes Ada with 13 points")
	assert.Equal(t, 13, users[0].TotalPoints)
	assert.Equal(t, 1, users[0].Rank)

	assert.Equal(t, []note{{"Bob claimed 5 points!", models.SeveritySuccess}}, f.notes.all())
	assert.Equal(t, 1, f.client.Calls("history"))
	st := f.history.State()
	require.NotNil(t, st.Page)
	assert.Equal(t, "Bob", st.Page.Records[0].UserName)
	assert.False(t, f.flag.Held())
}

func TestClaim_FlagHeldDuringCallOnly(t *testing.T) {
	var heldDuring bool
	var flag *loading.Flag
	f := newFixture(t, twoUsers(), ledger.WithClaimHook(func(ctx context.Context, userID string) error {
		heldDuring = flag.Held()
		return nil
	}))
	flag = f.flag
	f.roster.Select("a")

	_, err := f.flow.Claim(context.Background())
	require.NoError(t, err)

	assert.True(t, heldDuring)
	assert.False(t, f.flag.Held())
}

func TestClaim_FailureUsesServerMessageAndKeepsRoster(t *testing.T) {
	f := newFixture(t, twoUsers(), ledger.WithClaimError(ledger.Rejected(404, "User not found")))
	f.roster.Select("a")
	before := f.roster.Users()

	_, err := f.flow.Claim(context.Background())
	f.history.Wait()

	require.Error(t, err)
	assert.Equal(t, before, f.roster.Users())
	assert.Equal(t, []note{{"User not found", models.SeverityError}}, f.notes.all())
	assert.Equal(t, 0, f.client.Calls("history"))
	assert.False(t, f.flag.Held())
}

func TestClaim_FailureWithoutMessageFallsBack(t *testing.T) {
	f := newFixture(t, twoUsers(), ledger.WithClaimError(errors.New("dial tcp: timeout")))
	f.roster.Select("a")

	_, err := f.flow.Claim(context.Background())

	require.Error(t, err)
	assert.Equal(t, []note{{MsgClaimFailed, models.SeverityError}}, f.notes.all())
}

func TestClaim_HistoryReloadFailureDoesNotAffectClaim(t *testing.T) {
	f := newFixture(t, twoUsers(), ledger.WithHistoryError(errors.New("history down")))
	f.roster.Select("a")

	_, err := f.flow.Claim(context.Background())
	f.history.Wait()

	require.NoError(t, err)
	assert.Equal(t, []note{{"Ada claimed 5 points!", models.SeveritySuccess}}, f.notes.all())
	assert.Equal(t, models.HistoryError, f.history.State().Status)
}

func TestClaim_BusyWhileAddUserInFlight(t *testing.T) {
	f := newFixture(t, twoUsers())
	f.roster.Select("a")
	require.NoError(t, f.flag.TryAcquire())

	_, err := f.flow.Claim(context.Background())

	assert.True(t, errors.Is(err, loading.ErrBusy))
	assert.Equal(t, 0, f.client.Calls("claim"))
	assert.Empty(t, f.notes.all())
}

func TestClaim_HistoryReloadSurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t, twoUsers())
	f.roster.Select("a")
	ctx, cancel := context.WithCancel(context.Background())

	_, err := f.flow.Claim(ctx)
	cancel()
	f.history.Wait()

	require.NoError(t, err)
	assert.Equal(t, models.HistoryLoaded, f.history.State().Status)
}
