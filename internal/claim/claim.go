// Package claim runs the points-award action and folds its result back into
// the roster and the history.
package claim

import (
	"context"
	"fmt"

	apperrors "github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/loading"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// Messages shown to the operator
const (
	MsgNoSelection = "Please select a user first"
	MsgClaimFailed = "Failed to claim points"
)

// ErrNoSelection is returned when a claim is attempted with nothing selected
var ErrNoSelection = apperrors.Validation(MsgNoSelection)

// Roster is the part of the roster the workflow reads and replaces
type Roster interface {
	Selection() string
	Replace(users []models.User)
}

// HistoryReloader refreshes history in the background
type HistoryReloader interface {
	LoadAsync(ctx context.Context, page int)
}

// Notifier is the sink for operator messages
type Notifier interface {
	Success(text string)
	Error(text string)
}

// Workflow claims points for the selected user
type Workflow struct {
	log     logger.Logger
	client  ledger.Client
	roster  Roster
	history HistoryReloader
	notes   Notifier
	flag    *loading.Flag
}

// New creates a claim Workflow
func New(log logger.Logger, client ledger.Client, roster Roster, history HistoryReloader, notes Notifier, flag *loading.Flag) *Workflow {
	return &Workflow{
		log:     log,
		client:  client,
		roster:  roster,
		history: history,
		notes:   notes,
		flag:    flag,
	}
}

// Claim asks the ledger to award points to the selected user. On success the
// roster is replaced wholesale by the ledger's allUsers and the first history
// page is reloaded in the background; that reload reports nothing back to the
// operator. The loading flag is held for the duration of the ledger call.
func (w *Workflow) Claim(ctx context.Context) (*ledger.ClaimResult, error) {
	userID := w.roster.Selection()
	if userID == "" {
		w.notes.Error(MsgNoSelection)
		return nil, ErrNoSelection
	}

	if err := w.flag.TryAcquire(); err != nil {
		return nil, err
	}
	defer w.flag.Release()

	res, err := w.client.ClaimPoints(ctx, userID)
	if err != nil {
		w.log.Error("Error claiming points", "user_id", userID, "error", err)
		w.notes.Error(apperrors.UserMessage(err, MsgClaimFailed))
		return nil, err
	}

	w.roster.Replace(res.AllUsers)

	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("Claimed %d points", res.PointsAwarded)
	}
	w.notes.Success(msg)
	w.log.Info("Points claimed", "user_id", userID, "points", res.PointsAwarded)

	w.history.LoadAsync(context.WithoutCancel(ctx), 1)
	return res, nil
}
