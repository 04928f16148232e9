// Package ledgerd is a development points ledger. It serves the REST contract
// the console consumes, backed by SQLite.
package ledgerd

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// MaxHistoryLimit caps the page size a caller may ask for
const MaxHistoryLimit = 50

// ErrNameRequired is returned for a blank user name
var ErrNameRequired = errors.Validation("User name is required")

// ErrUserIDRequired is returned for a claim without a user id
var ErrUserIDRequired = errors.Validation("User ID is required")

// Storer is the persistence the service needs
type Storer interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, name string) (string, error)
	AwardPoints(ctx context.Context, userID string, points int) (models.HistoryRecord, error)
	CountClaims(ctx context.Context) (int, error)
	ListClaims(ctx context.Context, offset, limit int) ([]models.HistoryRecord, error)
}

// Service implements the ledger operations
type Service struct {
	log       logger.Logger
	store     Storer
	maxPoints int
	roll      func(n int) int
}

// NewService creates a ledger service awarding between 1 and maxPoints per claim
func NewService(log logger.Logger, store Storer, maxPoints int) *Service {
	if maxPoints <= 0 {
		maxPoints = 10
	}
	return &Service{
		log:       log,
		store:     store,
		maxPoints: maxPoints,
		roll:      rand.Intn,
	}
}

// Users returns the ranked roster
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to list users")
	}
	return users, nil
}

// AddUser registers a participant and returns the new ranked roster
func (s *Service) AddUser(ctx context.Context, name string) ([]models.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", ErrNameRequired
	}

	if _, err := s.store.CreateUser(ctx, name); err != nil {
		if errors.KindOf(err) == errors.ErrConflict {
			return nil, "", err
		}
		return nil, "", errors.Wrap(err, errors.ErrInternal, "failed to create user")
	}
	s.log.Info("User added", "name", name)

	users, err := s.Users(ctx)
	if err != nil {
		return nil, "", err
	}
	return users, fmt.Sprintf("User %s added successfully", name), nil
}

// Claim awards a random number of points in [1, maxPoints] to userID
func (s *Service) Claim(ctx context.Context, userID string) (*ledger.ClaimData, string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, "", ErrUserIDRequired
	}

	points := s.roll(s.maxPoints) + 1
	record, err := s.store.AwardPoints(ctx, userID, points)
	if err != nil {
		if errors.KindOf(err) == errors.ErrNotFound {
			return nil, "", err
		}
		return nil, "", errors.Wrap(err, errors.ErrInternal, "failed to award points")
	}
	s.log.Info("Points claimed", "user", record.UserName, "points", points)

	users, err := s.Users(ctx)
	if err != nil {
		return nil, "", err
	}
	user, ok := models.FindUser(users, userID)
	if !ok {
		return nil, "", errors.Internalf("user %s vanished after claim", userID)
	}
	data := &ledger.ClaimData{User: &user, PointsAwarded: points, AllUsers: users}
	return data, fmt.Sprintf("%s claimed %d points!", user.Name, points), nil
}

// History returns one page of claims, newest first. Out of range values fall
// back to page 1 and the default page size; limit is capped at
// MaxHistoryLimit. A page past the end is answered with the last page.
func (s *Service) History(ctx context.Context, page, limit int) (*models.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = ledger.DefaultPageSize
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	total, err := s.store.CountClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to count claims")
	}
	if pages := (total + limit - 1) / limit; pages > 0 && page > pages {
		page = pages
	}
	records, err := s.store.ListClaims(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to list claims")
	}
	return &models.HistoryPage{
		Records:    records,
		Pagination: ledger.NewPagination(page, limit, total),
	}, nil
}
