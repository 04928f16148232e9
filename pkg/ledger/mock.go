package ledger

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/models"
)

// MockClient is an in-memory ledger for testing. It ranks users and records
// claims the way the real service does, and lets tests inject errors and
// pause calls to script interleavings.
type MockClient struct {
	mu          sync.Mutex
	baseURL     string
	users       []mockUser
	claims      []models.HistoryRecord
	nextID      int
	award       func(userID string) int
	now         func() time.Time
	listErr     error
	addErr      error
	claimErr    error
	historyErr  error
	listHook    func(ctx context.Context) error
	historyHook func(ctx context.Context, page int) error
	claimHook   func(ctx context.Context, userID string) error
	calls       map[string]int
}

type mockUser struct {
	id     string
	name   string
	points int
	order  int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithUsers seeds the roster. Ranks are recomputed from the points.
func WithUsers(users []models.User) MockOption {
	return func(m *MockClient) {
		for _, u := range users {
			m.nextID++
			m.users = append(m.users, mockUser{id: u.ID, name: u.Name, points: u.TotalPoints, order: m.nextID})
		}
	}
}

// WithClaims seeds the history, newest first.
func WithClaims(records []models.HistoryRecord) MockOption {
	return func(m *MockClient) {
		m.claims = append(m.claims, records...)
	}
}

// WithAward sets the points awarded per claim
func WithAward(fn func(userID string) int) MockOption {
	return func(m *MockClient) {
		m.award = fn
	}
}

// WithListError sets an error to return from ListUsers
func WithListError(err error) MockOption {
	return func(m *MockClient) {
		m.listErr = err
	}
}

// WithAddError sets an error to return from AddUser
func WithAddError(err error) MockOption {
	return func(m *MockClient) {
		m.addErr = err
	}
}

// WithClaimError sets an error to return from ClaimPoints
func WithClaimError(err error) MockOption {
	return func(m *MockClient) {
		m.claimErr = err
	}
}

// WithHistoryError sets an error to return from FetchHistory
func WithHistoryError(err error) MockOption {
	return func(m *MockClient) {
		m.historyErr = err
	}
}

// WithListHook runs fn after ListUsers has read the roster and before it
// answers, so a test can hold a response that is already out of date. A
// non-nil return fails the call.
func WithListHook(fn func(ctx context.Context) error) MockOption {
	return func(m *MockClient) {
		m.listHook = fn
	}
}

// WithHistoryHook runs fn before every FetchHistory answer. A non-nil
// return fails the call.
func WithHistoryHook(fn func(ctx context.Context, page int) error) MockOption {
	return func(m *MockClient) {
		m.historyHook = fn
	}
}

// WithClaimHook runs fn before every ClaimPoints answer. A non-nil return
// fails the call.
func WithClaimHook(fn func(ctx context.Context, userID string) error) MockOption {
	return func(m *MockClient) {
		m.claimHook = fn
	}
}

// WithClock sets the time source for claim timestamps
func WithClock(now func() time.Time) MockOption {
	return func(m *MockClient) {
		m.now = now
	}
}

// NewMockClient creates a new, empty mock ledger
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL: "http://mock-ledger.local/api",
		award:   func(string) int { return 5 },
		now:     time.Now,
		calls:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rejected builds the error a ledger returns for a refused request.
func Rejected(status int, message string) error {
	return apperrors.Backend(message, &APIError{Status: status, Message: message})
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// Calls returns how many times op was invoked. Ops are "list", "add",
// "claim" and "history".
func (m *MockClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of ledger calls of any kind.
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// ListUsers returns the ranked roster or the configured error
func (m *MockClient) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	m.calls["list"]++
	if m.listErr != nil {
		m.mu.Unlock()
		return nil, m.listErr
	}
	users := m.rankedLocked()
	hook := m.listHook
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// AddUser adds a zero-point participant and returns the ranked roster
func (m *MockClient) AddUser(ctx context.Context, name string) (*RosterResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["add"]++
	if m.addErr != nil {
		return nil, m.addErr
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Rejected(http.StatusBadRequest, "User name is required")
	}
	for _, u := range m.users {
		if strings.EqualFold(u.name, name) {
			return nil, Rejected(http.StatusConflict, "User already exists")
		}
	}
	m.nextID++
	m.users = append(m.users, mockUser{id: fmt.Sprintf("user-%d", m.nextID), name: name, order: m.nextID})
	return &RosterResult{
		Users:   m.rankedLocked(),
		Message: fmt.Sprintf("User %s added successfully", name),
	}, nil
}

// ClaimPoints awards points and records a claim
func (m *MockClient) ClaimPoints(ctx context.Context, userID string) (*ClaimResult, error) {
	m.mu.Lock()
	m.calls["claim"]++
	hook, claimErr := m.claimHook, m.claimErr
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, userID); err != nil {
			return nil, err
		}
	}
	if claimErr != nil {
		return nil, claimErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, u := range m.users {
		if u.id == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, Rejected(http.StatusNotFound, "User not found")
	}

	points := m.award(userID)
	m.users[idx].points += points
	m.nextID++
	record := models.HistoryRecord{
		ID:            fmt.Sprintf("claim-%d", m.nextID),
		UserName:      m.users[idx].name,
		PointsAwarded: points,
		ClaimedAt:     m.now(),
	}
	m.claims = append([]models.HistoryRecord{record}, m.claims...)

	all := m.rankedLocked()
	user, _ := models.FindUser(all, userID)
	return &ClaimResult{
		ClaimData: ClaimData{User: &user, PointsAwarded: points, AllUsers: all},
		Message:   fmt.Sprintf("%s claimed %d points!", user.Name, points),
	}, nil
}

// FetchHistory returns one page of the recorded claims. A page past the end
// is answered with the last page.
func (m *MockClient) FetchHistory(ctx context.Context, page, limit int) (*models.HistoryPage, error) {
	m.mu.Lock()
	m.calls["history"]++
	hook, historyErr := m.historyHook, m.historyErr
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, page); err != nil {
			return nil, err
		}
	}
	if historyErr != nil {
		return nil, historyErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if pages := (len(m.claims) + limit - 1) / limit; pages > 0 && page > pages {
		page = pages
	}
	start, end := PageBounds(page, limit, len(m.claims))
	records := make([]models.HistoryRecord, end-start)
	copy(records, m.claims[start:end])
	return &models.HistoryPage{
		Records:    records,
		Pagination: NewPagination(page, limit, len(m.claims)),
	}, nil
}

// rankedLocked returns the roster ordered by points descending, ties by
// creation order, with 1-based ranks.
func (m *MockClient) rankedLocked() []models.User {
	sorted := make([]mockUser, len(m.users))
	copy(sorted, m.users)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].points != sorted[j].points {
			return sorted[i].points > sorted[j].points
		}
		return sorted[i].order < sorted[j].order
	})

	users := make([]models.User, len(sorted))
	for i, u := range sorted {
		users[i] = models.User{ID: u.id, Name: u.name, TotalPoints: u.points, Rank: i + 1}
	}
	return users
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
