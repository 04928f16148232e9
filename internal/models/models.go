package models

import "time"

// User is one participant on the leaderboard as reported by the ledger
type User struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
	Rank        int    `json:"rank"`
}

// HistoryRecord is a single past claim. UserName is denormalized by the ledger
// and does not follow later renames.
type HistoryRecord struct {
	ID            string    `json:"_id"`
	UserName      string    `json:"userName"`
	PointsAwarded int       `json:"pointsAwarded"`
	ClaimedAt     time.Time `json:"claimedAt"`
}

// Pagination describes where a history page sits in the full history
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalRecords int  `json:"totalRecords,omitempty"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// Consistent reports whether the pagination flags agree with the page numbers.
func (p Pagination) Consistent() bool {
	if p.TotalPages == 0 {
		return !p.HasNext && !p.HasPrev
	}
	if p.CurrentPage < 1 || p.CurrentPage > p.TotalPages {
		return false
	}
	return p.HasPrev == (p.CurrentPage > 1) && p.HasNext == (p.CurrentPage < p.TotalPages)
}

// HistoryPage is one server-paginated window of claims, newest first
type HistoryPage struct {
	Records    []HistoryRecord `json:"history"`
	Pagination Pagination      `json:"pagination"`
}

// Severity of an operator notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is the single transient status message shown to the operator
type Notification struct {
	Seq       uint64    `json:"seq"`
	Text      string    `json:"text"`
	Severity  Severity  `json:"severity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HistoryStatus is the state of the history pager
type HistoryStatus string

const (
	HistoryIdle    HistoryStatus = "idle"
	HistoryLoading HistoryStatus = "loading"
	HistoryLoaded  HistoryStatus = "loaded"
	HistoryError   HistoryStatus = "error"
)

// HistoryState is what the pager exposes to readers. Page keeps the last
// successfully loaded data even in the loading and error states.
type HistoryState struct {
	Status      HistoryStatus `json:"status"`
	Page        *HistoryPage  `json:"page,omitempty"`
	CurrentPage int           `json:"current_page"`
	LastError   string        `json:"last_error,omitempty"`
}

// Snapshot is a consistent copy of all client state, the only input of the
// view composer.
type Snapshot struct {
	Users        []User        `json:"users"`
	Selection    string        `json:"selection"`
	History      HistoryState  `json:"history"`
	Notification *Notification `json:"notification,omitempty"`
	Loading      bool          `json:"loading"`
	ShowAddUser  bool          `json:"show_add_user"`
	ShowHistory  bool          `json:"show_history"`
}

// SelectedUser resolves Selection against Users. A selection that no longer
// appears in the roster resolves to nothing.
func (s Snapshot) SelectedUser() (User, bool) {
	return FindUser(s.Users, s.Selection)
}

// FindUser returns the user with the given id from users.
func FindUser(users []User, id string) (User, bool) {
	if id == "" {
		return User{}, false
	}
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
