// Package view turns a state snapshot into the display model the console
// renders. Compose is pure: the same snapshot always gives the same page.
package view

import (
	"fmt"
	"time"

	"github.com/abrezinsky/claimboard/internal/models"
)

// DateLayout is how claim times are shown
const DateLayout = "02 Jan 2006, 03:04 PM"

// Fixed labels
const (
	ClaimLabel       = "Claim Random Points"
	ClaimingLabel    = "Claiming..."
	NoUsersText      = "No users found"
	NoHistoryText    = "No history found"
	PlaceholderLabel = "-- Select a User --"
)

var trophies = [...]string{"🥇", "🥈", "🥉"}

// Page is everything the console draws
type Page struct {
	Notification *Banner      `json:"notification,omitempty"`
	Options      []Option     `json:"options"`
	Selected     *Card        `json:"selected,omitempty"`
	Claim        Button       `json:"claim"`
	AddUser      AddUserPanel `json:"add_user"`
	Leaderboard  Leaderboard  `json:"leaderboard"`
	History      HistoryPanel `json:"history"`
}

// Banner is the notification strip
type Banner struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

// Option is one entry of the user picker
type Option struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Card is the selected user's detail
type Card struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"`
}

// Button is a labelled control that may be disabled
type Button struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// AddUserPanel is the add-user form
type AddUserPanel struct {
	Visible bool   `json:"visible"`
	Toggle  string `json:"toggle"`
	Submit  Button `json:"submit"`
}

// Leaderboard lists the roster in rank order
type Leaderboard struct {
	Rows  []Row  `json:"rows"`
	Empty string `json:"empty,omitempty"`
}

// Row is one leaderboard line
type Row struct {
	ID       string `json:"id"`
	Rank     int    `json:"rank"`
	Trophy   string `json:"trophy,omitempty"`
	Name     string `json:"name"`
	Points   string `json:"points"`
	Selected bool   `json:"selected"`
	Top      bool   `json:"top"`
}

// HistoryPanel is the claim history section
type HistoryPanel struct {
	Visible    bool        `json:"visible"`
	Toggle     string      `json:"toggle"`
	Loading    bool        `json:"loading"`
	Rows       []EntryRow  `json:"rows"`
	Empty      string      `json:"empty,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// EntryRow is one history line
type EntryRow struct {
	ID        string `json:"id"`
	UserName  string `json:"user_name"`
	Points    string `json:"points"`
	ClaimedAt string `json:"claimed_at"`
}

// Pagination is the pager control, present only with more than one page
type Pagination struct {
	Label    string `json:"label"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Previous bool   `json:"previous"`
	Next     bool   `json:"next"`
}

// Compose builds the page, formatting dates in the local zone
func Compose(snap models.Snapshot) Page {
	return ComposeIn(snap, time.Local)
}

// ComposeIn builds the page, formatting dates in loc
func ComposeIn(snap models.Snapshot, loc *time.Location) Page {
	p := Page{
		Options:     make([]Option, 0, len(snap.Users)),
		Leaderboard: Leaderboard{Rows: make([]Row, 0, len(snap.Users))},
	}

	if n := snap.Notification; n != nil {
		p.Notification = &Banner{Text: n.Text, Severity: string(n.Severity)}
	}

	for i, u := range snap.Users {
		selected := u.ID == snap.Selection
		p.Options = append(p.Options, Option{ID: u.ID, Label: OptionLabel(u), Selected: selected})

		row := Row{
			ID:       u.ID,
			Rank:     u.Rank,
			Name:     u.Name,
			Points:   fmt.Sprintf("%d pts", u.TotalPoints),
			Selected: selected,
			Top:      i < len(trophies),
		}
		if row.Top {
			row.Trophy = trophies[i]
		}
		p.Leaderboard.Rows = append(p.Leaderboard.Rows, row)
	}
	if len(snap.Users) == 0 {
		p.Leaderboard.Empty = NoUsersText
	}

	if u, ok := snap.SelectedUser(); ok {
		p.Selected = &Card{Name: u.Name, Points: u.TotalPoints, Rank: u.Rank}
	}

	p.Claim = Button{Label: ClaimLabel, Disabled: snap.Loading || snap.Selection == ""}
	if snap.Loading {
		p.Claim.Label = ClaimingLabel
	}

	p.AddUser = AddUserPanel{
		Visible: snap.ShowAddUser,
		Toggle:  "Add New User",
		Submit:  Button{Label: "Add User", Disabled: snap.Loading},
	}
	if snap.ShowAddUser {
		p.AddUser.Toggle = "Cancel"
	}

	p.History = composeHistory(snap, loc)
	return p
}

func composeHistory(snap models.Snapshot, loc *time.Location) HistoryPanel {
	h := HistoryPanel{
		Visible: snap.ShowHistory,
		Toggle:  "Show History",
		Loading: snap.History.Status == models.HistoryLoading,
		Rows:    []EntryRow{},
	}
	if snap.ShowHistory {
		h.Toggle = "Hide History"
	}

	page := snap.History.Page
	if page == nil || len(page.Records) == 0 {
		h.Empty = NoHistoryText
		return h
	}

	for _, r := range page.Records {
		h.Rows = append(h.Rows, EntryRow{
			ID:        r.ID,
			UserName:  r.UserName,
			Points:    fmt.Sprintf("+%d pts", r.PointsAwarded),
			ClaimedAt: r.ClaimedAt.In(loc).Format(DateLayout),
		})
	}

	pg := page.Pagination
	if pg.TotalPages > 1 {
		h.Pagination = &Pagination{
			Label:    fmt.Sprintf("Page %d of %d", pg.CurrentPage, pg.TotalPages),
			Current:  pg.CurrentPage,
			Total:    pg.TotalPages,
			Previous: pg.HasPrev,
			Next:     pg.HasNext,
		}
	}
	return h
}

// OptionLabel is how a user appears in the picker
func OptionLabel(u models.User) string {
	return fmt.Sprintf("%s (%d pts - Rank #%d)", u.Name, u.TotalPoints, u.Rank)
}
