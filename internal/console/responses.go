package console

import "github.com/abrezinsky/claimboard/internal/view"

// PageResponse is returned by every action: the page as it stands after the
// action completed.
type PageResponse struct {
	Page view.Page `json:"page"`
}

// ToggleResponse reports a panel's visibility after a toggle
type ToggleResponse struct {
	Visible bool      `json:"visible"`
	Page    view.Page `json:"page"`
}

// InfoResponse describes where the console and its ledger live
type InfoResponse struct {
	ConsoleURL string `json:"console_url"`
	LedgerURL  string `json:"ledger_url"`
}
