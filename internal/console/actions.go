package console

import (
	"net/http"

	"github.com/skip2/go-qrcode"
)

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := IndexData{
		Title:      "Points Claiming System",
		Page:       h.page(),
		ConsoleURL: h.ConsoleURL,
		LedgerURL:  h.ledgerURL(),
	}
	if err := h.templates.Index.Execute(w, data); err != nil {
		h.Log.Error("Error rendering index", "error", err)
	}
}

func (h *Handlers) handleGetPage(w http.ResponseWriter, r *http.Request) {
	respondOK(w, PageResponse{Page: h.page()})
}

func (h *Handlers) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Session.Snapshot())
}

func (h *Handlers) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	respondOK(w, InfoResponse{ConsoleURL: h.ConsoleURL, LedgerURL: h.ledgerURL()})
}

// handleGetQR serves a QR code pointing at the console so a phone on the same
// network can open it
func (h *Handlers) handleGetQR(w http.ResponseWriter, r *http.Request) {
	if h.ConsoleURL == "" {
		respondError(w, NotFound("Console URL not known"))
		return
	}
	png, err := qrcode.Encode(h.ConsoleURL, qrcode.Medium, 256)
	if err != nil {
		h.Log.Error("Error encoding QR code", "error", err)
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// actionResult answers an action with the resulting page, or with the error
// mapped to a status. The session has already notified the operator.
func (h *Handlers) actionResult(w http.ResponseWriter, action string, err error) {
	if err != nil {
		h.Log.Debug("Console action failed", "action", action, "error", err)
		respondError(w, err)
		return
	}
	respondOK(w, PageResponse{Page: h.page()})
}

func (h *Handlers) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.Session.Select(req.ID)
	h.actionResult(w, "select", nil)
}

func (h *Handlers) handleClaim(w http.ResponseWriter, r *http.Request) {
	h.actionResult(w, "claim", h.Session.Claim(r.Context()))
}

func (h *Handlers) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.actionResult(w, "add_user", h.Session.AddUser(r.Context(), req.Name))
}

func (h *Handlers) handleReloadRoster(w http.ResponseWriter, r *http.Request) {
	h.actionResult(w, "reload_roster", h.Session.ReloadRoster(r.Context()))
}

func (h *Handlers) handleLoadHistoryPage(w http.ResponseWriter, r *http.Request) {
	var req HistoryPageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.actionResult(w, "history_page", h.Session.LoadHistoryPage(r.Context(), req.Page))
}

func (h *Handlers) handleNextHistoryPage(w http.ResponseWriter, r *http.Request) {
	h.actionResult(w, "history_next", h.Session.NextHistoryPage(r.Context()))
}

func (h *Handlers) handlePreviousHistoryPage(w http.ResponseWriter, r *http.Request) {
	h.actionResult(w, "history_prev", h.Session.PreviousHistoryPage(r.Context()))
}

func (h *Handlers) handleToggleAddUser(w http.ResponseWriter, r *http.Request) {
	visible := h.Session.ToggleAddUser()
	respondOK(w, ToggleResponse{Visible: visible, Page: h.page()})
}

func (h *Handlers) handleToggleHistory(w http.ResponseWriter, r *http.Request) {
	visible := h.Session.ToggleHistory()
	respondOK(w, ToggleResponse{Visible: visible, Page: h.page()})
}
