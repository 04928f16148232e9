package console

// SelectRequest changes the selected user. An empty ID clears the selection.
type SelectRequest struct {
	ID string `json:"id"`
}

// AddUserRequest creates a participant
type AddUserRequest struct {
	Name string `json:"name"`
}

// HistoryPageRequest loads a specific history page
type HistoryPageRequest struct {
	Page int `json:"page"`
}
