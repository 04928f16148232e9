// Package loading holds the single process-wide in-flight flag that gates
// mutating ledger actions.
package loading

import (
	"sync"

	apperrors "github.com/abrezinsky/claimboard/internal/errors"
)

// ErrBusy is returned when a mutating action is attempted while another one
// holds the flag.
var ErrBusy = apperrors.Busy("Another action is in progress")

// Flag is the loading flag. Only claim and add-user acquire it; reads never
// wait on it.
type Flag struct {
	mu       sync.Mutex
	held     bool
	onChange func()
}

// New returns a released flag
func New() *Flag {
	return &Flag{}
}

// SetOnChange registers fn to run after every acquire or release.
func (f *Flag) SetOnChange(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = fn
}

// TryAcquire sets the flag if it is clear. It returns ErrBusy otherwise.
func (f *Flag) TryAcquire() error {
	f.mu.Lock()
	if f.held {
		f.mu.Unlock()
		return ErrBusy
	}
	f.held = true
	fn := f.onChange
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Release clears the flag
func (f *Flag) Release() {
	f.mu.Lock()
	f.held = false
	fn := f.onChange
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Held reports whether a mutating action is in flight
func (f *Flag) Held() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held
}
