package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

type serverErr struct{ msg string }

func (e serverErr) Error() string         { return "status 400: " + e.msg }
func (e serverErr) ServerMessage() string { return e.msg }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", Validation("bad name"), "bad name"},
		{"with cause", Wrap(stderrors.New("boom"), ErrInternal, "load failed"), "load failed: boom"},
		{"formatted", Validationf("page %d is out of range", 9), "page 9 is out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := Transport(cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the underlying cause")
	}
}

func TestError_IsMatchesSentinelThroughWrapping(t *testing.T) {
	sentinel := Validation("Please select a user first")
	wrapped := fmt.Errorf("claim: %w", Validation("Please select a user first"))

	if !stderrors.Is(wrapped, sentinel) {
		t.Error("expected wrapped copy to match sentinel")
	}
	if stderrors.Is(wrapped, Busy("Please select a user first")) {
		t.Error("expected different kind not to match")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"busy", Busy("in flight"), ErrBusy},
		{"wrapped backend", fmt.Errorf("x: %w", Backend("nope", nil)), ErrBackend},
		{"plain error", stderrors.New("plain"), ErrInternal},
		{"conflict", Conflict("dup"), ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", fmt.Errorf("claim: %w", serverErr{msg: "User not found"}), "User not found"},
		{"empty server message", serverErr{}, "Failed to claim points"},
		{"backend kind", Backend("Ledger closed", nil), "Ledger closed"},
		{"backend without message", Backend("", stderrors.New("x")), "Failed to claim points"},
		{"transport", Transport(stderrors.New("timeout")), "Failed to claim points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "Failed to claim points"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if ErrBusy.String() != "busy" {
		t.Errorf("unexpected %q", ErrBusy.String())
	}
	if Kind(99).String() != "internal" {
		t.Errorf("unexpected %q", Kind(99).String())
	}
}
