package console_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/abrezinsky/claimboard/internal/console"
	"github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/loading"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

func TestAPIError_Error(t *testing.T) {
	err := console.NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "test message")

	if err.Error() != "test message" {
		t.Errorf("expected 'test message', got %q", err.Error())
	}
	if err.Code != "BAD_REQUEST" {
		t.Errorf("expected code 'BAD_REQUEST', got %q", err.Code)
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "validation",
			err:     errors.Validation("Please select a user first"),
			status:  http.StatusBadRequest,
			code:    console.ErrCodeValidation,
			message: "Please select a user first",
		},
		{
			name:    "invalid input",
			err:     errors.InvalidInput("page must be 1 or greater"),
			status:  http.StatusBadRequest,
			code:    console.ErrCodeValidation,
			message: "page must be 1 or greater",
		},
		{
			name:    "busy",
			err:     loading.ErrBusy,
			status:  http.StatusConflict,
			code:    console.ErrCodeBusy,
			message: "Another action is in progress",
		},
		{
			name:    "backend rejection keeps server message",
			err:     ledger.Rejected(http.StatusConflict, "User already exists"),
			status:  http.StatusBadGateway,
			code:    console.ErrCodeUpstream,
			message: "User already exists",
		},
		{
			name:    "transport",
			err:     errors.Transport(fmt.Errorf("dial tcp: connection refused")),
			status:  http.StatusBadGateway,
			code:    console.ErrCodeUpstream,
			message: "ledger unreachable",
		},
		{
			name:    "not found",
			err:     errors.NotFound("nothing here"),
			status:  http.StatusNotFound,
			code:    console.ErrCodeNotFound,
			message: "nothing here",
		},
		{
			name:    "conflict",
			err:     errors.Conflict("superseded"),
			status:  http.StatusConflict,
			code:    console.ErrCodeConflict,
			message: "superseded",
		},
		{
			name:    "plain error hides details",
			err:     fmt.Errorf("db connection failed"),
			status:  http.StatusInternalServerError,
			code:    console.ErrCodeInternalServer,
			message: "Internal server error",
		},
		{
			name:    "api error passes through",
			err:     console.BadRequest("Request body is empty"),
			status:  http.StatusBadRequest,
			code:    console.ErrCodeBadRequest,
			message: "Request body is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := console.ToAPIError(tt.err)

			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, apiErr.Code)
			}
			if apiErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apiErr.Message)
			}
		})
	}
}
