package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unknown column contract error",
			err:         contractErr("update cell", ErrUnknownColumn, `column "Agee"`),
			wantCode:    "DATA001",
			wantMessage: "Column does not exist in this dataset",
		},
		{
			name:        "no active rule set",
			err:         contractErr("revalidate", ErrNoActiveRuleSet, ""),
			wantCode:    "RULE006",
			wantMessage: "No rule set is selected",
		},
		{
			name:        "empty error index",
			err:         contractErr("next error", ErrNoErrorRows, ""),
			wantCode:    "DATA003",
			wantMessage: "There are no rows with errors",
		},
		{
			name:        "duplicate column wrapped by validation",
			err:         fmt.Errorf("rules 1 and 3 both govern %q: %w", "Age", ErrDuplicateColumn),
			wantCode:    "RULE003",
			wantMessage: "Two rules target the same column",
		},
		{
			name:        "invalid rule parameter",
			err:         fmt.Errorf("min %q: %w", "abc", ErrInvalidRuleParam),
			wantCode:    "RULE005",
			wantMessage: "A rule has an invalid parameter",
		},
		{
			name:        "rule set not found from store",
			err:         errors.New(`get "Clients": rule set not found`),
			wantCode:    "RULE001",
			wantMessage: "Rule set not found",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "timeout wins over deadline",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "oversized request body",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "malformed request",
			err:         errors.New("invalid request body: unexpected EOF"),
			wantCode:    "REQ001",
			wantMessage: "The request could not be read",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FILE TOO LARGE"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoActiveRuleSet)

	expected := "No rule set is selected (Code: RULE006). Select a rule set before validating or editing"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrRowOutOfRange, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
