package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come before general
// ones. Several patterns may share a code.
//
// Code ranges:
//
//	RULE001-RULE099  rule set definitions and selection
//	DATA001-DATA099  datasets, rows and cells
//	FILE001-FILE099  uploaded and exported files
//	UPL001-UPL099    upload slots and request lifetime
//	DB001-DB099      rule set database connectivity
//	RATE001          request throttling
//	ERR000           no match; check the logs for the technical error
var errorPatterns = []errorPattern{
	// =========================================================================
	// Rule Sets (RULE001-RULE006)
	// =========================================================================
	{
		pattern: "rule set not found",
		msg: UserMessage{
			Message: "Rule set not found",
			Action:  "Refresh the rule set list; it may have been deleted",
			Code:    "RULE001",
		},
	},
	{
		pattern: "rule set already exists",
		msg: UserMessage{
			Message: "A rule set with this name already exists",
			Action:  "Choose a different name or edit the existing rule set",
			Code:    "RULE002",
		},
	},
	{
		pattern: "duplicate rule column",
		msg: UserMessage{
			Message: "Two rules target the same column",
			Action:  "Keep one rule per column; only the first would be applied",
			Code:    "RULE003",
		},
	},
	{
		pattern: "invalid rule set name",
		msg: UserMessage{
			Message: "Rule set name is invalid",
			Action:  "Use a non-empty name without leading or trailing spaces",
			Code:    "RULE004",
		},
	},
	{
		pattern: "invalid rule parameter",
		msg: UserMessage{
			Message: "A rule has an invalid parameter",
			Action:  "Check min, max and length values are numbers",
			Code:    "RULE005",
		},
	},
	{
		pattern: "rule has no column",
		msg: UserMessage{
			Message: "A rule is missing its column",
			Action:  "Select the column each rule applies to",
			Code:    "RULE005",
		},
	},
	{
		pattern: "invalid rule set file",
		msg: UserMessage{
			Message: "The rule set file could not be read",
			Action:  "Upload a file exported from this application (JSON or YAML)",
			Code:    "RULE005",
		},
	},
	{
		pattern: "no active rule set",
		msg: UserMessage{
			Message: "No rule set is selected",
			Action:  "Select a rule set before validating or editing",
			Code:    "RULE006",
		},
	},

	// =========================================================================
	// Datasets (DATA001-DATA008)
	// =========================================================================
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "Column does not exist in this dataset",
			Action:  "Edit one of the columns from the uploaded file",
			Code:    "DATA001",
		},
	},
	{
		pattern: "row out of range",
		msg: UserMessage{
			Message: "Row does not exist in this dataset",
			Action:  "Refresh the grid and try again",
			Code:    "DATA002",
		},
	},
	{
		pattern: "no error rows",
		msg: UserMessage{
			Message: "There are no rows with errors",
			Action:  "Nothing to fix; the dataset is valid",
			Code:    "DATA003",
		},
	},
	{
		pattern: "reserved column name",
		msg: UserMessage{
			Message: "A column name is reserved",
			Action:  "Rename the _errors or _errorCount column in your file",
			Code:    "DATA004",
		},
	},
	{
		pattern: "duplicate column header",
		msg: UserMessage{
			Message: "The file has duplicate column headers",
			Action:  "Make every column header unique",
			Code:    "DATA004",
		},
	},
	{
		pattern: "empty column header",
		msg: UserMessage{
			Message: "The file has a column without a header",
			Action:  "Give every column a header",
			Code:    "DATA004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header row",
			Code:    "DATA005",
		},
	},
	{
		pattern: "too many rows",
		msg: UserMessage{
			Message: "The file has too many rows",
			Action:  "Split the file into smaller chunks",
			Code:    "DATA006",
		},
	},
	{
		pattern: "dataset not found",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "The dataset may have been removed. Please upload it again",
			Code:    "DATA007",
		},
	},
	{
		pattern: "unknown category",
		msg: UserMessage{
			Message: "Unknown file category",
			Action:  "Choose client, worker or task",
			Code:    "DATA008",
		},
	},

	// =========================================================================
	// Files (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "Unsupported file format",
			Action:  "Use csv or json for data and json or yaml for rules",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Requests (REQ001)
	// =========================================================================
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send a JSON body with the documented fields",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB006)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Uploads (UPL002-UPL005)
	// =========================================================================
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(rulestore.ErrNotFound)
//	// msg.Code == "RULE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
