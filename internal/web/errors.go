package web

// errors.go turns handler errors into responses.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through core.MapError to a message, a suggested action and a
// support code. API clients get JSON; browsers get an HTML page.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/gridrules/internal/core"
	"github.com/JonMunkholm/gridrules/internal/ingest"
	"github.com/JonMunkholm/gridrules/internal/logging"
	"github.com/JonMunkholm/gridrules/internal/rulestore"
	"github.com/JonMunkholm/gridrules/internal/web/templates"
	"github.com/JonMunkholm/gridrules/internal/workspace"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errNoFile      = errors.New("no file provided")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusCodes maps sentinel errors to HTTP statuses, checked in order.
var statusCodes = []struct {
	err    error
	status int
}{
	{rulestore.ErrNotFound, http.StatusNotFound},
	{workspace.ErrDatasetNotFound, http.StatusNotFound},
	{rulestore.ErrAlreadyExists, http.StatusConflict},
	{core.ErrNoActiveRuleSet, http.StatusConflict},
	{core.ErrNoErrorRows, http.StatusConflict},
	{ingest.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{ingest.ErrTooManyRows, http.StatusRequestEntityTooLarge},
	{workspace.ErrTooManyUploads, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
	{core.ErrUnknownColumn, http.StatusBadRequest},
	{core.ErrRowOutOfRange, http.StatusBadRequest},
	{core.ErrInvalidRuleSetName, http.StatusBadRequest},
	{core.ErrEmptyRuleColumn, http.StatusBadRequest},
	{core.ErrDuplicateColumn, http.StatusBadRequest},
	{core.ErrInvalidRuleParam, http.StatusBadRequest},
	{rulestore.ErrInvalidFile, http.StatusBadRequest},
	{rulestore.ErrUnsupportedFormat, http.StatusBadRequest},
	{ingest.ErrEmptyFile, http.StatusBadRequest},
	{ingest.ErrInvalidCSV, http.StatusBadRequest},
	{ingest.ErrEmptyHeader, http.StatusBadRequest},
	{ingest.ErrDuplicateHeader, http.StatusBadRequest},
	{ingest.ErrReservedHeader, http.StatusBadRequest},
	{ingest.ErrUnsupportedFormat, http.StatusBadRequest},
	{workspace.ErrUnknownCategory, http.StatusBadRequest},
	{errInvalidBody, http.StatusBadRequest},
	{errNoFile, http.StatusBadRequest},
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		log.Error("render error page", "error", err)
	}
}

// wantsJSON reports whether the client expects a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
