package web

// errors.go provides unified error response handling for the web layer.
//
// Technical errors are logged with the request ID; clients get the mapped
// core.UserMessage, as JSON for API callers and as an error page otherwise.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/cpucompare/internal/core"
	"github.com/JonMunkholm/cpucompare/internal/logging"
	"github.com/JonMunkholm/cpucompare/internal/web/templates"
)

var errNotFound = errors.New("not found")

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-facing message for it.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	if errors.Is(err, errNotFound) {
		userMsg = core.UserMessage{Message: "Page not found", Action: "Go back to the comparison", Code: "HTTP404"}
	}

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if wantsJSON(r) {
		writeJSON(w, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorPage(userMsg, statusCode).Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

// statusFor picks the HTTP status for an error returned by a catalog or
// controller operation.
func statusFor(err error) int {
	switch core.MapError(err).Code {
	case "CSV001", "CSV002", "CSV003":
		return http.StatusUnprocessableEntity
	case "CAT001", "CAT002":
		return http.StatusBadGateway
	case "CAT003":
		return http.StatusServiceUnavailable
	case "SEL001":
		return http.StatusConflict
	case "SEL002":
		return http.StatusNotFound
	case "SORT001":
		return http.StatusBadRequest
	case "RATE001":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode json response", "error", err)
	}
}
