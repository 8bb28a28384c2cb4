// Package respond writes JSON responses for the status API. Error
// responses are sanitized so upstream credentials never leak into a
// dashboard client.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; all that is left is to log it.
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes a JSON error response with the error message as-is. Use it
// for errors this service composed itself (unknown provider, method not
// allowed); errors carrying upstream detail go through SafeError.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, errorBody{Error: err.Error()})
}

// safeFragments are message fragments the status API produces itself and
// may return verbatim. Anything else can carry upstream response bodies or
// webhook URLs and is replaced with a generic message.
var safeFragments = []string{
	"not found",
	"not allowed",
	"unknown provider",
	"invalid",
	"required",
	"request body too large",
}

// SafeError writes a JSON error response, hiding messages that may carry
// internal detail. 5xx responses always get the generic message; the real
// error is logged with credentials masked.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	safe := false
	if code < 500 {
		lower := strings.ToLower(msg)
		for _, fragment := range safeFragments {
			if strings.Contains(lower, fragment) {
				safe = true
				break
			}
		}
	}

	if safe {
		JSON(w, code, errorBody{Error: msg})
		return
	}

	slog.Default().Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, errorBody{Error: "internal server error"})
}
