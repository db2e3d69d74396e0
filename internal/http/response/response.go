// Package response writes the JSON envelope every endpoint speaks:
// status is "success" on 2xx, "fail" on 4xx and "error" on 5xx.
package response

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/wandertrails/tours-api/internal/apperror"
	"github.com/wandertrails/tours-api/pkg/logger"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

type Envelope struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

func write(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, Envelope{Status: StatusSuccess, Data: data})
}

// SuccessList adds the results count alongside the collection payload.
func SuccessList(w http.ResponseWriter, statusCode int, count int, data any) {
	write(w, statusCode, Envelope{Status: StatusSuccess, Results: &count, Data: data})
}

// SuccessToken is used by the auth endpoints that issue a fresh session token.
func SuccessToken(w http.ResponseWriter, statusCode int, token string, data any) {
	write(w, statusCode, Envelope{Status: StatusSuccess, Token: token, Data: data})
}

func Message(w http.ResponseWriter, statusCode int, message string) {
	write(w, statusCode, Envelope{Status: StatusSuccess, Message: message})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Fail writes a client error (4xx).
func Fail(w http.ResponseWriter, statusCode int, message string) {
	write(w, statusCode, Envelope{Status: StatusFail, Message: message})
}

// RateLimit is the 429 shortcut used by the limiter middleware.
func RateLimit(w http.ResponseWriter, message string) {
	Fail(w, http.StatusTooManyRequests, message)
}

// HandleError translates a service error into the envelope. Operational
// errors carry their own status code and safe message; anything else is a
// programming or infrastructure fault that is logged and, in production,
// reduced to a generic 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error, production bool) {
	if appErr, ok := apperror.Operational(err); ok {
		status := StatusFail
		if appErr.StatusCode >= 500 {
			status = StatusError
		}
		env := Envelope{Status: status, Message: appErr.Message}
		if !production && appErr.Err != nil {
			env.Detail = appErr.Err.Error()
		}
		write(w, appErr.StatusCode, env)
		return
	}

	logger.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path, "method", r.Method)

	env := Envelope{Status: StatusError, Message: "something went very wrong"}
	if !production {
		env.Detail = err.Error()
		env.Stack = string(debug.Stack())
	}
	write(w, http.StatusInternalServerError, env)
}

// Project reduces the payload to the requested JSON fields. It round-trips
// through encoding/json so the include-list operates on wire names; the id
// always survives. An empty field list returns the value untouched.
func Project(v any, fields []string) any {
	if len(fields) == 0 {
		return v
	}

	keep := map[string]bool{"id": true}
	for _, f := range fields {
		keep[f] = true
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			prune(list[i], keep)
		}
		return list
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		prune(obj, keep)
		return obj
	}

	return v
}

func prune(m map[string]any, keep map[string]bool) {
	for k := range m {
		if !keep[k] {
			delete(m, k)
		}
	}
}
