// Package web holds JSON response and request decoding helpers for handlers.
package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"taskboard/backend/internal/platform/apperror"
)

// Respond writes v as a JSON body with the given status. A nil v writes
// only the status code.
func Respond(w http.ResponseWriter, status int, v interface{}) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes a {"message": ...} JSON body.
func Message(w http.ResponseWriter, status int, message string) {
	Respond(w, status, map[string]string{"message": message})
}

// Error maps err's kind to an HTTP status and writes the client-safe
// message. Internal errors are logged and masked.
func Error(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError && log != nil {
		log.Errorw("request failed", "error", err)
	}
	body := map[string]interface{}{"message": apperror.MessageOf(err)}
	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	Respond(w, status, body)
}

// StatusOf maps an error kind to its HTTP status code.
func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindDependency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body into v. Unknown fields are tolerated;
// malformed JSON yields a validation error.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Wrap(apperror.KindValidation, "invalid request body", err)
	}
	return nil
}
