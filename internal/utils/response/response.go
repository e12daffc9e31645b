// Package response provides helpers for writing consistent JSON HTTP
// responses. Every handler sends the same error envelope:
//
//	{ "status": "error", "error": "field Name is required" }
//
// so API consumers always know what a failure looks like. Success responses
// may be any JSON shape (a record, a list, a status map).
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/types"
	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope for error cases.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
// Headers must be set before WriteHeader; WriteHeader before the body.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard envelope.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts validator field errors into one human-readable
// envelope, one plain-English clause per failing field.
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email_format":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "gte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must not be negative", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// WriteError maps a domain or storage error onto the HTTP status it deserves
// and writes the envelope:
//
//	validation failure   → 400
//	not found            → 404
//	duplicate key        → 409
//	ambiguous name match → 409
//	missing reference    → 422
//	anything else        → 500
func WriteError(w http.ResponseWriter, err error) {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		_ = WriteJSON(w, http.StatusBadRequest, ValidationError(ve.Fields))
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey), errors.Is(err, storage.ErrAmbiguousMatch):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrForeignKey):
		status = http.StatusUnprocessableEntity
	}
	_ = WriteJSON(w, status, GeneralError(err))
}
