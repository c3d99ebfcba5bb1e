// Package apperr defines the error classes shared by services and
// handlers, and how each maps onto an HTTP status.
package apperr

import (
	"net/http"
	"strings"

	"github.com/zeebo/errs"
)

var (
	ErrUnauthorized = errs.Class("unauthorized")
	ErrForbidden    = errs.Class("forbidden")
	ErrNotFound     = errs.Class("not found")
	ErrValidation   = errs.Class("validation")
	ErrConflict     = errs.Class("conflict")
)

var statuses = []struct {
	class  *errs.Class
	status int
}{
	{&ErrUnauthorized, http.StatusUnauthorized},
	{&ErrForbidden, http.StatusForbidden},
	{&ErrNotFound, http.StatusNotFound},
	{&ErrValidation, http.StatusBadRequest},
	{&ErrConflict, http.StatusConflict},
}

// Status returns the HTTP status for err. Unclassified errors are 500.
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, s := range statuses {
		if s.class.Has(err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// Message is the client-facing text for err: the detail after the class
// prefix, so "not found: song not found" becomes "song not found".
// Internal errors never leak their text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, s := range statuses {
		if !s.class.Has(err) {
			continue
		}
		msg := err.Error()
		prefix := string(*s.class) + ": "
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
		return msg
	}
	return "Internal server error"
}
