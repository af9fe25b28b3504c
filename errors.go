package apirouter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Gobd/apirouter/validate"
)

// HTTPError carries a status code out of a handler. The router writes it as
// a JSON detail envelope with that status; any other handler error becomes
// a 500.
type HTTPError struct {
	Status  int    `json:"-"`
	Message string `json:"detail"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Error builds an *HTTPError.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// ValidationError is one entry of the 422 envelope. Loc names the input
// location and field path, e.g. ["query", "name"] or ["body", "authors",
// "0", "age"].
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type,omitempty"`
}

// HTTPValidationError is the default 422 response body.
type HTTPValidationError struct {
	Detail []ValidationError `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders a handler error: *HTTPError as declared, anything else
// as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var he *HTTPError
	if errors.As(err, &he) {
		writeJSON(w, he.Status, he)
		return
	}
	writeJSON(w, http.StatusInternalServerError, &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
	})
}

// validationEnvelope converts a binding or validation error into the 422
// envelope. keyToIn attributes top-level field keys to their input location.
func validationEnvelope(err error, keyToIn map[string]string) *HTTPValidationError {
	var be *bindError
	if errors.As(err, &be) {
		loc := []string{be.in}
		if be.name != be.in {
			loc = append(loc, be.name)
		}
		return &HTTPValidationError{Detail: []ValidationError{{
			Loc: loc,
			Msg: be.err.Error(),
		}}}
	}

	var errs validate.Errors
	if errors.As(err, &errs) {
		env := &HTTPValidationError{}
		flattenErrors(nil, errs, keyToIn, env)
		return env
	}

	return &HTTPValidationError{Detail: []ValidationError{{
		Loc: []string{"body"},
		Msg: err.Error(),
	}}}
}

// flattenErrors walks nested validate.Errors maps into flat loc paths.
// Top-level keys resolve to an input location; deeper keys extend the path.
func flattenErrors(loc []string, errs validate.Errors, keyToIn map[string]string, env *HTTPValidationError) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		entryLoc := append(append([]string{}, loc...), k)
		if len(loc) == 0 {
			if in, ok := keyToIn[k]; ok {
				if in == "body" {
					entryLoc = []string{"body"}
				} else {
					entryLoc = []string{in, k}
				}
			} else {
				entryLoc = []string{"body", k}
			}
		}

		var nested validate.Errors
		if errors.As(errs[k], &nested) {
			flattenErrors(entryLoc, nested, keyToIn, env)
			continue
		}

		ve := ValidationError{Loc: entryLoc, Msg: errs[k].Error()}
		var oe validation.Error
		if errors.As(errs[k], &oe) {
			ve.Type = oe.Code()
		}
		env.Detail = append(env.Detail, ve)
	}
}
