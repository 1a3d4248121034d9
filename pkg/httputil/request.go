package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// ParseJSON decodes a JSON request body into dest, rejecting unknown fields.
func ParseJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes the body into dest, writing a validation error
// and returning false on failure.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteValidationError(w, err.Error())
		return false
	}
	return true
}

// PathString returns a mux path variable, writing a validation error and
// returning false when it is absent or empty.
func PathString(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	value := mux.Vars(r)[key]
	if value == "" {
		WriteValidationError(w, fmt.Sprintf("missing path parameter: %s", key))
		return "", false
	}
	return value, true
}

// RequireNonEmpty writes a validation error and returns false when value is
// empty.
func RequireNonEmpty(w http.ResponseWriter, value, fieldName string) bool {
	if value == "" {
		WriteValidationError(w, fmt.Sprintf("%s is required", fieldName))
		return false
	}
	return true
}
