package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/entitykit/entityauth/pkg/auth"
)

// ErrorResponse is the error envelope every endpoint returns. Kind lets
// clients rebuild a typed error on their side.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps an error onto the envelope, deriving the status code from
// its kind.
func WriteError(w http.ResponseWriter, err error) {
	kind := auth.KindOf(err)
	WriteKindError(w, StatusForKind(kind), kind, auth.DisplayMessage(err))
}

// WriteKindError writes an error envelope with an explicit status and kind.
func WriteKindError(w http.ResponseWriter, status int, kind auth.ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Kind: string(kind)})
}

// StatusForKind maps an error kind to its HTTP status code.
func StatusForKind(kind auth.ErrorKind) int {
	switch kind {
	case auth.KindValidation:
		return http.StatusBadRequest
	case auth.KindAuthentication:
		return http.StatusUnauthorized
	case auth.KindAuthorization:
		return http.StatusForbidden
	case auth.KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// KindForStatus maps an HTTP status code back to an error kind. Client-side
// inverse of StatusForKind for responses lacking a kind field.
func KindForStatus(status int) auth.ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return auth.KindValidation
	case http.StatusUnauthorized:
		return auth.KindAuthentication
	case http.StatusForbidden:
		return auth.KindAuthorization
	default:
		return auth.KindTransport
	}
}

// WriteValidationError writes a validation error response (400 Bad Request)
func WriteValidationError(w http.ResponseWriter, message string) {
	WriteKindError(w, http.StatusBadRequest, auth.KindValidation, message)
}

// WriteUnauthorized writes an authentication error response (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteKindError(w, http.StatusUnauthorized, auth.KindAuthentication, message)
}

// WriteForbidden writes an authorization error response (403)
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteKindError(w, http.StatusForbidden, auth.KindAuthorization, message)
}

// WriteNotFoundError writes a not found error response (404 Not Found)
func WriteNotFoundError(w http.ResponseWriter, message string) {
	WriteKindError(w, http.StatusNotFound, auth.KindValidation, message)
}

// WriteConflict writes a conflict error response (409)
func WriteConflict(w http.ResponseWriter, message string) {
	WriteKindError(w, http.StatusConflict, auth.KindValidation, message)
}

// WriteTooManyRequests writes a rate limit error response (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteKindError(w, http.StatusTooManyRequests, auth.KindTransport, message)
}

// WriteInternalError writes an internal server error response (500)
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteKindError(w, http.StatusInternalServerError, auth.KindTransport, message)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
