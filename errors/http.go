package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
)

// HTTPStatus maps domain errors to transport status codes.
// Anything unrecognized is a server fault.
func HTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrValidation), stderrors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON renders err as a structured error response. Client errors keep
// their message; internal faults are masked so nothing leaks to the caller.
func WriteJSON(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
