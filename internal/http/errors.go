package http

import (
	"errors"
	"net/http"
)

type httpError struct {
	code int
	err  error
}

// Error associates an HTTP status code with err.
func Error(err error, code int) error {
	return &httpError{
		code: code,
		err:  err,
	}
}

func (e *httpError) Error() string {
	return e.err.Error()
}

func (e *httpError) Unwrap() error {
	return e.err
}

// CodeFrom returns the HTTP status code associated with err by Error. If
// there is none, http.StatusInternalServerError is returned.
func CodeFrom(err error) int {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.code
	}
	return http.StatusInternalServerError
}

// WriteErrorJSON writes err to w as a JSON object with an "error" key, using
// the status code returned by CodeFrom.
func WriteErrorJSON(w http.ResponseWriter, err error) {
	WriteResponseJSON(
		w,
		CodeFrom(err),
		map[string]string{"error": err.Error()},
	)
}
