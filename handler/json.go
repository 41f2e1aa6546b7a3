package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON encodes v as the response body, 200 unless overridden.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err as an ErrorBody. Errors other than HTTPError become a
// generic 500 so internal details stay in the logs.
func JSONError(err error, opts ...JSONOption) Response {
	httpErr := asHTTPError(err)
	r := &jsonResponse{
		status: httpErr.Code,
		body: ErrorBody{Error: ErrorDetail{
			Code:    httpErr.Key,
			Message: clientMessage(httpErr),
		}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func asHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return ErrInternalServerError
}

// clientMessage only ever returns text set deliberately through WithMessage.
func clientMessage(e HTTPError) string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

type failure struct {
	err error
}

func (f failure) Render(http.ResponseWriter, *http.Request) error { return f.err }

// Fail hands err to the route's ErrorHandler, so it is logged before it is rendered.
func Fail(err error) Response {
	return failure{err: err}
}
