package api

import (
	"errors"
)

// RequestError is any non-2xx answer. Message is the server text when the
// envelope carried one.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}
