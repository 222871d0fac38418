package errors

import "net/http"

var ErrUnknownUser = &Exception{
	Message:    "user not found in the system",
	StatusCode: http.StatusForbidden,
}
