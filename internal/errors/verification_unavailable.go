package errors

import "net/http"

var ErrVerificationUnavailable = &Exception{
	Message:    "verification is unavailable, try again later",
	StatusCode: http.StatusServiceUnavailable,
}
