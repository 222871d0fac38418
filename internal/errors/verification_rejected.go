package errors

import "net/http"

var ErrVerificationRejected = &Exception{
	Message:    "collected waste does not match the report",
	StatusCode: http.StatusUnprocessableEntity,
}
