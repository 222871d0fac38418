package errors

import "net/http"

var ErrAlreadySettled = &Exception{
	Message:    "task is already verified and rewarded",
	StatusCode: http.StatusConflict,
}
