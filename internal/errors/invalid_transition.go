package errors

import "net/http"

var ErrInvalidTransition = &Exception{
	Message:    "task is not in a state that allows this action",
	StatusCode: http.StatusConflict,
}
