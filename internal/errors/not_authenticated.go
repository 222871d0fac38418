package errors

import "net/http"

var ErrNotAuthenticated = &Exception{
	Message:    "not authenticated",
	StatusCode: http.StatusUnauthorized,
}
