package errors

import "net/http"

var ErrInvalidPage = &Exception{
	Message:    "page and page_size must be positive",
	StatusCode: http.StatusBadRequest,
}
