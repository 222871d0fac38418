package errors

import "net/http"

var ErrMissingEvidence = &Exception{
	Message:    "verification image is required",
	StatusCode: http.StatusBadRequest,
}
