package errors

// StatusClientClosedRequest is the non-standard status used when the caller
// went away before the response was written.
const StatusClientClosedRequest = 499

var ErrRequestCanceled = &Exception{
	Message:    "request canceled",
	StatusCode: StatusClientClosedRequest,
}
