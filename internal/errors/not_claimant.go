package errors

import "net/http"

var ErrNotClaimant = &Exception{
	Message:    "task is claimed by another collector",
	StatusCode: http.StatusForbidden,
}
