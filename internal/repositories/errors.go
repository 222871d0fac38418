package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	// ErrConditionFailed means a conditional update matched no row: the
	// record changed state since it was read.
	ErrConditionFailed = errors.New("update precondition failed")
)
