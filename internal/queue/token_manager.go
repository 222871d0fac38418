// Package queue bounds the number of verification calls in flight. Each
// submission holds one token for the duration of its attempts.
package queue

import (
	"context"
	"errors"
)

type TokenManager interface {
	AcquireToken(ctx context.Context) error

	ReleaseToken(ctx context.Context) error

	InitializeTokens(ctx context.Context, count int) error
}

var ErrNoTokenAvailable = errors.New("no verification slot available")
