package queue

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

// RedisTokenManager keeps the tokens in a Redis list so every replica of the
// service draws from the same pool.
type RedisTokenManager struct {
	client   rueidis.Client
	key      string
	capacity int
}

func NewRedisTokenManager(client rueidis.Client, slotKey string, capacity int) *RedisTokenManager {
	return &RedisTokenManager{
		client:   client,
		key:      slotKey,
		capacity: capacity,
	}
}

func (r *RedisTokenManager) AcquireToken(ctx context.Context) error {
	cmd := r.client.B().Lpop().Key(r.key).Build()
	result := r.client.Do(ctx, cmd)

	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return ErrNoTokenAvailable
		}
		return fmt.Errorf("acquire verification slot: %w", err)
	}

	return nil
}

// ReleaseToken returns a token and trims the list back to capacity. A replica
// that reset the pool while others still held tokens would otherwise let the
// pool grow past its limit once those tokens come back.
func (r *RedisTokenManager) ReleaseToken(ctx context.Context) error {
	cmds := rueidis.Commands{
		r.client.B().Multi().Build(),
		r.client.B().Rpush().Key(r.key).Element("1").Build(),
		r.client.B().Ltrim().Key(r.key).Start(0).Stop(int64(r.capacity - 1)).Build(),
		r.client.B().Exec().Build(),
	}

	for _, resp := range r.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("release verification slot: %w", err)
		}
	}

	return nil
}

// InitializeTokens resets the pool to count tokens in one MULTI/EXEC so a
// concurrently starting replica never observes a half-filled list.
func (r *RedisTokenManager) InitializeTokens(ctx context.Context, count int) error {
	cmds := make(rueidis.Commands, 0, count+3)
	cmds = append(cmds, r.client.B().Multi().Build())
	cmds = append(cmds, r.client.B().Del().Key(r.key).Build())
	for i := 0; i < count; i++ {
		cmds = append(cmds, r.client.B().Rpush().Key(r.key).Element("1").Build())
	}
	cmds = append(cmds, r.client.B().Exec().Build())

	for _, resp := range r.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("initialize verification slots: %w", err)
		}
	}

	return nil
}
