package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// release deletes the key only if it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by SET NX PX.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (Lease, error) {
	token := uuid.NewString()
	if wait <= 0 {
		wait = time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = wait

	op := func() error {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to acquire lock %s: %w", key, err))
		}
		if !ok {
			return ErrNotAcquired
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		log.Warn().Str("key", key).Dur("wait", wait).Err(err).Msg("lock acquisition failed")
		return nil, err
	}
	return &redisLease{client: r.client, key: key, token: token}, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
	once   sync.Once
}

func (l *redisLease) Key() string { return l.key }

func (l *redisLease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		// The caller's ctx may already be cancelled on an error path.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		err = release.Run(rctx, l.client, []string{l.key}, l.token).Err()
		if err != nil {
			log.Error().Str("key", l.key).Err(err).Msg("lock release failed")
		}
	})
	return err
}
