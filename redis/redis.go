package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const (
	retryAttempts  = 3
	retryInterval  = 2 * time.Second
	connectTimeout = 10 * time.Second
)

// Connect parses url and pings the server until it answers or attempts run out
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}

	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		client := goredis.NewClient(opt)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "redis not ready")
		case <-time.After(retryInterval):
		}
	}

	return nil, errors.Wrap(lastErr, "redis not ready")
}
