package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	// TakeJSON reads and deletes key atomically; only one caller sees a hit.
	TakeJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	// SetIfAbsent stores val only when key is missing and reports whether it did.
	SetIfAbsent(ctx context.Context, key string, val any, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}
