// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yoockh/jobboard/internal/repositories/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenSQLite returns a migrated in-memory database private to the test.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:jobboard_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := postgres.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// FakeCache is an in-memory cache.Cache with TTL support.
type FakeCache struct {
	mu    sync.Mutex
	items map[string]fakeItem
	Now   func() time.Time
}

type fakeItem struct {
	val     []byte
	expires time.Time
}

func NewFakeCache() *FakeCache {
	return &FakeCache{items: map[string]fakeItem{}, Now: time.Now}
}

func (c *FakeCache) live(key string) (fakeItem, bool) {
	it, ok := c.items[key]
	if !ok {
		return it, false
	}
	if !it.expires.IsZero() && !c.Now().Before(it.expires) {
		delete(c.items, key)
		return it, false
	}
	return it, true
}

func (c *FakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.live(key)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(it.val, dst)
}

func (c *FakeCache) TakeJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.live(key)
	if !ok {
		return false, nil
	}
	delete(c.items, key)
	return true, json.Unmarshal(it.val, dst)
}

func (c *FakeCache) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	it := fakeItem{val: b}
	if ttl > 0 {
		it.expires = c.Now().Add(ttl)
	}
	c.items[key] = it
	return nil
}

func (c *FakeCache) SetIfAbsent(_ context.Context, key string, val any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(key); ok {
		return false, nil
	}
	it := fakeItem{val: b}
	if ttl > 0 {
		it.expires = c.Now().Add(ttl)
	}
	c.items[key] = it
	return true, nil
}

func (c *FakeCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key)
	return ok, nil
}

func (c *FakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// Keys returns the live keys, for assertions.
func (c *FakeCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for k := range c.items {
		if _, ok := c.live(k); ok {
			out = append(out, k)
		}
	}
	return out
}
