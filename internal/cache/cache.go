package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Cache stores encoded load reports. Invalidate drops every entry at once
// and starts a new generation. Set only lands when gen is still current,
// so a value computed before an Invalidate never becomes visible after it.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, gen int64, key string, val []byte) error
	Invalidate(ctx context.Context) error
}

// GetJSON decodes a cached value into dst, reporting whether it was present
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) (bool, error) {
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key for generation gen
func SetJSON(ctx context.Context, c Cache, gen int64, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.Set(ctx, gen, key, b)
}

// Memory is an in-process cache used when no redis address is configured
type Memory struct {
	mu  sync.Mutex
	ttl time.Duration
	gen int64
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	b   []byte
	exp time.Time
}

// NewMemory creates an in-process cache; ttl <= 0 keeps entries until invalidated
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, m: make(map[string]entry), now: time.Now}
}

func (c *Memory) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		delete(c.m, key)
		return nil, false, nil
	}
	return e.b, true, nil
}

func (c *Memory) Set(_ context.Context, gen int64, key string, val []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	e := entry{b: append([]byte(nil), val...)}
	if c.ttl > 0 {
		e.exp = c.now().Add(c.ttl)
	}
	c.m[key] = e
	return nil
}

func (c *Memory) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.m = make(map[string]entry)
	return nil
}
