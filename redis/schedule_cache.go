package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbukum/dataflow/manifest"
)

// ClientSource yields the client to use; Component satisfies it, so a cache
// can be built before the component has connected.
type ClientSource interface {
	Client() *Client
}

// ScheduleCache stores schedule views as JSON under
// "<prefix>:schedule:<digest>".
type ScheduleCache struct {
	source ClientSource
	prefix string
	ttl    time.Duration
}

// NewScheduleCache creates a cache over source.
func NewScheduleCache(source ClientSource, prefix string, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{source: source, prefix: prefix, ttl: ttl}
}

func (s *ScheduleCache) key(digest string) string {
	if s.prefix == "" {
		return "schedule:" + digest
	}
	return s.prefix + ":schedule:" + digest
}

func (s *ScheduleCache) client() (*Client, error) {
	c := s.source.Client()
	if c == nil {
		return nil, fmt.Errorf("schedule cache: redis not started")
	}
	return c, nil
}

// Load returns the view stored under digest, or nil on a miss.
func (s *ScheduleCache) Load(ctx context.Context, digest string) (*manifest.ScheduleView, error) {
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	raw, found, err := c.Get(ctx, s.key(digest))
	if err != nil {
		return nil, fmt.Errorf("schedule cache load %s: %w", digest, err)
	}
	if !found {
		return nil, nil
	}
	var view manifest.ScheduleView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("schedule cache decode %s: %w", digest, err)
	}
	return &view, nil
}

// Save stores view under digest.
func (s *ScheduleCache) Save(ctx context.Context, digest string, view *manifest.ScheduleView) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("schedule cache encode %s: %w", digest, err)
	}
	if err := c.Set(ctx, s.key(digest), data, s.ttl); err != nil {
		return fmt.Errorf("schedule cache save %s: %w", digest, err)
	}
	return nil
}

// Delete drops the entry under digest.
func (s *ScheduleCache) Delete(ctx context.Context, digest string) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	return c.Del(ctx, s.key(digest))
}
