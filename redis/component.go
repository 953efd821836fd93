package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/dataflow/component"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
)

// Component owns the Client for the lifecycle registry.
type Component struct {
	client *Client
	cfg    Config
	log    *logger.Logger
}

var (
	_ component.Component          = (*Component)(nil)
	_ observability.HealthChecker = (*Component)(nil)
)

// NewComponent creates a Redis component. The client is created on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client returns the client, or nil before Start.
func (c *Component) Client() *Client {
	return c.client
}

// Name implements component.Component.
func (c *Component) Name() string { return "redis" }

// Start creates the client and verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start: %w", err)
	}
	c.client = client
	c.log.Info("redis connected", logger.Fields("addr", c.cfg.Addr, "db", c.cfg.DB))
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(_ context.Context) error {
	return c.client.Close()
}

// CheckHealth reports the cache degraded rather than down when Redis is
// unreachable: schedules are still computed without it.
func (c *Component) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: "cache", Status: observability.HealthStatusUp}
	if c.client == nil {
		h.Status = observability.HealthStatusDegraded
		h.Message = "redis not started"
		return h
	}
	if err := c.client.Ping(ctx); err != nil {
		h.Status = observability.HealthStatusDegraded
		h.Message = err.Error()
		return h
	}
	h.Details = map[string]string{"addr": c.cfg.Addr}
	return h
}
