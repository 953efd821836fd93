package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/manifest"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/resilience"
	"github.com/kbukum/dataflow/scheduler"
	"github.com/kbukum/dataflow/server"
	"github.com/kbukum/dataflow/server/middleware"
)

// ServiceName labels the spans and metrics recorded by the handlers.
const ServiceName = "sdfsched"

// HeaderCache reports "hit" or "miss" when a cache is configured.
const HeaderCache = "X-Cache"

// Schedules computes schedules for graph documents posted over HTTP.
//
// The request body is a graph document. The same body may carry
// schedule-options, code-generation-options and c-code-generation-options
// sections; they are applied over the handler's base configuration.
type Schedules struct {
	base    scheduler.Config
	timeout time.Duration
	metrics *observability.Metrics
	slots   *resilience.Bulkhead
	cache   Cache
	log     *logger.Logger
}

// Cache stores schedule views by request digest. A nil view from Load is a
// miss.
type Cache interface {
	Load(ctx context.Context, digest string) (*manifest.ScheduleView, error)
	Save(ctx context.Context, digest string, view *manifest.ScheduleView) error
}

// Option configures a Schedules handler.
type Option func(*Schedules)

// WithBaseConfig sets the configuration request documents are applied over.
func WithBaseConfig(cfg scheduler.Config) Option {
	return func(h *Schedules) { h.base = cfg }
}

// WithTimeout bounds each computation. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Schedules) { h.timeout = d }
}

// WithMetrics records request and schedule metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Schedules) { h.metrics = m }
}

// WithBulkhead runs computations in the slots of b. Requests finding no free
// slot are answered 503.
func WithBulkhead(b *resilience.Bulkhead) Option {
	return func(h *Schedules) { h.slots = b }
}

// WithCache serves repeated requests from c. Cache failures are logged and
// the schedule is computed as if the cache were absent.
func WithCache(c Cache) Option {
	return func(h *Schedules) { h.cache = c }
}

// NewSchedules creates the schedule handlers.
func NewSchedules(log *logger.Logger, opts ...Option) *Schedules {
	h := &Schedules{
		base: scheduler.DefaultConfig(),
		log:  log.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the handlers under /v1.
func (h *Schedules) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/schedules", h.Create)
	v1.POST("/graphs/legalize", h.Legalize)
}

// Create computes the schedule of the posted graph.
//
// Query parameters: format=json|yaml selects the response encoding and
// verify=true replays the schedule and reports FIFO peak occupancy.
func (h *Schedules) Create(c *gin.Context) {
	ctx, op := observability.StartOperation(c.Request.Context(), observability.SpanScheduleCreate,
		ServiceName, c.GetHeader(middleware.HeaderRequestID), h.metrics)

	view, format, err := h.create(ctx, c)
	op.End(ctx, err)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if format == manifest.FormatYAML {
		data, err := manifest.EncodeView(view, format)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/yaml", data)
		return
	}
	server.RespondOK(c, view)
}

func (h *Schedules) create(ctx context.Context, c *gin.Context) (*manifest.ScheduleView, manifest.Format, error) {
	format, err := manifest.ParseFormat(c.DefaultQuery("format", string(manifest.FormatJSON)))
	if err != nil {
		return nil, "", err
	}
	verify, err := boolQuery(c, "verify")
	if err != nil {
		return nil, "", err
	}

	body, err := readBody(c)
	if err != nil {
		return nil, "", err
	}
	g, cfg, err := h.decode(body)
	if err != nil {
		return nil, "", err
	}

	var (
		digest string
		log    = h.log.WithContext(ctx)
	)
	if h.cache != nil {
		digest = requestDigest(body, cfg, verify)
		log = log.WithFields(logger.Fields("digest", digest[:12]))
		view, err := h.loadCached(ctx, digest)
		if err != nil {
			log.Warn("schedule cache load failed", logger.ErrorFields("cache.load", err))
		}
		if view != nil {
			c.Header(HeaderCache, "hit")
			return view, format, nil
		}
		c.Header(HeaderCache, "miss")
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	s, err := h.compile(ctx, g, cfg)
	if err != nil {
		return nil, "", err
	}

	view := manifest.DescribeSchedule(s)
	if verify {
		peaks, err := s.Replay()
		if err != nil {
			return nil, "", err
		}
		view.Peaks = peaks
	}
	if h.cache != nil {
		if err := h.cache.Save(ctx, digest, view); err != nil {
			log.Warn("schedule cache save failed", logger.ErrorFields("cache.save", err))
		}
	}
	log.Debug("schedule served", logger.Fields(
		"schedule_id", view.ID,
		"steps", view.Length,
		"memory", view.Memory,
	))
	return view, format, nil
}

// loadCached looks digest up and records the outcome as a cache.load
// operation.
func (h *Schedules) loadCached(ctx context.Context, digest string) (*manifest.ScheduleView, error) {
	start := time.Now()
	view, err := h.cache.Load(ctx, digest)
	if h.metrics != nil {
		status := "miss"
		switch {
		case err != nil:
			status = "error"
		case view != nil:
			status = "hit"
		}
		h.metrics.RecordOperation(ctx, ServiceName, "cache.load", status, time.Since(start))
	}
	return view, err
}

// Legalize inserts the duplicate nodes the posted graph needs and returns
// the resulting graph document.
func (h *Schedules) Legalize(c *gin.Context) {
	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanGraphLegalize)
	defer span.End()

	body, err := readBody(c)
	var (
		g   *graph.Graph
		cfg scheduler.Config
	)
	if err == nil {
		g, cfg, err = h.decode(body)
	}
	if err == nil {
		err = scheduler.Legalize(g, cfg)
	}
	if err != nil {
		observability.SetSpanError(ctx, err)
		server.RespondWithError(c, err)
		return
	}
	observability.SetSpanAttribute(ctx, "graph.nodes", g.NodeCount())
	server.RespondOK(c, manifest.Describe(g))
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge).
				WithDetail("limit", tooLarge.Limit)
		}
		return nil, errors.InvalidInput("body", err.Error())
	}
	if len(body) == 0 {
		return nil, errors.MissingField("body")
	}
	return body, nil
}

// decode reads both the graph and the options from one document.
func (h *Schedules) decode(body []byte) (*graph.Graph, scheduler.Config, error) {
	doc, err := manifest.DecodeDocument(body)
	if err != nil {
		return nil, h.base, err
	}
	g, err := manifest.Build(doc)
	if err != nil {
		return nil, h.base, err
	}
	cfg, err := manifest.DecodeConfigOver(body, h.base)
	if err != nil {
		return nil, h.base, err
	}
	return g, cfg, nil
}

// compile runs the compiler, in a bulkhead slot when one is configured.
func (h *Schedules) compile(ctx context.Context, g *graph.Graph, cfg scheduler.Config) (*scheduler.Schedule, error) {
	run := func() (*scheduler.Schedule, error) {
		return h.compiler(cfg).Compile(ctx, g)
	}
	var (
		s   *scheduler.Schedule
		err error
	)
	if h.slots != nil {
		s, err = resilience.Do(h.slots, ctx, run)
	} else {
		s, err = run()
	}

	switch {
	case err == nil:
		return s, nil
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.Timeout("schedule").WithCause(err)
	case stderrors.Is(err, resilience.ErrBulkheadFull), stderrors.Is(err, resilience.ErrBulkheadTimeout):
		stats := h.slots.Stats()
		h.log.WithContext(ctx).Warn("schedule rejected", logger.Fields(
			"in_use", stats.InUse,
			"rejected", stats.Rejected,
		))
		return nil, errors.ServiceUnavailable(h.slots.Name()).
			WithDetails(map[string]any{
				"capacity": stats.Capacity,
				"in_use":   stats.InUse,
			}).
			WithCause(err)
	default:
		return nil, err
	}
}

func (h *Schedules) compiler(cfg scheduler.Config) scheduler.Compiler {
	c := scheduler.NewCompiler("http", cfg)
	c = scheduler.WithLogging(c, h.log)
	if h.metrics != nil {
		c = scheduler.WithMetrics(c, h.metrics)
	}
	return scheduler.WithTracing(c, observability.SpanCompilePrefix)
}

// requestDigest identifies everything a schedule view depends on.
func requestDigest(body []byte, cfg scheduler.Config, verify bool) string {
	sum := sha256.New()
	sum.Write(body)
	opts, _ := json.Marshal(cfg)
	sum.Write(opts)
	fmt.Fprintf(sum, "verify=%t", verify)
	return hex.EncodeToString(sum.Sum(nil))
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.InvalidFormat(key, "boolean")
	}
	return b, nil
}
