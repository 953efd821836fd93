package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/manifest"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/resilience"
	"github.com/kbukum/dataflow/scheduler"
	"github.com/kbukum/dataflow/server"
)

const chainDoc = `
graph:
  nodes:
    - node: src
      outputs:
        - {output: o, samples: 5, type: float32_t}
    - node: a
      inputs:
        - {input: i, samples: 5, type: float32_t}
      outputs:
        - {output: o, samples: 5, type: float32_t}
    - node: b
      inputs:
        - {input: i, samples: 5, type: float32_t}
      outputs:
        - {output: o, samples: 5, type: float32_t}
    - node: sink
      inputs:
        - {input: i, samples: 5, type: float32_t}
  edges:
    - {src: {node: src, output: o}, dst: {node: a, input: i}}
    - {src: {node: a, output: o}, dst: {node: b, input: i}}
    - {src: {node: b, output: o}, dst: {node: sink, input: i}}
`

const fanOutDoc = `
graph:
  nodes:
    - node: src
      outputs:
        - {output: o, samples: 4, type: float32_t}
    - node: left
      inputs:
        - {input: i, samples: 4, type: float32_t}
    - node: right
      inputs:
        - {input: i, samples: 2, type: float32_t}
  edges:
    - {src: {node: src, output: o}, dst: {node: left, input: i}}
    - {src: {node: src, output: o}, dst: {node: right, input: i}}
`

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()

	cfg := server.Config{MaxBodySize: "64KB"}
	cfg.ApplyDefaults()
	srv := server.New(cfg, log)
	srv.RegisterDefaultEndpoints(ServiceName, SchedulerCheck{Config: scheduler.DefaultConfig(), Timeout: time.Second})
	NewSchedules(log, opts...).Register(srv.GinEngine())
	return srv.Handler()
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/yaml")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateSchedule(t *testing.T) {
	h := newTestServer(t)

	rr := post(t, h, "/v1/schedules", chainDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := rr.Body.String()
	assert.Equal(t, "greedy", gjson.Get(body, "data.policy").String())
	assert.Equal(t, int64(4), gjson.Get(body, "data.length").Int())
	assert.Equal(t, int64(60), gjson.Get(body, "data.memory").Int())
	assert.Equal(t, `["src","a","b","sink"]`, gjson.Get(body, "data.sequence").Raw)
	assert.Equal(t, int64(3), gjson.Get(body, "data.buffers.#").Int())
	assert.False(t, gjson.Get(body, "data.peaks").Exists())
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestCreateSchedule_OptionsInBody(t *testing.T) {
	h := newTestServer(t)

	doc := chainDoc + `
schedule-options:
  memory-optimization: true
code-generation-options:
  fifo-prefix: p_
`
	rr := post(t, h, "/v1/schedules", doc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := rr.Body.String()
	assert.Equal(t, int64(40), gjson.Get(body, "data.memory").Int())
	assert.Equal(t, "p_buf0", gjson.Get(body, "data.buffers.0.name").String())
	assert.True(t, gjson.Get(body, "data.config.memory_optimization").Bool())
}

func TestCreateSchedule_BaseConfig(t *testing.T) {
	base := scheduler.DefaultConfig()
	base.MemoryOptimization = true
	h := newTestServer(t, WithBaseConfig(base))

	rr := post(t, h, "/v1/schedules", chainDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(40), gjson.Get(rr.Body.String(), "data.memory").Int())
}

func TestCreateSchedule_Verify(t *testing.T) {
	h := newTestServer(t)

	rr := post(t, h, "/v1/schedules?verify=true", chainDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "[5,5,5]", gjson.Get(rr.Body.String(), "data.peaks").Raw)
}

func TestCreateSchedule_YAML(t *testing.T) {
	h := newTestServer(t)

	rr := post(t, h, "/v1/schedules?format=yaml", chainDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "policy: greedy")
}

func TestCreateSchedule_WithMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	h := newTestServer(t, WithMetrics(metrics), WithTimeout(5*time.Second))

	rr := post(t, h, "/v1/schedules", chainDoc)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestCreateSchedule_Errors(t *testing.T) {
	h := newTestServer(t)

	unconnected := strings.Replace(chainDoc,
		"    - {src: {node: b, output: o}, dst: {node: sink, input: i}}\n", "", 1)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"empty body", "/v1/schedules", "", http.StatusBadRequest, "MISSING_FIELD"},
		{"malformed", "/v1/schedules", "graph: [", http.StatusBadRequest, "INVALID_FORMAT"},
		{"no nodes", "/v1/schedules", "graph:\n  nodes: []\n", http.StatusBadRequest, "INVALID_INPUT"},
		{"unconnected port", "/v1/schedules", unconnected, http.StatusUnprocessableEntity, "UNCONNECTED_IO"},
		{"bad format", "/v1/schedules?format=xml", chainDoc, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad verify", "/v1/schedules?verify=maybe", chainDoc, http.StatusBadRequest, "INVALID_FORMAT"},
		{"too large", "/v1/schedules", chainDoc + "# " + strings.Repeat("x", 70*1024) + "\n", http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := post(t, h, tc.path, tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			assert.Equal(t, tc.code, gjson.Get(rr.Body.String(), "error.code").String())
		})
	}
}

func TestCreateSchedule_Bulkhead(t *testing.T) {
	slots := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "scheduler", MaxConcurrent: 1})
	h := newTestServer(t, WithBulkhead(slots))

	rr := post(t, h, "/v1/schedules", chainDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	release, err := slots.Acquire(context.Background())
	require.NoError(t, err)
	rr = post(t, h, "/v1/schedules", chainDoc)
	release()

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, "SERVICE_UNAVAILABLE", gjson.Get(body, "error.code").String())
	assert.True(t, gjson.Get(body, "error.retryable").Bool())
	assert.Equal(t, int64(1), gjson.Get(body, "error.details.capacity").Int())
	assert.Equal(t, int64(1), slots.Stats().Rejected)
}

type memCache struct {
	views map[string]*manifest.ScheduleView
	err   error
}

func (m *memCache) Load(_ context.Context, digest string) (*manifest.ScheduleView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.views[digest], nil
}

func (m *memCache) Save(_ context.Context, digest string, view *manifest.ScheduleView) error {
	if m.err != nil {
		return m.err
	}
	m.views[digest] = view
	return nil
}

func TestCreateSchedule_Cache(t *testing.T) {
	cache := &memCache{views: map[string]*manifest.ScheduleView{}}
	h := newTestServer(t, WithCache(cache))

	first := post(t, h, "/v1/schedules", chainDoc)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "miss", first.Header().Get(HeaderCache))

	second := post(t, h, "/v1/schedules", chainDoc)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	assert.Equal(t, "hit", second.Header().Get(HeaderCache))
	assert.Equal(t,
		gjson.Get(first.Body.String(), "data.id").String(),
		gjson.Get(second.Body.String(), "data.id").String())

	verified := post(t, h, "/v1/schedules?verify=true", chainDoc)
	require.Equal(t, http.StatusOK, verified.Code)
	assert.Equal(t, "miss", verified.Header().Get(HeaderCache))
	assert.Len(t, cache.views, 2)
}

func TestCreateSchedule_CacheFailureIsNotFatal(t *testing.T) {
	h := newTestServer(t, WithCache(&memCache{err: stderrors.New("connection refused")}))

	rr := post(t, h, "/v1/schedules", chainDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(60), gjson.Get(rr.Body.String(), "data.memory").Int())
}

func TestRequestDigest(t *testing.T) {
	cfg := scheduler.DefaultConfig()
	base := requestDigest([]byte(chainDoc), cfg, false)

	assert.Equal(t, base, requestDigest([]byte(chainDoc), cfg, false))
	assert.NotEqual(t, base, requestDigest([]byte(chainDoc), cfg, true))
	cfg.MemoryOptimization = true
	assert.NotEqual(t, base, requestDigest([]byte(chainDoc), cfg, false))
}

func TestLegalize(t *testing.T) {
	h := newTestServer(t)

	rr := post(t, h, "/v1/graphs/legalize", fanOutDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := rr.Body.String()
	assert.Equal(t, int64(4), gjson.Get(body, "data.graph.nodes.#").Int())
	assert.Equal(t, "duplicate", gjson.Get(body, `data.graph.nodes.#(node=="dup0").role`).String())
	assert.Equal(t, int64(3), gjson.Get(body, "data.graph.edges.#").Int())
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, "up", gjson.Get(body, "status").String())
	assert.Equal(t, "scheduler", gjson.Get(body, "components.0.name").String())
	assert.Equal(t, "greedy", gjson.Get(body, "components.0.details.policy").String())
}

func TestSchedulerCheck_Slots(t *testing.T) {
	slots := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 1})
	check := SchedulerCheck{Config: scheduler.DefaultConfig(), Slots: slots}

	h := check.CheckHealth(context.Background())
	assert.Equal(t, observability.HealthStatusUp, h.Status)
	assert.Equal(t, "0/1", h.Details["slots"])

	release, err := slots.Acquire(context.Background())
	require.NoError(t, err)
	defer release()
	h = check.CheckHealth(context.Background())
	assert.Equal(t, observability.HealthStatusDegraded, h.Status)
	assert.Equal(t, "1/1", h.Details["slots"])
}

func TestSchedulerCheck_Down(t *testing.T) {
	cfg := scheduler.DefaultConfig()
	cfg.MemStrategy = "unknown"

	h := SchedulerCheck{Config: cfg}.CheckHealth(context.Background())
	assert.Equal(t, observability.HealthStatusDown, h.Status)
	assert.NotEmpty(t, h.Message)
}
