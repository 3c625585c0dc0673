package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanktran/aws-microservices/services/common/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_PropagatesHeaderToContext(t *testing.T) {
	r := gin.New()
	var seen string
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		seen = logger.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "given-id", seen)
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, p := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewRateLimiter(PerMinute(1), 2, time.Minute)))
	r.POST("/checkout", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(PerMinute(10), 1, time.Minute)
	rl.GetLimiter("1.2.3.4")
	rl.evict(time.Now().Add(2 * time.Minute))
	assert.Empty(t, rl.ips)
}

type recordingRecorder struct {
	mu     sync.Mutex
	counts []string
	done   chan struct{}
}

func (r *recordingRecorder) RecordCount(_ context.Context, name string, dims map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, name+":"+dims["Status"]+":"+dims["Path"])
	if len(r.counts) == 2 {
		close(r.done)
	}
	return nil
}

func (r *recordingRecorder) RecordValue(context.Context, string, float64, map[string]string) error {
	return nil
}

func (r *recordingRecorder) RecordLatency(context.Context, string, time.Duration, map[string]string) error {
	return nil
}

func TestMetrics_RecordsErrorClass(t *testing.T) {
	rec := &recordingRecorder{done: make(chan struct{})}
	r := gin.New()
	r.Use(Metrics(rec, "basket"))
	r.GET("/basket/:userName", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/basket/swn", nil))

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("metrics not recorded")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{
		"HTTPRequests:4xx:/basket/:userName",
		"HTTP4xxErrors:4xx:/basket/:userName",
	}, rec.counts)
}
