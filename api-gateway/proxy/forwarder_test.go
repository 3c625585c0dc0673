package proxy_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanktran/aws-microservices/api-gateway/proxy"
	"github.com/hanktran/aws-microservices/api-gateway/routes"
	"github.com/hanktran/aws-microservices/services/common/middleware"
)

type seen struct {
	method, path, query, body, requestID string
}

func backend(t *testing.T, got *seen, status int, respBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = seen{r.Method, r.URL.Path, r.URL.RawQuery, string(b), r.Header.Get(middleware.RequestIDHeader)}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func gateway(basketURL, orderURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	routes.RegisterAllRoutes(r, proxy.NewForwarder(2*time.Second, zap.NewNop()), routes.Upstreams{
		Basket: basketURL,
		Order:  orderURL,
	}, zap.NewNop())
	return r
}

func TestForward_CheckoutToBasket(t *testing.T) {
	var got seen
	basket := backend(t, &got, http.StatusAccepted, `{"message":"successfully finished operation."}`)
	r := gateway(basket.URL, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/basket/checkout", strings.NewReader(`{"userName":"swn"}`))
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, seen{http.MethodPost, "/basket/checkout", "", `{"userName":"swn"}`, "req-1"}, got)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"message":"successfully finished operation."}`, w.Body.String())
}

func TestForward_OrderQueryString(t *testing.T) {
	var got seen
	order := backend(t, &got, http.StatusOK, `{"body":[]}`)
	r := gateway("http://127.0.0.1:1", order.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/order/swn?orderDate=2026-10-19T10:00:00.000Z", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/order/swn", got.path)
	assert.Equal(t, "orderDate=2026-10-19T10:00:00.000Z", got.query)
	assert.NotEmpty(t, got.requestID)
}

func TestForward_OrderIsReadOnly(t *testing.T) {
	var got seen
	order := backend(t, &got, http.StatusOK, `{}`)
	r := gateway("http://127.0.0.1:1", order.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/order", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, got.method)
}

func TestForward_UpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()
	r := gateway(url, url)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/basket", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"errorMsg":"service unreachable"`)
}

func TestForward_KeepsRepeatedResponseHeaders(t *testing.T) {
	basket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "a=1; Path=/")
		w.Header().Add("Set-Cookie", "b=2; Expires=Wed, 21 Oct 2026 07:28:00 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(basket.Close)
	r := gateway(basket.URL, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/basket/swn", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a=1; Path=/", "b=2; Expires=Wed, 21 Oct 2026 07:28:00 GMT"}, w.Header().Values("Set-Cookie"))
}
