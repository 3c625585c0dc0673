// Package proxy forwards gateway requests to the backing services.
package proxy

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/common/middleware"
)

var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder relays requests with a shared client.
type Forwarder struct {
	client *http.Client
	logger *zap.Logger
}

func NewForwarder(timeout time.Duration, logger *zap.Logger) *Forwarder {
	return &Forwarder{client: &http.Client{Timeout: timeout}, logger: logger}
}

// To returns a handler that forwards to targetBase followed by the *any wildcard and the
// original query string.
func (f *Forwarder) To(targetBase string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := targetBase + c.Param("any")
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		log := logger.For(c.Request.Context(), f.logger)
		log.Debug("Forwarding request", zap.String("method", c.Request.Method), zap.String("url", targetURL))

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
		if err != nil {
			log.Error("Failed to create forward request", zap.Error(err))
			apperrors.Fail(c, "failed to perform operation.", apperrors.New(apperrors.KindInternal, "failed to create request", err))
			return
		}
		for k, v := range c.Request.Header {
			if !hopByHop[strings.ToLower(k)] {
				req.Header[k] = v
			}
		}
		if id := logger.RequestID(c.Request.Context()); id != "" {
			req.Header.Set(middleware.RequestIDHeader, id)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			log.Error("Failed to forward request", zap.String("url", targetURL), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"message":   "failed to perform operation.",
				"errorMsg":  "service unreachable",
				"errorKind": apperrors.KindInternal,
			})
			return
		}
		defer resp.Body.Close()

		// CORS is answered by the gateway itself.
		for k, v := range resp.Header {
			lk := strings.ToLower(k)
			if hopByHop[lk] || strings.HasPrefix(lk, "access-control-") {
				continue
			}
			c.Writer.Header()[k] = append([]string(nil), v...)
		}
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			log.Error("Failed to copy response body", zap.Error(err))
		}
	}
}
