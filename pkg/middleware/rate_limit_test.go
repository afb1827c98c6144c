package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/versebook/versebook/pkg/metrics"
)

// limited requests must carry distinct RemoteAddrs per test, the limiter
// store is package state keyed by client IP.
func limitedRequest(path, addr string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, limitedRequest("/ok", "10.1.0.1:5000"))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, limitedRequest("/ok", "10.1.0.1:5001"))

	require.Equal(t, http.StatusOK, w1.Code)
	require.Equal(t, http.StatusOK, w2.Code)

	after := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	require.Equal(t, 2.0, after-before)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	rejectedBefore := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, limitedRequest("/limited", "10.1.0.2:5000"))
	require.Equal(t, http.StatusOK, w1.Code)

	// bucket drained, immediate retry bounces
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, limitedRequest("/limited", "10.1.0.2:5001"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))-rejectedBefore)

	// at 0.5 rps a token is back after two seconds
	time.Sleep(2100 * time.Millisecond)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, limitedRequest("/limited", "10.1.0.2:5002"))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_UsesSubjectWhenPresent(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("claims", map[string]interface{}{"sub": "limited-user"})
		c.Next()
	})
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// same subject from different addresses shares one bucket
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, limitedRequest("/u", "10.1.0.3:5000"))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, limitedRequest("/u", "10.1.0.4:5000"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
}
