package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsBurst(t *testing.T) {
	bucket := NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, bucket.Allow(), "第%d个突发请求应被允许", i+1)
	}
	assert.False(t, bucket.Allow())
}

func TestTokenBucketRefills(t *testing.T) {
	bucket := NewTokenBucket(100, 1)

	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	// 按速率补充令牌后恢复
	time.Sleep(20 * time.Millisecond)
	assert.True(t, bucket.Allow())
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ping", RateLimiter(RateLimiterConfig{Rate: 1, Burst: 2, LimitType: "path"}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	status := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, status())
	assert.Equal(t, http.StatusOK, status())
	// 超过突发额度后返回429
	assert.Equal(t, http.StatusTooManyRequests, status())
}
