package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	rdb := InitRedisRateLimiter(addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NotNil(t, rdb)
	t.Cleanup(func() {
		UseRedis(nil)
		rdb.Close()
	})

	// small window, and a unique one so reruns don't share a key
	w := time.Duration(2+time.Now().UnixNano()%50) * time.Second
	limit := 2

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", RedisRateLimit(limit, w), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < limit; i++ {
		res, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	}

	res, err := http.Get(srv.URL + "/test")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}
