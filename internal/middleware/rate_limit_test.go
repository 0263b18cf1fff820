package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func limitedRouter(limiter gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/generate", limiter, func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_InMemoryPerClient(t *testing.T) {
	r := limitedRouter(RateLimit(1, nil, zap.NewNop()))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1:1000"))
	var last int
	for range 4 {
		last = hit(r, "10.0.0.1:1000")
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2:1000"))
}

func TestRateLimit_RedisStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	// Два роутера с общим Redis ведут себя как два экземпляра сервиса
	first := limitedRouter(RateLimit(1, client, zap.NewNop()))
	second := limitedRouter(RateLimit(1, client, zap.NewNop()))

	assert.Equal(t, http.StatusOK, hit(first, "10.0.0.9:1000"))
	var last int
	for range 4 {
		last = hit(second, "10.0.0.9:1000")
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
