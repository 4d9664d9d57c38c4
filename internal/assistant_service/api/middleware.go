package api

import (
	"net/http"

	"StudyMate/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader 是请求链路追踪 ID 的响应头名称。
const TraceIDHeader = "X-Trace-ID"

// TraceMiddleware 为每个请求注入一个 trace ID，客户端传入时沿用，
// 否则生成一个新的 UUID，并写回响应头。
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Set("traceID", traceID)
		c.Header(TraceIDHeader, traceID)
		c.Next()
	}
}

// RateLimitMiddleware 在限流器拒绝请求时直接返回 429。
// limiter 为 nil 时中间件退化为直通。
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁，请稍后再试"})
			c.Abort()
			return
		}
		c.Next()
	}
}
