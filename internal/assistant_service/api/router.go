package api

import (
	"StudyMate/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
// limiter 为 nil 时不启用限流。
func SetupRouter(h *Handler, limiter ratelimiter.RateLimiter) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()
	r.Use(TraceMiddleware())

	r.GET("/healthz", h.Health)

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	apiV1.Use(RateLimitMiddleware(limiter))
	{
		assistant := apiV1.Group("/assistant")
		{
			assistant.POST("/chat", h.Chat)
			assistant.POST("/analyze-scholarship", h.AnalyzeScholarship)
			assistant.GET("/countries/:country", h.CountryInfo)
			assistant.DELETE("/sessions/:id", h.DeleteSession)
		}

		admin := apiV1.Group("/admin")
		{
			admin.GET("/collections/:name/stats", h.CollectionStats)
			admin.DELETE("/collections/:name", h.ClearCollection)
		}
	}

	return r
}
