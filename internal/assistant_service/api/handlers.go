package api

import (
	"net/http"

	"StudyMate/internal/assistant_service/service"

	"github.com/gin-gonic/gin"
)

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	assistant *service.Assistant
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(a *service.Assistant) *Handler {
	return &Handler{assistant: a}
}

// ChatRequest 定义了聊天请求的 JSON 结构。
type ChatRequest struct {
	Message        string                 `json:"message" binding:"required"`
	SessionID      string                 `json:"session_id"`
	UserBackground map[string]interface{} `json:"user_background"`
}

// Chat 处理一轮对话请求。
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	result, err := h.assistant.Chat(c.Request.Context(), req.SessionID, req.Message, req.UserBackground)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": req.SessionID,
		"result":     result,
	})
}

// AnalyzeScholarshipRequest 定义了奖学金匹配分析请求的 JSON 结构。
type AnalyzeScholarshipRequest struct {
	UserBackground   map[string]interface{} `json:"user_background" binding:"required"`
	ScholarshipQuery string                 `json:"scholarship_query"`
}

// AnalyzeScholarship 处理奖学金匹配分析请求。
func (h *Handler) AnalyzeScholarship(c *gin.Context) {
	var req AnalyzeScholarshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.assistant.AnalyzeScholarship(c.Request.Context(), req.UserBackground, req.ScholarshipQuery)
	c.JSON(http.StatusOK, result)
}

// CountryInfo 处理国家信息查询请求，info_type 通过查询参数传入。
func (h *Handler) CountryInfo(c *gin.Context) {
	country := c.Param("country")
	infoType := c.DefaultQuery("info_type", "general")

	result := h.assistant.CountryInfo(c.Request.Context(), country, infoType)
	c.JSON(http.StatusOK, result)
}

// DeleteSession 删除一个会话的聊天历史。
func (h *Handler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.assistant.DeleteSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "会话已删除"})
}

// CollectionStats 返回指定知识集合的文档统计。
func (h *Handler) CollectionStats(c *gin.Context) {
	stats, err := h.assistant.CollectionStats(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ClearCollection 清空指定的知识集合。
func (h *Handler) ClearCollection(c *gin.Context) {
	name := c.Param("name")
	if err := h.assistant.ClearCollection(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "集合已清空", "collection": name})
}

// Health 健康检查。
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
