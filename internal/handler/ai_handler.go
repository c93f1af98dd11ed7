package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"codespark-server/internal/middleware"
	"codespark-server/internal/repository"
	"codespark-server/internal/service"
	"codespark-server/pkg/response"
)

// AIHandler AI 请求处理器
// 登录用户以 Token 中的用户为准，未登录时使用请求体中的 user_id
type AIHandler struct {
	aiService *service.AIService
}

// NewAIHandler 创建 AIHandler 实例
func NewAIHandler(aiService *service.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// Chat 通用对话
// @Router /api/ai/chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	if userID := middleware.GetUserID(c); userID != 0 {
		req.UserID = userID
	}

	result, err := h.aiService.Chat(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// GenerateCode 代码生成
// @Router /api/ai/code-generation [post]
func (h *AIHandler) GenerateCode(c *gin.Context) {
	var req service.CodeGenerationRequest
	if !bindJSON(c, &req) {
		return
	}
	if userID := middleware.GetUserID(c); userID != 0 {
		req.UserID = userID
	}

	result, err := h.aiService.GenerateCode(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// AnalyzeCode 代码分析
// @Router /api/ai/code-analysis [post]
func (h *AIHandler) AnalyzeCode(c *gin.Context) {
	var req service.CodeAnalysisRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.aiService.AnalyzeCode(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// ListSessions 查询会话历史
// 支持 user_id、project_id 查询参数，最多返回 50 条
// @Router /api/ai/sessions [get]
func (h *AIHandler) ListSessions(c *gin.Context) {
	var filter repository.SessionFilter
	var ok bool

	if filter.UserID, ok = queryID(c, "user_id"); !ok {
		return
	}
	if filter.ProjectID, ok = queryID(c, "project_id"); !ok {
		return
	}

	sessions, err := h.aiService.ListSessions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, sessions)
}

// GetSession 获取单个会话
// @Router /api/ai/sessions/{id} [get]
func (h *AIHandler) GetSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session, err := h.aiService.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, session)
}

// queryID 解析可选的数字查询参数，不存在时返回 nil
func queryID(c *gin.Context, key string) (*int64, bool) {
	raw, exists := c.GetQuery(key)
	if !exists || raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid "+key)
		return nil, false
	}
	return &id, true
}
