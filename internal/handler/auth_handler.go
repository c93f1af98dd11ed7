package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codespark-server/internal/middleware"
	"codespark-server/internal/service"
	"codespark-server/pkg/response"
)

// AuthHandler 认证请求处理器
// 处理用户注册、登录、Token 校验和登出
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
// @Summary 用户注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.RegisterRequest true "注册信息"
// @Success 201 {object} service.AuthResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, result)
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用用户名或邮箱登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "登录信息"
// @Success 200 {object} service.AuthResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// Verify 校验 Token
// Authorization 头可以带 "Bearer " 前缀，也可以只放 Token
// @Router /api/auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := middleware.BearerToken(header)
	if !ok {
		token = header
	}

	result, err := h.authService.Verify(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// Logout 用户登出
// @Summary 用户登出
// @Description 登出当前用户，将 Token 加入黑名单
// @Tags 认证
// @Security Bearer
// @Produce json
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// 从上下文获取 Token 信息（由认证中间件设置）
	token, expireAt, ok := middleware.GetToken(c)
	if !ok {
		response.ErrorWithCode(c, http.StatusUnauthorized, response.CodeUnauthorized, service.ErrMissingToken.Error())
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token, expireAt); err != nil {
		respondError(c, err)
		return
	}

	response.Message(c, "Logout successful")
}
