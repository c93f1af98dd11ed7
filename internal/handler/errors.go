// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codespark-server/internal/service"
	"codespark-server/pkg/response"
)

// respondError 将服务层错误映射为 HTTP 响应
// 未知错误统一返回 500，原始错误记录到 gin 上下文供日志中间件输出
func respondError(c *gin.Context, err error) {
	var gwErr *service.GatewayError
	if errors.As(err, &gwErr) {
		var fields gin.H
		if gwErr.SessionID != 0 {
			fields = gin.H{"session_id": gwErr.SessionID}
		}
		_ = c.Error(err)
		response.ErrorWithFields(c, http.StatusInternalServerError, response.CodeGatewayError, gwErr.Error(), fields)
		return
	}

	switch {
	// 参数错误
	case errors.Is(err, service.ErrRegisterFieldsRequired),
		errors.Is(err, service.ErrLoginFieldsRequired),
		errors.Is(err, service.ErrPromptRequired),
		errors.Is(err, service.ErrDescriptionRequired),
		errors.Is(err, service.ErrFileIDRequired),
		errors.Is(err, service.ErrUserIDRequired),
		errors.Is(err, service.ErrInvalidSessionType),
		errors.Is(err, service.ErrInvalidAnalysisType),
		errors.Is(err, service.ErrProjectNameRequired),
		errors.Is(err, service.ErrFilePathRequired),
		errors.Is(err, service.ErrProjectIDRequired),
		errors.Is(err, service.ErrPasswordWrong):
		response.BadRequest(c, err.Error())

	// 资源不存在
	case errors.Is(err, service.ErrUserNotFound):
		response.UserNotFound(c)
	case errors.Is(err, service.ErrProjectNotFound):
		response.ProjectNotFound(c)
	case errors.Is(err, service.ErrFileNotFound):
		response.FileNotFound(c)
	case errors.Is(err, service.ErrSessionNotFound):
		response.SessionNotFound(c)

	// 认证失败
	case errors.Is(err, service.ErrInvalidCredentials):
		response.InvalidCredentials(c)
	case errors.Is(err, service.ErrExpiredToken):
		response.ErrorWithCode(c, http.StatusUnauthorized, response.CodeTokenExpired, err.Error())
	case errors.Is(err, service.ErrTokenRevoked):
		response.ErrorWithCode(c, http.StatusUnauthorized, response.CodeTokenRevoked, err.Error())
	case errors.Is(err, service.ErrMissingToken),
		errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, err.Error())

	// 权限与冲突
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, response.CodeUserExists, err.Error())
	case errors.Is(err, service.ErrSessionAlreadyFinal):
		response.Conflict(c, response.CodeSessionFinalized, err.Error())

	default:
		_ = c.Error(err)
		response.InternalError(c, "Internal server error")
	}
}

// bindJSON 解析请求体，失败时直接返回 400
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
