// Package response 提供统一的 HTTP 响应格式
// 成功时直接返回业务数据，失败时返回 {"error": ..., "code": ...}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 错误响应结构
// error: 提示信息
// code: 业务状态码
type ErrorBody struct {
	Error string `json:"error"` // 提示信息
	Code  int    `json:"code"`  // 业务状态码
}

// 业务状态码定义
const (
	CodeSuccess          = 0    // 成功
	CodeBadRequest       = 1000 // 请求参数错误
	CodeUnauthorized     = 1001 // 未授权
	CodeForbidden        = 1002 // 禁止访问
	CodeNotFound         = 1003 // 资源不存在
	CodeInternalError    = 1004 // 服务器内部错误
	CodeUserExists       = 1101 // 用户已存在
	CodeUserNotFound     = 1102 // 用户不存在
	CodeInvalidLogin     = 1103 // 用户名或密码错误
	CodeTokenExpired     = 1104 // Token 已过期
	CodeTokenRevoked     = 1105 // Token 已吊销
	CodeProjectNotFound  = 1201 // 项目不存在
	CodeFileNotFound     = 1202 // 文件不存在
	CodeSessionNotFound  = 1301 // AI 会话不存在
	CodeGatewayError     = 1302 // 模型服务调用失败
	CodeSessionFinalized = 1303 // 会话已结束
)

// Success 返回 200 成功响应
// 参数:
//   - c: Gin 上下文
//   - data: 响应数据，可以是任意类型
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Message 返回只带提示信息的成功响应
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Created 返回 201 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// ErrorWithCode 返回错误响应（带业务状态码）
// 参数:
//   - c: Gin 上下文
//   - httpCode: HTTP 状态码
//   - bizCode: 业务状态码
//   - message: 错误信息
func ErrorWithCode(c *gin.Context, httpCode, bizCode int, message string) {
	c.JSON(httpCode, ErrorBody{
		Error: message,
		Code:  bizCode,
	})
}

// ErrorWithFields 返回带附加字段的错误响应
// 模型调用失败时需要把 session_id 一并返回
func ErrorWithFields(c *gin.Context, httpCode, bizCode int, message string, fields gin.H) {
	body := gin.H{
		"error": message,
		"code":  bizCode,
	}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(httpCode, body)
}

// AbortWithCode 中止请求链并返回错误，供中间件使用
func AbortWithCode(c *gin.Context, httpCode, bizCode int, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorBody{
		Error: message,
		Code:  bizCode,
	})
}

// BadRequest 返回 400 错误（请求参数错误）
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized 返回 401 错误（未授权）
func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden 返回 403 错误（禁止访问）
func Forbidden(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusForbidden, CodeForbidden, message)
}

// Conflict 返回 409 错误
func Conflict(c *gin.Context, bizCode int, message string) {
	ErrorWithCode(c, http.StatusConflict, bizCode, message)
}

// InternalError 返回 500 错误（服务器内部错误）
func InternalError(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusInternalServerError, CodeInternalError, message)
}

// UserNotFound 返回用户不存在错误
func UserNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeUserNotFound, "User not found")
}

// InvalidCredentials 返回登录失败错误
func InvalidCredentials(c *gin.Context) {
	ErrorWithCode(c, http.StatusUnauthorized, CodeInvalidLogin, "Invalid credentials")
}

// ProjectNotFound 返回项目不存在错误
func ProjectNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeProjectNotFound, "Project not found")
}

// FileNotFound 返回文件不存在错误
func FileNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeFileNotFound, "File not found")
}

// SessionNotFound 返回 AI 会话不存在错误
func SessionNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeSessionNotFound, "Session not found")
}
