// Package middleware 提供 HTTP 请求的中间件
// 包括 JWT 认证、CORS 跨域、日志记录、安全响应头和指标采集
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"codespark-server/internal/service"
	"codespark-server/pkg/jwt"
	"codespark-server/pkg/response"
)

// 上下文键
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextToken    = "token"
	ContextTokenExp = "token_exp"
)

// TokenParser 校验 Token 并返回其中的用户信息
// *service.AuthService 实现了该接口
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*jwt.UserClaims, error)
}

// AuthMiddleware 创建 JWT 认证中间件
// 验证请求头中的 Bearer Token，并将用户信息存入上下文
// 参数:
//   - parser: Token 校验器，负责签名、过期时间和黑名单检查
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从请求头获取 Authorization 字段
		// 格式: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortWithCode(c, http.StatusUnauthorized, response.CodeUnauthorized, service.ErrMissingToken.Error())
			return
		}

		// 2. 解析 Bearer Token
		tokenString, ok := BearerToken(authHeader)
		if !ok {
			response.AbortWithCode(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid authorization header")
			return
		}

		// 3. 校验 Token
		claims, err := parser.ParseToken(c.Request.Context(), tokenString)
		if err != nil {
			abortWithTokenError(c, err)
			return
		}

		// 4. 将用户信息存入上下文
		setClaims(c, tokenString, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware 创建可选的 JWT 认证中间件
// 与 AuthMiddleware 类似，但不强制要求认证
// 如果提供了有效 Token，会将用户信息存入上下文
// 如果没有提供或 Token 无效，仍然继续处理请求
func OptionalAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := parser.ParseToken(c.Request.Context(), tokenString)
		if err != nil {
			c.Next()
			return
		}

		setClaims(c, tokenString, claims)
		c.Next()
	}
}

// BearerToken 从 Authorization 头中取出 Token
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func setClaims(c *gin.Context, token string, claims *jwt.UserClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextToken, token) // 存储原始 Token，用于登出时计算哈希
	if claims.ExpiresAt != nil {
		c.Set(ContextTokenExp, claims.ExpiresAt.Time) // 用于登出时设置黑名单 TTL
	}
}

func abortWithTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExpiredToken):
		response.AbortWithCode(c, http.StatusUnauthorized, response.CodeTokenExpired, err.Error())
	case errors.Is(err, service.ErrTokenRevoked):
		response.AbortWithCode(c, http.StatusUnauthorized, response.CodeTokenRevoked, err.Error())
	default:
		response.AbortWithCode(c, http.StatusUnauthorized, response.CodeUnauthorized, service.ErrInvalidToken.Error())
	}
}

// GetUserID 从上下文获取用户 ID 的辅助函数
// 参数:
//   - c: Gin 上下文
//
// 返回:
//   - int64: 用户 ID，如果未认证返回 0
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

// GetToken 从上下文获取原始 Token 和过期时间
func GetToken(c *gin.Context) (string, time.Time, bool) {
	token := c.GetString(ContextToken)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, c.GetTime(ContextTokenExp), true
}
