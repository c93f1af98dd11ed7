package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"

	"codespark-server/pkg/response"
)

// SecureOptions 安全响应头配置
// 开发模式下 secure 不做任何处理
func SecureOptions(isDevelopment bool) secure.Options {
	return secure.Options{
		IsDevelopment:         isDevelopment,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// SecureMiddleware 添加安全响应头
func SecureMiddleware(opts secure.Options) gin.HandlerFunc {
	s := secure.New(opts)
	return func(c *gin.Context) {
		if err := s.Process(c.Writer, c.Request); err != nil {
			response.AbortWithCode(c, http.StatusForbidden, response.CodeForbidden, "Request rejected")
			return
		}
		c.Next()
	}
}
