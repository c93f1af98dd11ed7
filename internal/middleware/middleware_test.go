package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codespark-server/internal/service"
	"codespark-server/pkg/jwt"
	"codespark-server/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubParser map[string]error

func (p stubParser) ParseToken(_ context.Context, token string) (*jwt.UserClaims, error) {
	if err, ok := p[token]; ok && err != nil {
		return nil, err
	}
	return &jwt.UserClaims{
		UserID:   7,
		Username: "alice",
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, nil
}

func newAuthRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/me", mw, func(c *gin.Context) {
		_, exp, _ := GetToken(c)
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "has_exp": !exp.IsZero()})
	})
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	parser := stubParser{
		"expired": service.ErrExpiredToken,
		"revoked": service.ErrTokenRevoked,
		"bad":     service.ErrInvalidToken,
	}
	r := newAuthRouter(AuthMiddleware(parser))

	cases := []struct {
		name     string
		header   string
		status   int
		bizCode  int
		contains string
	}{
		{"valid", "Bearer good", http.StatusOK, 0, `"user_id":7`},
		{"missing", "", http.StatusUnauthorized, response.CodeUnauthorized, ""},
		{"malformed", "Token good", http.StatusUnauthorized, response.CodeUnauthorized, ""},
		{"expired", "Bearer expired", http.StatusUnauthorized, response.CodeTokenExpired, ""},
		{"revoked", "Bearer revoked", http.StatusUnauthorized, response.CodeTokenRevoked, ""},
		{"invalid", "Bearer bad", http.StatusUnauthorized, response.CodeUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), tc.contains)
				assert.Contains(t, w.Body.String(), `"has_exp":true`)
				return
			}
			body := decodeError(t, w)
			assert.Equal(t, tc.bizCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r := newAuthRouter(OptionalAuthMiddleware(stubParser{"bad": service.ErrInvalidToken}))

	for header, want := range map[string]string{
		"":           `"user_id":0`,
		"Bearer bad": `"user_id":0`,
		"bearer ok":  `"user_id":7`,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), want, header)
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("abc")
	assert.False(t, ok)
}

func TestCORSMiddleware(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"http://localhost:3000"}

	r := gin.New()
	r.Use(CORSMiddleware(cfg))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDAndSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecureMiddleware(SecureOptions(false)))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
}
