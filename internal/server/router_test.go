package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"codespark-server/internal/config"
	"codespark-server/internal/llm"
	"codespark-server/internal/model"
	"codespark-server/internal/testutil"
	"codespark-server/pkg/response"
)

type scriptedGateway struct {
	err error
}

func (g *scriptedGateway) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &llm.Completion{Text: "answer to: " + req.UserPrompt, TokensUsed: 10}, nil
}

type testApp struct {
	t       *testing.T
	db      *gorm.DB
	engine  *gin.Engine
	gateway *scriptedGateway
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "router-test-secret", Expire: time.Hour, Issuer: "codespark"},
		AI:     config.AIConfig{DefaultModel: "gpt-3.5-turbo", CodeModel: "gpt-3.5-turbo", AnalysisModel: "gpt-3.5-turbo"},
	}
	db := testutil.NewDB(t)
	gw := &scriptedGateway{}

	srv := New(Deps{Config: cfg, DB: db, Gateway: gw, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Hub.Run(ctx)
	t.Cleanup(cancel)

	return &testApp{t: t, db: db, engine: srv.Engine, gateway: gw}
}

func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testApp) register(username, email string) (string, int64) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": username, "email": email, "password": "secret"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(a.t, w)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), int64(user["id"].(float64))
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	token, _ := app.register("alice", "a@x.com")

	// 重复注册
	w := app.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "email": "new@x.com", "password": "p"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(response.CodeUserExists), decode(t, w)["code"])
	assert.Equal(t, int64(1), testutil.Count(t, app.db, &model.User{}))

	// 缺字段
	w = app.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 登录
	w = app.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Login successful", body["message"])
	user := body["user"].(map[string]interface{})
	assert.NotContains(t, user, "password_hash")

	w = app.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	// 校验，带不带 Bearer 前缀都可以
	w = app.do(http.MethodPost, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["valid"])

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	w = app.do(http.MethodPost, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])

	w = app.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatFlow(t *testing.T) {
	app := newTestApp(t)
	token, userID := app.register("alice", "a@x.com")

	// 登录用户以 Token 为准
	w := app.do(http.MethodPost, "/api/ai/chat", token, gin.H{"prompt": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "answer to: hi", body["response"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, float64(10), body["tokens_used"])
	sessionID := int64(body["session_id"].(float64))

	// 未登录时使用请求体中的 user_id
	w = app.do(http.MethodPost, "/api/ai/chat", "", gin.H{"prompt": "again", "user_id": userID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(http.MethodGet, "/api/ai/sessions/"+strconv.FormatInt(sessionID, 10), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", decode(t, w)["prompt"])

	w = app.do(http.MethodGet, "/api/ai/sessions?user_id="+strconv.FormatInt(userID, 10), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, "again", sessions[0]["prompt"])

	w = app.do(http.MethodGet, "/api/ai/sessions?user_id=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/ai/sessions/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(response.CodeSessionNotFound), decode(t, w)["code"])
}

func TestChatValidation(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register("alice", "a@x.com")

	w := app.do(http.MethodPost, "/api/ai/chat", token, gin.H{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Prompt is required", decode(t, w)["error"])

	w = app.do(http.MethodPost, "/api/ai/chat", token, gin.H{"prompt": "hi", "session_type": "gossip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPost, "/api/ai/chat", "", gin.H{"prompt": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPost, "/api/ai/chat", "", gin.H{"prompt": "hi", "user_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Zero(t, testutil.Count(t, app.db, &model.AISession{}))
}

func TestChatGatewayFailure(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register("alice", "a@x.com")
	app.gateway.err = errors.New("model overloaded")

	w := app.do(http.MethodPost, "/api/ai/chat", token, gin.H{"prompt": "hi"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "model overloaded", body["error"])
	assert.Equal(t, float64(response.CodeGatewayError), body["code"])
	require.Contains(t, body, "session_id")

	var session model.AISession
	require.NoError(t, app.db.First(&session, int64(body["session_id"].(float64))).Error)
	assert.Equal(t, model.AISessionStatusFailed, session.Status)
}

func TestProjectAndAnalysisFlow(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register("alice", "a@x.com")
	otherToken, _ := app.register("bob", "b@x.com")

	w := app.do(http.MethodPost, "/api/projects", token, gin.H{"name": "demo", "language": "go"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	projectID := int64(decode(t, w)["id"].(float64))

	w = app.do(http.MethodPost, "/api/projects/files", token, gin.H{"project_id": projectID, "file_path": "cmd/main.go", "language": "go", "content": "package main"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileID := int64(decode(t, w)["id"].(float64))
	filePath := "/api/files/" + strconv.FormatInt(fileID, 10)

	w = app.do(http.MethodGet, filePath, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/projects/"+strconv.FormatInt(projectID, 10)+"/tree", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decode(t, w)
	assert.Equal(t, "demo", tree["name"])

	w = app.do(http.MethodPost, "/api/ai/code-analysis", "", gin.H{"file_id": fileID, "analysis_type": "security"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cmd/main.go", decode(t, w)["file_path"])

	w = app.do(http.MethodPost, "/api/ai/code-analysis", "", gin.H{"file_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodPost, "/api/ai/code-analysis", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, filePath+"/analyses", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var analyses []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analyses))
	require.Len(t, analyses, 1)
	assert.Equal(t, "security", analyses[0]["analysis_type"])

	w = app.do(http.MethodDelete, filePath, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, filePath, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])

	w = app.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "codespark_http_request_duration_seconds")
}
