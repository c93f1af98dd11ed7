// Package server 组装各层依赖并注册路由
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"codespark-server/internal/cache"
	"codespark-server/internal/config"
	"codespark-server/internal/handler"
	"codespark-server/internal/llm"
	"codespark-server/internal/middleware"
	"codespark-server/internal/repository"
	"codespark-server/internal/service"
	"codespark-server/internal/websocket"
	"codespark-server/pkg/jwt"
)

// Deps 服务运行所需的外部依赖
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Blacklist cache.TokenBlacklist
	Gateway   llm.Gateway
	Logger    zerolog.Logger

	// JWT 为空时根据配置创建，测试中可注入固定时钟
	JWT *jwt.JWTService
}

// Server 组装好的 HTTP 服务
type Server struct {
	Engine *gin.Engine
	Hub    *websocket.Hub // 调用方负责在单独的 goroutine 中运行 Hub.Run
}

// New 初始化 Repository、Service、Handler 并注册路由
func New(deps Deps) *Server {
	cfg := deps.Config
	log := deps.Logger

	handler.RegisterValidators()

	jwtService := deps.JWT
	if jwtService == nil {
		jwtService = jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.Issuer)
	}
	blacklist := deps.Blacklist
	if blacklist == nil {
		blacklist = cache.NoopBlacklist{}
	}

	// 初始化 Repository 层
	userRepo := repository.NewUserRepository(deps.DB)
	projectRepo := repository.NewProjectRepository(deps.DB)
	fileRepo := repository.NewCodeFileRepository(deps.DB)
	sessionRepo := repository.NewAISessionRepository(deps.DB)
	analysisRepo := repository.NewCodeAnalysisRepository(deps.DB)

	// 初始化 Service 层
	authService := service.NewAuthService(userRepo, blacklist, jwtService, cfg.Auth)
	userService := service.NewUserService(userRepo)
	projectService := service.NewProjectService(projectRepo, fileRepo, analysisRepo)
	aiService := service.NewAIService(sessionRepo, analysisRepo, userRepo, projectRepo, fileRepo, deps.Gateway, cfg.AI, log)

	// 初始化 WebSocket Hub，会话事件通过 Hub 推送
	hub := websocket.NewHub(log)
	aiService.SetNotifier(hub)

	// 初始化 Handler 层
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService)
	aiHandler := handler.NewAIHandler(aiService)
	var redisPinger handler.Pinger
	if cfg.Redis.Enabled {
		redisPinger = blacklist
	}
	healthHandler := handler.NewHealthHandler(deps.DB, redisPinger)
	wsHandler := websocket.NewHandler(hub, authService, cfg.Server.CORS)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.Server.CORS

	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecureMiddleware(middleware.SecureOptions(!cfg.IsRelease())))
	router.Use(middleware.CORSMiddleware(corsConfig))

	requireAuth := middleware.AuthMiddleware(authService)
	optionalAuth := middleware.OptionalAuthMiddleware(authService)

	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/sessions", wsHandler.HandleSessionsWS)

	api := router.Group("/api")

	// 认证相关
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify", authHandler.Verify)
		auth.POST("/logout", requireAuth, authHandler.Logout)
	}

	// 用户相关（需要登录）
	users := api.Group("/users", requireAuth)
	{
		users.GET("/me", userHandler.GetProfile)
		users.PUT("/me", userHandler.UpdateProfile)
		users.PUT("/me/password", userHandler.ChangePassword)
		users.GET("/:id", userHandler.GetUser)
	}

	// 项目相关（需要登录）
	projects := api.Group("/projects", requireAuth)
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", projectHandler.CreateProject)
		projects.POST("/files", projectHandler.CreateFile)
		projects.GET("/:id", projectHandler.GetProject)
		projects.PUT("/:id", projectHandler.UpdateProject)
		projects.GET("/:id/files", projectHandler.ListFiles)
		projects.GET("/:id/tree", projectHandler.GetTree)
	}

	// 文件相关（需要登录）
	files := api.Group("/files", requireAuth)
	{
		files.GET("/:id", projectHandler.GetFile)
		files.PUT("/:id", projectHandler.UpdateFile)
		files.DELETE("/:id", projectHandler.DeleteFile)
		files.GET("/:id/analyses", projectHandler.ListFileAnalyses)
	}

	// AI 相关（登录可选，未登录时使用请求体中的 user_id）
	ai := api.Group("/ai", optionalAuth)
	{
		ai.POST("/chat", aiHandler.Chat)
		ai.POST("/code-generation", aiHandler.GenerateCode)
		ai.POST("/code-analysis", aiHandler.AnalyzeCode)
		ai.GET("/sessions", aiHandler.ListSessions)
		ai.GET("/sessions/:id", aiHandler.GetSession)
	}

	return &Server{Engine: router, Hub: hub}
}
