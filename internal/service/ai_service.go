package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"codespark-server/internal/config"
	"codespark-server/internal/llm"
	"codespark-server/internal/metrics"
	"codespark-server/internal/model"
	"codespark-server/internal/repository"
	"codespark-server/pkg/util"
)

// 操作名，用于日志和指标
const (
	opChat     = "chat"
	opCodeGen  = "code_generation"
	opAnalysis = "code_analysis"
)

// SessionNotifier 会话通知接口
// 会话每次落库（pending、completed、failed）后调用，不影响请求结果
type SessionNotifier interface {
	NotifyAISession(session *model.AISession)
}

// AIService AI 会话编排
// 负责先写入 pending 会话、调用模型网关、再写入最终状态
type AIService struct {
	sessionRepo  *repository.AISessionRepository    // 会话数据访问层
	analysisRepo *repository.CodeAnalysisRepository // 分析结果数据访问层
	userRepo     *repository.UserRepository         // 用户数据访问层
	projectRepo  *repository.ProjectRepository      // 项目数据访问层
	fileRepo     *repository.CodeFileRepository     // 文件数据访问层
	gateway      llm.Gateway                        // 模型网关
	cfg          config.AIConfig                    // 模型配置
	notifier     SessionNotifier                    // 会话通知器
	log          zerolog.Logger
}

// NewAIService 创建 AIService 实例
func NewAIService(
	sessionRepo *repository.AISessionRepository,
	analysisRepo *repository.CodeAnalysisRepository,
	userRepo *repository.UserRepository,
	projectRepo *repository.ProjectRepository,
	fileRepo *repository.CodeFileRepository,
	gateway llm.Gateway,
	cfg config.AIConfig,
	log zerolog.Logger,
) *AIService {
	return &AIService{
		sessionRepo:  sessionRepo,
		analysisRepo: analysisRepo,
		userRepo:     userRepo,
		projectRepo:  projectRepo,
		fileRepo:     fileRepo,
		gateway:      gateway,
		cfg:          cfg,
		log:          log.With().Str("component", "ai").Logger(),
	}
}

// SetNotifier 设置通知器
func (s *AIService) SetNotifier(n SessionNotifier) {
	s.notifier = n
}

// ChatRequest 对话请求
type ChatRequest struct {
	UserID      int64  `json:"user_id"`                                       // 用户ID，登录时以 Token 为准
	ProjectID   *int64 `json:"project_id"`                                    // 关联项目，可选
	Prompt      string `json:"prompt"`                                        // 提示词
	SessionType string `json:"session_type" binding:"omitempty,session_type"` // 会话类型，默认 general
	Model       string `json:"model" binding:"max=100"`                       // 模型，默认 ai.default_model
}

// ChatResponse 对话响应
type ChatResponse struct {
	SessionID  int64  `json:"session_id"`
	Response   string `json:"response"`
	TokensUsed int    `json:"tokens_used"`
	Status     string `json:"status"`
}

// Chat 通用对话
// 参数:
//   - ctx: 上下文
//   - req: 对话请求
//
// 返回:
//   - *ChatResponse: 成功时返回模型回复
//   - error: 参数错误在写库之前返回；模型失败返回 *GatewayError
func (s *AIService) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	// 1. 参数校验，失败时不写任何记录
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrPromptRequired
	}
	if req.UserID == 0 {
		return nil, ErrUserIDRequired
	}
	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = model.SessionTypeGeneral
	}
	if !model.IsValidSessionType(sessionType) {
		return nil, ErrInvalidSessionType
	}
	modelName := req.Model
	if modelName == "" {
		modelName = s.cfg.DefaultModel
	}
	if err := s.ensureUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	session := &model.AISession{
		UserID:      req.UserID,
		ProjectID:   req.ProjectID,
		SessionType: sessionType,
		Prompt:      req.Prompt,
		ModelUsed:   modelName,
	}

	// 2. 项目上下文在 pending 会话写入之后构建，构建失败也记为 failed
	session, err := s.runSession(ctx, opChat, session, func(ctx context.Context) (llm.CompletionRequest, error) {
		projectContext, err := s.chatContext(ctx, req.ProjectID)
		if err != nil {
			return llm.CompletionRequest{}, err
		}
		return llm.CompletionRequest{
			Model:        modelName,
			SystemPrompt: chatSystemPrompt(projectContext),
			UserPrompt:   req.Prompt,
			MaxTokens:    chatMaxTokens,
			Temperature:  chatTemperature,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		SessionID:  session.ID,
		Response:   *session.Response,
		TokensUsed: session.TokensUsed,
		Status:     session.Status,
	}, nil
}

// CodeGenerationRequest 代码生成请求
type CodeGenerationRequest struct {
	UserID       int64   `json:"user_id"`                   // 用户ID，登录时以 Token 为准
	ProjectID    *int64  `json:"project_id"`                // 关联项目，可选
	Description  string  `json:"description"`               // 需求描述
	Language     string  `json:"language" binding:"max=50"` // 目标语言，默认 javascript
	ContextFiles []int64 `json:"context_files"`             // 作为上下文的文件ID
}

// CodeGenerationResponse 代码生成响应
type CodeGenerationResponse struct {
	SessionID     int64  `json:"session_id"`
	GeneratedCode string `json:"generated_code"`
	TokensUsed    int    `json:"tokens_used"`
	Status        string `json:"status"`
}

// GenerateCode 根据描述生成代码
// 会话中保存的 prompt 是拼好上下文文件之后的完整提示词
func (s *AIService) GenerateCode(ctx context.Context, req *CodeGenerationRequest) (*CodeGenerationResponse, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if req.UserID == 0 {
		return nil, ErrUserIDRequired
	}
	language := req.Language
	if language == "" {
		language = defaultCodeLanguage
	}
	if err := s.ensureUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	// 不存在的文件ID直接跳过
	files, err := s.fileRepo.GetByIDs(ctx, req.ContextFiles)
	if err != nil {
		return nil, fmt.Errorf("load context files: %w", err)
	}
	prompt := buildCodeGenPrompt(language, req.Description, files)

	session := &model.AISession{
		UserID:      req.UserID,
		ProjectID:   req.ProjectID,
		SessionType: model.SessionTypeCodeGeneration,
		Prompt:      prompt,
		ModelUsed:   s.cfg.CodeModel,
	}

	session, err = s.runSession(ctx, opCodeGen, session, func(context.Context) (llm.CompletionRequest, error) {
		return llm.CompletionRequest{
			Model:        s.cfg.CodeModel,
			SystemPrompt: codeGenSystemPrompt(language),
			UserPrompt:   prompt,
			MaxTokens:    codeGenMaxTokens,
			Temperature:  codeGenTemperature,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &CodeGenerationResponse{
		SessionID:     session.ID,
		GeneratedCode: *session.Response,
		TokensUsed:    session.TokensUsed,
		Status:        session.Status,
	}, nil
}

// CodeAnalysisRequest 代码分析请求
type CodeAnalysisRequest struct {
	ProjectID    *int64 `json:"project_id"`                                      // 默认取文件所属项目
	FileID       *int64 `json:"file_id"`                                         // 被分析的文件
	AnalysisType string `json:"analysis_type" binding:"omitempty,analysis_type"` // 分析类型，默认 general
}

// CodeAnalysisResponse 代码分析响应
type CodeAnalysisResponse struct {
	AnalysisID int64  `json:"analysis_id"`
	Analysis   string `json:"analysis"`
	FilePath   string `json:"file_path"`
}

// AnalyzeCode 分析代码文件
// 与 chat 不同，模型调用失败时不写入任何记录
func (s *AIService) AnalyzeCode(ctx context.Context, req *CodeAnalysisRequest) (*CodeAnalysisResponse, error) {
	if req.FileID == nil || *req.FileID == 0 {
		return nil, ErrFileIDRequired
	}
	analysisType := req.AnalysisType
	if analysisType == "" {
		analysisType = model.AnalysisTypeGeneral
	}
	if !model.IsValidAnalysisType(analysisType) {
		return nil, ErrInvalidAnalysisType
	}

	file, err := s.fileRepo.GetByID(ctx, *req.FileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}

	start := time.Now()
	completion, err := s.gateway.Complete(ctx, llm.CompletionRequest{
		Model:        s.cfg.AnalysisModel,
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   buildAnalysisPrompt(file, analysisType),
		MaxTokens:    analysisMaxTokens,
		Temperature:  analysisTemperature,
	})
	metrics.ObserveGateway(opAnalysis, time.Since(start))
	if err != nil {
		metrics.RecordAISession(opAnalysis, model.AISessionStatusFailed)
		s.log.Warn().Err(err).Int64("file_id", file.ID).Msg("code analysis failed")
		return nil, &GatewayError{Err: err}
	}
	metrics.RecordTokens(opAnalysis, s.cfg.AnalysisModel, completion.TokensUsed)

	projectID := file.ProjectID
	if req.ProjectID != nil && *req.ProjectID != 0 {
		projectID = *req.ProjectID
	}
	analysis := &model.CodeAnalysis{
		ProjectID:    projectID,
		FileID:       util.Int64Ptr(file.ID),
		AnalysisType: analysisType,
		Results:      completion.Text,
	}
	if err := s.analysisRepo.Create(context.WithoutCancel(ctx), analysis); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	metrics.RecordAISession(opAnalysis, model.AISessionStatusCompleted)

	return &CodeAnalysisResponse{
		AnalysisID: analysis.ID,
		Analysis:   completion.Text,
		FilePath:   file.FilePath,
	}, nil
}

// ListSessions 查询会话历史，最多 50 条，最新的在前
func (s *AIService) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]model.AISession, error) {
	return s.sessionRepo.List(ctx, filter)
}

// GetSession 获取单个会话
func (s *AIService) GetSession(ctx context.Context, id int64) (*model.AISession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// runSession 执行一次会话的完整生命周期
// 1. 写入 pending 会话
// 2. 构建请求并调用模型
// 3. 写入 completed 或 failed
// 最终状态使用脱离请求取消的 ctx 写入，客户端断开也不会留下 pending 记录
func (s *AIService) runSession(
	ctx context.Context,
	op string,
	session *model.AISession,
	build func(ctx context.Context) (llm.CompletionRequest, error),
) (*model.AISession, error) {
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.notify(session)

	var completion *llm.Completion
	req, err := build(ctx)
	if err == nil {
		start := time.Now()
		completion, err = s.gateway.Complete(ctx, req)
		metrics.ObserveGateway(op, time.Since(start))
	}

	if err != nil {
		session.Status = model.AISessionStatusFailed
		session.Response = util.StringPtr(err.Error())
	} else {
		session.Status = model.AISessionStatusCompleted
		session.Response = util.StringPtr(completion.Text)
		session.TokensUsed = completion.TokensUsed
		metrics.RecordTokens(op, session.ModelUsed, completion.TokensUsed)
	}

	if ferr := s.sessionRepo.Finish(context.WithoutCancel(ctx), session); ferr != nil {
		s.log.Error().Err(ferr).Int64("session_id", session.ID).Str("op", op).Msg("failed to finalize session")
		return nil, fmt.Errorf("finalize session %d: %w", session.ID, ferr)
	}
	metrics.RecordAISession(op, session.Status)
	s.notify(session)

	if err != nil {
		s.log.Warn().Err(err).Int64("session_id", session.ID).Str("op", op).Msg("model call failed")
		return nil, &GatewayError{SessionID: session.ID, Err: err}
	}
	return session, nil
}

// chatContext 查询项目和最近的文件，项目不存在时返回空上下文
func (s *AIService) chatContext(ctx context.Context, projectID *int64) (string, error) {
	if projectID == nil || *projectID == 0 {
		return "", nil
	}

	project, err := s.projectRepo.GetByID(ctx, *projectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return "", nil
	}

	files, err := s.fileRepo.ListRecentByProjectID(ctx, project.ID, contextFileLimit)
	if err != nil {
		return "", fmt.Errorf("load project files: %w", err)
	}
	return buildProjectContext(project, files), nil
}

func (s *AIService) ensureUser(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

func (s *AIService) notify(session *model.AISession) {
	if s.notifier == nil {
		return
	}
	snapshot := *session
	s.notifier.NotifyAISession(&snapshot)
}
