package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"codespark-server/internal/cache"
	"codespark-server/internal/config"
	"codespark-server/internal/metrics"
	"codespark-server/internal/model"
	"codespark-server/internal/repository"
	"codespark-server/pkg/jwt"
	"codespark-server/pkg/util"
)

// AuthService 认证服务
// 处理用户注册、登录、Token 校验和登出
type AuthService struct {
	userRepo   *repository.UserRepository // 用户数据访问层
	blacklist  cache.TokenBlacklist       // Token 黑名单
	jwtService *jwt.JWTService            // JWT 服务
	cfg        config.AuthConfig          // 认证行为配置
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	userRepo *repository.UserRepository,
	blacklist cache.TokenBlacklist,
	jwtService *jwt.JWTService,
	cfg config.AuthConfig,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtService: jwtService,
		cfg:        cfg,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"max=50"` // 用户名
	Email    string `json:"email" binding:"max=100"`   // 邮箱
	Password string `json:"password"`                  // 密码
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	Message string      `json:"message"` // 提示信息
	User    *model.User `json:"user"`    // 用户信息
	Token   string      `json:"token"`   // 访问令牌
}

// Register 用户注册
// 参数:
//   - ctx: 上下文
//   - req: 注册请求
//
// 返回:
//   - *AuthResponse: 注册成功返回用户信息和 Token
//   - error: 字段缺失返回 ErrRegisterFieldsRequired，用户名或邮箱已存在返回 ErrUserExists
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, ErrRegisterFieldsRequired
	}

	// 1. 用户名和邮箱任一被占用都算冲突
	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.RecordAuthAttempt("register", false)
		return nil, ErrUserExists
	}

	// 2. 对密码进行哈希
	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	// 3. 创建用户，并发注册时由唯一索引兜底
	user := &model.User{
		Username:     username,
		Email:        &email,
		PasswordHash: passwordHash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordAuthAttempt("register", false)
			return nil, ErrUserExists
		}
		return nil, err
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthAttempt("register", true)
	return &AuthResponse{
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	}, nil
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"` // 用户名或邮箱
	Password string `json:"password"` // 密码
}

// Login 用户登录
// auth.skip_password_check 开启时不校验密码
// 参数:
//   - ctx: 上下文
//   - req: 登录请求
//
// 返回:
//   - *AuthResponse: 登录成功返回 Token 和用户信息
//   - error: 用户不存在或密码错误统一返回 ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	login := strings.TrimSpace(req.Username)
	if login == "" || req.Password == "" {
		return nil, ErrLoginFieldsRequired
	}

	// 1. 根据用户名或邮箱查找用户
	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		metrics.RecordAuthAttempt("login", false)
		return nil, ErrInvalidCredentials
	}

	// 2. 验证密码
	if !s.cfg.SkipPasswordCheck && !util.CheckPassword(req.Password, user.PasswordHash) {
		metrics.RecordAuthAttempt("login", false)
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token
	token, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthAttempt("login", true)
	return &AuthResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	}, nil
}

// VerifyResponse Token 校验响应
type VerifyResponse struct {
	Valid bool        `json:"valid"`
	User  *model.User `json:"user"`
}

// ParseToken 校验签名、过期时间和黑名单
// 不查询数据库，供中间件使用
func (s *AuthService) ParseToken(ctx context.Context, token string) (*jwt.UserClaims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if s.blacklist.IsTokenBlacklisted(ctx, util.HashToken(token)) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Verify 校验 Token 并返回对应用户
// 用户已不存在时视为无效 Token
func (s *AuthService) Verify(ctx context.Context, token string) (*VerifyResponse, error) {
	claims, err := s.ParseToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	return &VerifyResponse{Valid: true, User: user}, nil
}

// Logout 用户登出
// 将 Token 加入黑名单，TTL 为 Token 的剩余有效期
// 参数:
//   - ctx: 上下文
//   - token: 原始 Token
//   - expireAt: Token 的过期时间
//
// 返回:
//   - error: 操作错误
func (s *AuthService) Logout(ctx context.Context, token string, expireAt time.Time) error {
	return s.blacklist.BlacklistToken(ctx, util.HashToken(token), expireAt)
}
