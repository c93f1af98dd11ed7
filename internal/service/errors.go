// Package service 提供业务逻辑层的实现
// 服务层封装具体的业务逻辑，协调 Repository、Cache 和模型网关
package service

import (
	"errors"

	"codespark-server/internal/repository"
)

// 定义业务错误
// 错误信息会原样返回给客户端
var (
	// 参数校验
	ErrRegisterFieldsRequired = errors.New("Username, email, and password are required")
	ErrLoginFieldsRequired    = errors.New("Username and password are required")
	ErrPromptRequired         = errors.New("Prompt is required")
	ErrDescriptionRequired    = errors.New("Description is required")
	ErrFileIDRequired         = errors.New("File ID is required")
	ErrUserIDRequired         = errors.New("User ID is required")
	ErrInvalidSessionType     = errors.New("Invalid session type")
	ErrInvalidAnalysisType    = errors.New("Invalid analysis type")
	ErrProjectNameRequired    = errors.New("Project name is required")
	ErrFilePathRequired       = errors.New("File path is required")
	ErrProjectIDRequired      = errors.New("Project ID is required")

	// 资源不存在
	ErrUserNotFound    = errors.New("User not found")
	ErrProjectNotFound = errors.New("Project not found")
	ErrFileNotFound    = errors.New("File not found")
	ErrSessionNotFound = errors.New("Session not found")

	// 认证
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrMissingToken       = errors.New("Token is required")
	ErrInvalidToken       = errors.New("Invalid token")
	ErrExpiredToken       = errors.New("Token has expired")
	ErrTokenRevoked       = errors.New("Token has been revoked")
	ErrPasswordWrong      = errors.New("Current password is incorrect")

	// 权限与冲突
	ErrNoPermission = errors.New("Permission denied")
	ErrUserExists   = errors.New("User with this username or email already exists")
	ErrEmailExists  = errors.New("Email is already in use")

	// ErrSessionAlreadyFinal 会话已经结束，不能再次写入结果
	ErrSessionAlreadyFinal = repository.ErrSessionAlreadyFinal
)

// GatewayError 模型调用失败
// chat 和代码生成失败时 SessionID 指向已写入 failed 状态的会话
// 代码分析失败时不写入任何记录，SessionID 为 0
type GatewayError struct {
	SessionID int64
	Err       error
}

func (e *GatewayError) Error() string {
	return e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
