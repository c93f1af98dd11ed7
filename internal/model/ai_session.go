package model

import (
	"time"
)

// AISessionStatus 会话状态常量
// pending 只能转换一次，到 completed 或 failed
const (
	AISessionStatusPending   = "pending"   // 等待模型返回
	AISessionStatusCompleted = "completed" // 已完成
	AISessionStatusFailed    = "failed"    // 调用失败
)

// 会话类型
const (
	SessionTypeGeneral        = "general"
	SessionTypeCodeGeneration = "code_generation"
	SessionTypeCodeAnalysis   = "code_analysis"
	SessionTypeRefactoring    = "refactoring"
	SessionTypeDebugging      = "debugging"
	SessionTypeDocumentation  = "documentation"
	SessionTypeTesting        = "testing"
)

// 分析类型
const (
	AnalysisTypeGeneral     = "general"
	AnalysisTypeSyntax      = "syntax"
	AnalysisTypeSemantic    = "semantic"
	AnalysisTypeDependency  = "dependency"
	AnalysisTypeSecurity    = "security"
	AnalysisTypePerformance = "performance"
	AnalysisTypeStyle       = "style"
)

var sessionTypes = map[string]struct{}{
	SessionTypeGeneral:        {},
	SessionTypeCodeGeneration: {},
	SessionTypeCodeAnalysis:   {},
	SessionTypeRefactoring:    {},
	SessionTypeDebugging:      {},
	SessionTypeDocumentation:  {},
	SessionTypeTesting:        {},
}

var analysisTypes = map[string]struct{}{
	AnalysisTypeGeneral:     {},
	AnalysisTypeSyntax:      {},
	AnalysisTypeSemantic:    {},
	AnalysisTypeDependency:  {},
	AnalysisTypeSecurity:    {},
	AnalysisTypePerformance: {},
	AnalysisTypeStyle:       {},
}

// IsValidSessionType 检查会话类型是否在允许列表中
func IsValidSessionType(t string) bool {
	_, ok := sessionTypes[t]
	return ok
}

// IsValidAnalysisType 检查分析类型是否在允许列表中
func IsValidAnalysisType(t string) bool {
	_, ok := analysisTypes[t]
	return ok
}

// AISession AI 会话模型
// 对应数据库表 ai_sessions
// 记录一次完整的 AI 交互：提示词、模型回复或失败原因
type AISession struct {
	// ID 会话唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// UserID 发起会话的用户
	UserID int64 `gorm:"index;not null" json:"user_id"`

	// ProjectID 关联项目，可为空
	// 不建外键，项目不存在时只是没有上下文
	ProjectID *int64 `gorm:"index" json:"project_id"`

	// SessionType 会话类型，见 SessionType* 常量
	SessionType string `gorm:"size:50;not null" json:"session_type"`

	// Prompt 发送给模型的用户提示词
	Prompt string `gorm:"type:text;not null" json:"prompt"`

	// Response 模型回复；失败时为错误信息
	Response *string `gorm:"type:text" json:"response"`

	// ModelUsed 实际调用的模型名
	ModelUsed string `gorm:"size:100" json:"model_used"`

	// TokensUsed 消耗的 token 总数
	TokensUsed int `gorm:"default:0" json:"tokens_used"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Status 会话状态: pending / completed / failed
	Status string `gorm:"size:20;default:pending;index" json:"status"`

	// User 发起会话的用户（多对一关系）
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定表名
func (AISession) TableName() string {
	return "ai_sessions"
}

// IsFinal 会话是否已经结束
func (s *AISession) IsFinal() bool {
	return s.Status == AISessionStatusCompleted || s.Status == AISessionStatusFailed
}

// CodeAnalysis 代码分析结果
// 对应数据库表 code_analyses，写入后不再修改
type CodeAnalysis struct {
	ID int64 `gorm:"primaryKey" json:"id"`

	// ProjectID 所属项目
	ProjectID int64 `gorm:"index;not null" json:"project_id"`

	// FileID 被分析的文件，可为空
	FileID *int64 `gorm:"index" json:"file_id"`

	// AnalysisType 分析类型，见 AnalysisType* 常量
	AnalysisType string `gorm:"size:50;not null" json:"analysis_type"`

	// Results 模型返回的分析文本
	Results string `gorm:"type:text" json:"results"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (CodeAnalysis) TableName() string {
	return "code_analyses"
}

// All 返回需要迁移的全部模型，顺序即建表顺序
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&CodeFile{},
		&AISession{},
		&CodeAnalysis{},
	}
}
