package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"codespark-server/internal/model"
)

// 会话历史最多返回的条数
const MaxSessionHistory = 50

var (
	// ErrSessionAlreadyFinal 会话已经是 completed/failed，不能再次转换
	ErrSessionAlreadyFinal = errors.New("session already finalized")
	// ErrInvalidTransition 目标状态不是终态
	ErrInvalidTransition = errors.New("invalid session status transition")
)

// SessionFilter 会话历史查询条件，nil 表示不过滤
type SessionFilter struct {
	UserID    *int64
	ProjectID *int64
}

// AISessionRepository AI 会话数据访问层
type AISessionRepository struct {
	db *gorm.DB
}

// NewAISessionRepository 创建 AISessionRepository 实例
func NewAISessionRepository(db *gorm.DB) *AISessionRepository {
	return &AISessionRepository{db: db}
}

// Create 创建新会话
// 状态总是从 pending 开始
func (r *AISessionRepository) Create(ctx context.Context, session *model.AISession) error {
	session.Status = model.AISessionStatusPending
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID 根据 ID 获取会话
// 返回:
//   - *model.AISession: 会话对象，未找到返回 nil
//   - error: 数据库错误
func (r *AISessionRepository) GetByID(ctx context.Context, id int64) (*model.AISession, error) {
	var session model.AISession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// List 查询会话历史
// 最多 MaxSessionHistory 条，按创建时间倒序，时间相同按 id 倒序
func (r *AISessionRepository) List(ctx context.Context, filter SessionFilter) ([]model.AISession, error) {
	query := r.db.WithContext(ctx).Model(&model.AISession{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}

	sessions := make([]model.AISession, 0)
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(MaxSessionHistory).
		Find(&sessions).Error
	return sessions, err
}

// Finish 把 pending 会话转换为终态
// 使用条件更新保证每个会话只转换一次
// 参数:
//   - ctx: 上下文
//   - session: 会话对象，Status/Response/TokensUsed 为目标值
//
// 返回:
//   - error: 已经是终态时返回 ErrSessionAlreadyFinal
func (r *AISessionRepository) Finish(ctx context.Context, session *model.AISession) error {
	if !session.IsFinal() {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, session.Status)
	}

	result := r.db.WithContext(ctx).Model(&model.AISession{}).
		Where("id = ? AND status = ?", session.ID, model.AISessionStatusPending).
		Updates(map[string]interface{}{
			"status":      session.Status,
			"response":    session.Response,
			"tokens_used": session.TokensUsed,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionAlreadyFinal
	}
	return nil
}
