package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"codespark-server/internal/model"
)

// ProjectRepository 项目数据访问层
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建 ProjectRepository 实例
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create 创建新项目
func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetByID 根据 ID 获取项目
// 返回:
//   - *model.Project: 项目对象，未找到返回 nil
//   - error: 数据库错误
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

// ListByUserID 获取用户的所有项目
// 按创建时间倒序，最新的在前
func (r *ProjectRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&projects).Error
	return projects, err
}

// UpdateFields 更新项目的指定字段
// updated_at 由 GORM 自动刷新
func (r *ProjectRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Project{ID: id}).Updates(fields).Error
}
