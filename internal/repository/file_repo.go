package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"codespark-server/internal/model"
)

// CodeFileRepository 代码文件数据访问层
type CodeFileRepository struct {
	db *gorm.DB
}

// NewCodeFileRepository 创建 CodeFileRepository 实例
func NewCodeFileRepository(db *gorm.DB) *CodeFileRepository {
	return &CodeFileRepository{db: db}
}

// Create 创建代码文件
func (r *CodeFileRepository) Create(ctx context.Context, file *model.CodeFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// GetByID 根据 ID 获取文件
// 返回:
//   - *model.CodeFile: 文件对象，未找到返回 nil
//   - error: 数据库错误
func (r *CodeFileRepository) GetByID(ctx context.Context, id int64) (*model.CodeFile, error) {
	var file model.CodeFile
	err := r.db.WithContext(ctx).First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

// GetByIDs 批量获取文件，结果顺序与 ids 一致，不存在的 id 被跳过
func (r *CodeFileRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.CodeFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var files []model.CodeFile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&files).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]model.CodeFile, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}

	ordered := make([]model.CodeFile, 0, len(files))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

// ListByProjectID 获取项目的所有文件，按路径排序
func (r *CodeFileRepository) ListByProjectID(ctx context.Context, projectID int64) ([]model.CodeFile, error) {
	var files []model.CodeFile
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("file_path ASC").
		Order("id ASC").
		Find(&files).Error
	return files, err
}

// ListRecentByProjectID 获取项目最近创建的文件
// 参数:
//   - ctx: 上下文
//   - projectID: 项目ID
//   - limit: 最大数量
//
// 返回:
//   - []model.CodeFile: 按创建时间倒序，时间相同按 id 倒序
//   - error: 数据库错误
func (r *CodeFileRepository) ListRecentByProjectID(ctx context.Context, projectID int64, limit int) ([]model.CodeFile, error) {
	var files []model.CodeFile
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

// UpdateFields 更新文件的指定字段
func (r *CodeFileRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.CodeFile{ID: id}).Updates(fields).Error
}

// Delete 删除文件
func (r *CodeFileRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.CodeFile{}, id).Error
}
