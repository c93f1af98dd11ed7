package repository

import (
	"context"

	"gorm.io/gorm"

	"codespark-server/internal/model"
)

// CodeAnalysisRepository 代码分析结果数据访问层
// 分析结果写入后不再修改，因此只提供创建和查询
type CodeAnalysisRepository struct {
	db *gorm.DB
}

// NewCodeAnalysisRepository 创建 CodeAnalysisRepository 实例
func NewCodeAnalysisRepository(db *gorm.DB) *CodeAnalysisRepository {
	return &CodeAnalysisRepository{db: db}
}

// Create 保存分析结果
func (r *CodeAnalysisRepository) Create(ctx context.Context, analysis *model.CodeAnalysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

// ListByFileID 获取某个文件的分析记录，最新的在前
func (r *CodeAnalysisRepository) ListByFileID(ctx context.Context, fileID int64) ([]model.CodeAnalysis, error) {
	var analyses []model.CodeAnalysis
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&analyses).Error
	return analyses, err
}
