package model

import (
	"time"
)

// Project 项目模型
// 对应数据库表 projects
// 一个用户可以拥有多个项目，项目下挂载代码文件
type Project struct {
	// ID 项目唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// Name 项目名称
	Name string `gorm:"size:100;not null" json:"name"`

	// Description 项目描述
	Description string `gorm:"type:text" json:"description"`

	// UserID 所属用户ID，外键关联 users.id
	UserID int64 `gorm:"index;not null" json:"user_id"`

	// RepositoryURL 代码仓库地址，可选
	RepositoryURL string `gorm:"size:255" json:"repository_url"`

	// Language 项目主要语言
	Language string `gorm:"size:50" json:"language"`

	// IsPublic 是否公开，公开项目其他登录用户也可以查看
	IsPublic bool `gorm:"default:false" json:"is_public"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 更新时间，每次修改刷新
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Files 项目下的代码文件（一对多关系）
	Files []CodeFile `gorm:"foreignKey:ProjectID" json:"-"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// CodeFile 代码文件模型
// 对应数据库表 code_files
// file_path 在同一项目内不要求唯一
type CodeFile struct {
	ID int64 `gorm:"primaryKey" json:"id"`

	// ProjectID 所属项目ID
	ProjectID int64 `gorm:"index;not null" json:"project_id"`

	// FilePath 文件在项目内的相对路径，如 src/main.go
	FilePath string `gorm:"size:500;not null" json:"file_path"`

	// Content 文件内容
	Content string `gorm:"type:text" json:"content"`

	// Language 文件语言，用于代码块标注
	Language string `gorm:"size:50" json:"language"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (CodeFile) TableName() string {
	return "code_files"
}
