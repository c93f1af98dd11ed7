// Package testutil 提供测试用的数据库和数据构造函数
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"codespark-server/internal/database"
	"codespark-server/internal/model"
	"codespark-server/pkg/util"
)

// NewDB 在临时目录创建一个已迁移的 SQLite 数据库
// 测试结束时自动关闭
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.OpenSQLite(path, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// CreateUser 创建一个用户，password 为空时不设置密码
func CreateUser(t *testing.T, db *gorm.DB, username, email, password string) *model.User {
	t.Helper()

	user := &model.User{Username: username}
	if email != "" {
		user.Email = util.StringPtr(email)
	}
	if password != "" {
		hash, err := util.HashPassword(password)
		require.NoError(t, err)
		user.PasswordHash = hash
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProject 创建一个项目
func CreateProject(t *testing.T, db *gorm.DB, userID int64, name, language string) *model.Project {
	t.Helper()

	project := &model.Project{
		Name:        name,
		Description: name + " description",
		UserID:      userID,
		Language:    language,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateFile 创建一个代码文件
func CreateFile(t *testing.T, db *gorm.DB, projectID int64, path, language, content string) *model.CodeFile {
	t.Helper()

	file := &model.CodeFile{
		ProjectID: projectID,
		FilePath:  path,
		Language:  language,
		Content:   content,
	}
	require.NoError(t, db.Create(file).Error)
	return file
}

// Count 统计某个模型的行数
func Count(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}
