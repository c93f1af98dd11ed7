package service

import (
	"context"
	"path"
	"strings"

	"codespark-server/internal/model"
	"codespark-server/internal/repository"
)

// ProjectService 项目与代码文件服务
// 项目所有者拥有全部权限，公开项目对其他用户只读
type ProjectService struct {
	projectRepo  *repository.ProjectRepository      // 项目数据访问层
	fileRepo     *repository.CodeFileRepository     // 文件数据访问层
	analysisRepo *repository.CodeAnalysisRepository // 分析结果数据访问层
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(
	projectRepo *repository.ProjectRepository,
	fileRepo *repository.CodeFileRepository,
	analysisRepo *repository.CodeAnalysisRepository,
) *ProjectService {
	return &ProjectService{
		projectRepo:  projectRepo,
		fileRepo:     fileRepo,
		analysisRepo: analysisRepo,
	}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name          string `json:"name" binding:"max=100"`
	Description   string `json:"description"`
	RepositoryURL string `json:"repository_url" binding:"max=255"`
	Language      string `json:"language" binding:"max=50"`
	IsPublic      bool   `json:"is_public"`
}

// UpdateProjectRequest 更新项目请求，nil 字段不修改
type UpdateProjectRequest struct {
	Name          *string `json:"name" binding:"omitempty,max=100"`
	Description   *string `json:"description"`
	RepositoryURL *string `json:"repository_url" binding:"omitempty,max=255"`
	Language      *string `json:"language" binding:"omitempty,max=50"`
	IsPublic      *bool   `json:"is_public"`
}

// ListProjects 获取用户自己的项目，最新的在前
func (s *ProjectService) ListProjects(ctx context.Context, userID int64) ([]model.Project, error) {
	projects, err := s.projectRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

// CreateProject 创建项目
func (s *ProjectService) CreateProject(ctx context.Context, userID int64, req *CreateProjectRequest) (*model.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	project := &model.Project{
		Name:          name,
		Description:   req.Description,
		UserID:        userID,
		RepositoryURL: req.RepositoryURL,
		Language:      req.Language,
		IsPublic:      req.IsPublic,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject 获取项目详情
// 所有者或公开项目可见
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID int64) (*model.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID && !project.IsPublic {
		return nil, ErrNoPermission
	}
	return project, nil
}

// UpdateProject 更新项目，仅所有者可操作
// updated_at 在每次更新时刷新
func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID int64, req *UpdateProjectRequest) (*model.Project, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrProjectNameRequired
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.RepositoryURL != nil {
		fields["repository_url"] = *req.RepositoryURL
	}
	if req.Language != nil {
		fields["language"] = *req.Language
	}
	if req.IsPublic != nil {
		fields["is_public"] = *req.IsPublic
	}

	if len(fields) == 0 {
		return project, nil
	}
	if err := s.projectRepo.UpdateFields(ctx, projectID, fields); err != nil {
		return nil, err
	}
	return s.loadProject(ctx, projectID)
}

// ListFiles 获取项目的全部文件
func (s *ProjectService) ListFiles(ctx context.Context, userID, projectID int64) ([]model.CodeFile, error) {
	if _, err := s.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	files, err := s.fileRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.CodeFile{}
	}
	return files, nil
}

// GetTree 获取项目的目录树
func (s *ProjectService) GetTree(ctx context.Context, userID, projectID int64) (*TreeNode, error) {
	project, err := s.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	files, err := s.fileRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return BuildTree(project.Name, files), nil
}

// CreateFileRequest 创建文件请求
type CreateFileRequest struct {
	ProjectID int64  `json:"project_id"`
	FilePath  string `json:"file_path" binding:"max=500"`
	Content   string `json:"content"`
	Language  string `json:"language" binding:"max=50"`
}

// UpdateFileRequest 更新文件请求，nil 字段不修改
type UpdateFileRequest struct {
	FilePath *string `json:"file_path" binding:"omitempty,max=500"`
	Content  *string `json:"content"`
	Language *string `json:"language" binding:"omitempty,max=50"`
}

// CreateFile 在项目下创建文件，仅项目所有者可操作
func (s *ProjectService) CreateFile(ctx context.Context, userID int64, req *CreateFileRequest) (*model.CodeFile, error) {
	if req.ProjectID == 0 {
		return nil, ErrProjectIDRequired
	}
	path := normalizePath(req.FilePath)
	if path == "" {
		return nil, ErrFilePathRequired
	}
	if _, err := s.ownedProject(ctx, userID, req.ProjectID); err != nil {
		return nil, err
	}

	file := &model.CodeFile{
		ProjectID: req.ProjectID,
		FilePath:  path,
		Content:   req.Content,
		Language:  req.Language,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// GetFile 获取文件，仅项目所有者可操作
func (s *ProjectService) GetFile(ctx context.Context, userID, fileID int64) (*model.CodeFile, error) {
	return s.ownedFile(ctx, userID, fileID)
}

// UpdateFile 更新文件，仅项目所有者可操作
func (s *ProjectService) UpdateFile(ctx context.Context, userID, fileID int64, req *UpdateFileRequest) (*model.CodeFile, error) {
	file, err := s.ownedFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.FilePath != nil {
		path := normalizePath(*req.FilePath)
		if path == "" {
			return nil, ErrFilePathRequired
		}
		fields["file_path"] = path
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if req.Language != nil {
		fields["language"] = *req.Language
	}

	if len(fields) == 0 {
		return file, nil
	}
	if err := s.fileRepo.UpdateFields(ctx, fileID, fields); err != nil {
		return nil, err
	}
	return s.fileRepo.GetByID(ctx, fileID)
}

// DeleteFile 删除文件，仅项目所有者可操作
func (s *ProjectService) DeleteFile(ctx context.Context, userID, fileID int64) error {
	if _, err := s.ownedFile(ctx, userID, fileID); err != nil {
		return err
	}
	return s.fileRepo.Delete(ctx, fileID)
}

// ListFileAnalyses 获取文件的历史分析结果，仅项目所有者可操作
func (s *ProjectService) ListFileAnalyses(ctx context.Context, userID, fileID int64) ([]model.CodeAnalysis, error) {
	if _, err := s.ownedFile(ctx, userID, fileID); err != nil {
		return nil, err
	}

	analyses, err := s.analysisRepo.ListByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if analyses == nil {
		analyses = []model.CodeAnalysis{}
	}
	return analyses, nil
}

func (s *ProjectService) loadProject(ctx context.Context, projectID int64) (*model.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *ProjectService) ownedProject(ctx context.Context, userID, projectID int64) (*model.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, ErrNoPermission
	}
	return project, nil
}

func (s *ProjectService) ownedFile(ctx context.Context, userID, fileID int64) (*model.CodeFile, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}
	if _, err := s.ownedProject(ctx, userID, file.ProjectID); err != nil {
		return nil, err
	}
	return file, nil
}

// normalizePath 统一为不带开头 "/" 的相对路径
// 合并重复的 "/"，解析 "." 和 ".."，".." 不会越过项目根目录
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
