package handler

import (
	"github.com/gin-gonic/gin"

	"codespark-server/internal/middleware"
	"codespark-server/internal/service"
	"codespark-server/pkg/response"
)

// ProjectHandler 项目与文件请求处理器
type ProjectHandler struct {
	projectService *service.ProjectService
}

// NewProjectHandler 创建 ProjectHandler 实例
func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// ListProjects 获取当前用户的项目列表
// @Router /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, projects)
}

// CreateProject 创建项目
// @Router /api/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req service.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, project)
}

// GetProject 获取项目详情
// @Router /api/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, project)
}

// UpdateProject 更新项目
// @Router /api/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, project)
}

// ListFiles 获取项目文件列表
// @Router /api/projects/{id}/files [get]
func (h *ProjectHandler) ListFiles(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	files, err := h.projectService.ListFiles(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, files)
}

// GetTree 获取项目目录树
// @Router /api/projects/{id}/tree [get]
func (h *ProjectHandler) GetTree(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	tree, err := h.projectService.GetTree(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, tree)
}

// CreateFile 创建文件
// @Router /api/projects/files [post]
func (h *ProjectHandler) CreateFile(c *gin.Context) {
	var req service.CreateFileRequest
	if !bindJSON(c, &req) {
		return
	}

	file, err := h.projectService.CreateFile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, file)
}

// GetFile 获取文件
// @Router /api/files/{id} [get]
func (h *ProjectHandler) GetFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	file, err := h.projectService.GetFile(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, file)
}

// UpdateFile 更新文件
// @Router /api/files/{id} [put]
func (h *ProjectHandler) UpdateFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateFileRequest
	if !bindJSON(c, &req) {
		return
	}

	file, err := h.projectService.UpdateFile(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, file)
}

// DeleteFile 删除文件
// @Router /api/files/{id} [delete]
func (h *ProjectHandler) DeleteFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteFile(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	response.Message(c, "File deleted successfully")
}

// ListFileAnalyses 获取文件的历史分析结果
// @Router /api/files/{id}/analyses [get]
func (h *ProjectHandler) ListFileAnalyses(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	analyses, err := h.projectService.ListFileAnalyses(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, analyses)
}
