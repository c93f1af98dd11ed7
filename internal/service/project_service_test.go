package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codespark-server/internal/model"
	"codespark-server/internal/repository"
	"codespark-server/internal/testutil"
)

func newProjectService(t *testing.T) (*ProjectService, *model.User, *model.User, func() int64) {
	t.Helper()

	db := testutil.NewDB(t)
	svc := NewProjectService(
		repository.NewProjectRepository(db),
		repository.NewCodeFileRepository(db),
		repository.NewCodeAnalysisRepository(db),
	)
	owner := testutil.CreateUser(t, db, "owner", "o@x.com", "p")
	other := testutil.CreateUser(t, db, "other", "x@x.com", "p")
	countFiles := func() int64 { return testutil.Count(t, db, &model.CodeFile{}) }
	return svc, owner, other, countFiles
}

func TestProjectService_Permissions(t *testing.T) {
	svc, owner, other, _ := newProjectService(t)
	ctx := context.Background()

	private, err := svc.CreateProject(ctx, owner.ID, &CreateProjectRequest{Name: "private"})
	require.NoError(t, err)
	public, err := svc.CreateProject(ctx, owner.ID, &CreateProjectRequest{Name: "public", IsPublic: true})
	require.NoError(t, err)

	_, err = svc.GetProject(ctx, other.ID, private.ID)
	assert.ErrorIs(t, err, ErrNoPermission)

	got, err := svc.GetProject(ctx, other.ID, public.ID)
	require.NoError(t, err)
	assert.Equal(t, "public", got.Name)

	name := "hijacked"
	_, err = svc.UpdateProject(ctx, other.ID, public.ID, &UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = svc.CreateFile(ctx, other.ID, &CreateFileRequest{ProjectID: public.ID, FilePath: "x.go"})
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = svc.GetProject(ctx, owner.ID, 999)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_ListNewestFirst(t *testing.T) {
	svc, owner, other, _ := newProjectService(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		_, err := svc.CreateProject(ctx, owner.ID, &CreateProjectRequest{Name: name})
		require.NoError(t, err)
	}

	projects, err := svc.ListProjects(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "three", projects[0].Name)
	assert.Equal(t, "one", projects[2].Name)

	empty, err := svc.ListProjects(ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.CreateProject(ctx, owner.ID, &CreateProjectRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrProjectNameRequired)
}

func TestProjectService_UpdateProject(t *testing.T) {
	svc, owner, _, _ := newProjectService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, owner.ID, &CreateProjectRequest{Name: "demo", Language: "go"})
	require.NoError(t, err)

	desc := "now with docs"
	public := true
	updated, err := svc.UpdateProject(ctx, owner.ID, project.ID, &UpdateProjectRequest{Description: &desc, IsPublic: &public})
	require.NoError(t, err)
	assert.Equal(t, "demo", updated.Name)
	assert.Equal(t, "now with docs", updated.Description)
	assert.True(t, updated.IsPublic)
	assert.False(t, updated.UpdatedAt.Before(project.UpdatedAt))
}

func TestProjectService_FileLifecycle(t *testing.T) {
	svc, owner, other, countFiles := newProjectService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, owner.ID, &CreateProjectRequest{Name: "demo"})
	require.NoError(t, err)

	file, err := svc.CreateFile(ctx, owner.ID, &CreateFileRequest{
		ProjectID: project.ID,
		FilePath:  "./src/main.go",
		Content:   "package main",
		Language:  "go",
	})
	require.NoError(t, err)
	assert.Equal(t, "src/main.go", file.FilePath)

	_, err = svc.GetFile(ctx, other.ID, file.ID)
	assert.ErrorIs(t, err, ErrNoPermission)

	content := "package main\n\nfunc main() {}"
	updated, err := svc.UpdateFile(ctx, owner.ID, file.ID, &UpdateFileRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, "src/main.go", updated.FilePath)

	analyses, err := svc.ListFileAnalyses(ctx, owner.ID, file.ID)
	require.NoError(t, err)
	assert.NotNil(t, analyses)

	assert.ErrorIs(t, svc.DeleteFile(ctx, other.ID, file.ID), ErrNoPermission)
	require.NoError(t, svc.DeleteFile(ctx, owner.ID, file.ID))
	assert.Zero(t, countFiles())

	_, err = svc.GetFile(ctx, owner.ID, file.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = svc.CreateFile(ctx, owner.ID, &CreateFileRequest{ProjectID: project.ID, FilePath: " / "})
	assert.ErrorIs(t, err, ErrFilePathRequired)
	_, err = svc.CreateFile(ctx, owner.ID, &CreateFileRequest{FilePath: "a.go"})
	assert.ErrorIs(t, err, ErrProjectIDRequired)
}

func TestBuildTree(t *testing.T) {
	files := []model.CodeFile{
		{ID: 1, FilePath: "README.md", Language: "markdown"},
		{ID: 2, FilePath: "src/main.go", Language: "go"},
		{ID: 3, FilePath: "src/api/handler.go", Language: "go"},
		{ID: 4, FilePath: "./go.mod"},
		{ID: 5, FilePath: "src/app.go", Language: "go"},
	}

	root := BuildTree("demo", files)
	assert.Equal(t, "demo", root.Name)
	assert.Equal(t, NodeTypeDirectory, root.Type)

	names := func(n *TreeNode) []string {
		var out []string
		for _, c := range n.Children {
			out = append(out, c.Name)
		}
		return out
	}

	require.Equal(t, []string{"src", "README.md", "go.mod"}, names(root))
	src := root.Children[0]
	assert.Equal(t, "src", src.Path)
	require.Equal(t, []string{"api", "app.go", "main.go"}, names(src))

	handler := src.Children[0].Children[0]
	assert.Equal(t, "src/api/handler.go", handler.Path)
	assert.Equal(t, int64(3), handler.FileID)
	assert.Equal(t, NodeTypeFile, handler.Type)
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"  ":               "",
		"/":                "",
		"main.go":          "main.go",
		"./src/main.go":    "src/main.go",
		"/src/main.go":     "src/main.go",
		"src//main.go":     "src/main.go",
		"src///api//x.go":  "src/api/x.go",
		"src/./main.go":    "src/main.go",
		"src/api/../x.go":  "src/x.go",
		"../../etc/passwd": "etc/passwd",
		"src\\win.go":      "src/win.go",
		"src/dir/":         "src/dir",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePath(in), "input %q", in)
	}
}

func TestBuildTree_RepeatedSlashes(t *testing.T) {
	root := BuildTree("demo", []model.CodeFile{
		{ID: 1, FilePath: "src//main.go"},
		{ID: 2, FilePath: "src/util.go"},
	})

	require.Len(t, root.Children, 1)
	src := root.Children[0]
	assert.Equal(t, "src", src.Name)
	require.Len(t, src.Children, 2)
	for _, c := range src.Children {
		assert.NotEmpty(t, c.Name)
		assert.Equal(t, NodeTypeFile, c.Type)
	}
	assert.Equal(t, "src/main.go", src.Children[0].Path)
}

func TestBuildTree_Empty(t *testing.T) {
	root := BuildTree("empty", nil)
	assert.NotNil(t, root.Children)
	assert.Empty(t, root.Children)
}
