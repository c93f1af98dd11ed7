package service

import (
	"sort"
	"strings"

	"codespark-server/internal/model"
)

// 树节点类型
const (
	NodeTypeDirectory = "directory"
	NodeTypeFile      = "file"
)

// TreeNode 项目目录树节点
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	FileID   int64       `json:"file_id,omitempty"`
	Language string      `json:"language,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildTree 根据文件路径构建嵌套目录树
// 同级节点目录在前，文件在后，各自按名称排序
// 同一路径出现多次时每个文件都保留
func BuildTree(rootName string, files []model.CodeFile) *TreeNode {
	root := &TreeNode{Name: rootName, Type: NodeTypeDirectory, Children: []*TreeNode{}}
	dirs := map[string]*TreeNode{"": root}

	for _, f := range files {
		path := normalizePath(f.FilePath)
		if path == "" {
			continue
		}
		parts := strings.Split(path, "/")

		parent := root
		for i, part := range parts[:len(parts)-1] {
			dirPath := strings.Join(parts[:i+1], "/")
			dir, ok := dirs[dirPath]
			if !ok {
				dir = &TreeNode{Name: part, Path: dirPath, Type: NodeTypeDirectory, Children: []*TreeNode{}}
				dirs[dirPath] = dir
				parent.Children = append(parent.Children, dir)
			}
			parent = dir
		}

		parent.Children = append(parent.Children, &TreeNode{
			Name:     parts[len(parts)-1],
			Path:     path,
			Type:     NodeTypeFile,
			FileID:   f.ID,
			Language: f.Language,
		})
	}

	sortTree(root)
	return root
}

func sortTree(n *TreeNode) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Type != b.Type {
			return a.Type == NodeTypeDirectory
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.FileID < b.FileID
	})
	for _, c := range n.Children {
		if c.Type == NodeTypeDirectory {
			sortTree(c)
		}
	}
}
