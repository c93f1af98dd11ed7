package service

import (
	"fmt"
	"strings"

	"codespark-server/internal/model"
	"codespark-server/pkg/util"
)

// 模型调用参数
const (
	contextFileLimit   = 5   // chat 上下文最多带的文件数
	contextFileExcerpt = 500 // 每个文件截取的字符数

	chatMaxTokens       = 2000
	chatTemperature     = 0.7
	codeGenMaxTokens    = 2000
	codeGenTemperature  = 0.3
	analysisMaxTokens   = 1500
	analysisTemperature = 0.3

	defaultCodeLanguage = "javascript"
)

const assistantPersona = "You are an AI coding assistant. You help developers with code generation, " +
	"refactoring, debugging, and understanding large codebases."

const analysisSystemPrompt = "You are a code analysis assistant. Analyze code for bugs, performance issues, " +
	"best practices, and provide constructive feedback."

// chatSystemPrompt 人设 + 空格 + 项目上下文
func chatSystemPrompt(projectContext string) string {
	return assistantPersona + " " + projectContext
}

// buildProjectContext 生成 chat 使用的项目上下文
// 每个文件只取前 500 个字符，后面总是跟 "..."
func buildProjectContext(project *model.Project, files []model.CodeFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s (%s)\n", project.Name, project.Language)
	fmt.Fprintf(&b, "Description: %s\n\n", project.Description)

	for _, f := range files {
		fmt.Fprintf(&b, "File: %s\n", f.FilePath)
		fmt.Fprintf(&b, "```%s\n%s...\n```\n\n", f.Language, util.FirstChars(f.Content, contextFileExcerpt))
	}
	return b.String()
}

// codeGenSystemPrompt 代码生成的系统提示词
func codeGenSystemPrompt(language string) string {
	return fmt.Sprintf("You are a code generation assistant. Generate clean, well-documented %s code based on user requirements. "+
		"Only return the code without explanations unless specifically asked.", language)
}

// buildCodeGenPrompt 生成代码生成的用户提示词，上下文文件带完整内容
func buildCodeGenPrompt(language, description string, files []model.CodeFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %s code based on the following description:\n%s\n\n", language, description)

	if len(files) > 0 {
		b.WriteString("Context files:\n")
		for _, f := range files {
			fmt.Fprintf(&b, "File: %s\n```%s\n%s\n```\n\n", f.FilePath, f.Language, f.Content)
		}
	}
	return b.String()
}

// buildAnalysisPrompt 生成代码分析的用户提示词
func buildAnalysisPrompt(file *model.CodeFile, analysisType string) string {
	return fmt.Sprintf("Analyze the following %s code for %s issues:\n\n```%s\n%s\n```\n\nProvide suggestions for improvement.",
		file.Language, analysisType, file.Language, file.Content)
}
