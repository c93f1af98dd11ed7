package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"codespark-server/internal/config"
	"codespark-server/pkg/logger"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "codespark-server",
	Short: "CodeSpark - AI 编程助手服务端",
	Long: `CodeSpark 服务端

提供用户认证、项目与文件管理，以及基于大模型的对话、代码生成和代码分析接口。

不带子命令运行时等同于 serve。`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "./configs", "配置文件目录")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig 加载配置并创建日志
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, log, nil
}
