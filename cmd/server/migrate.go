package main

import (
	"github.com/spf13/cobra"

	"codespark-server/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移后退出",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.Open(cfg, log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("database migrations completed")
		return nil
	},
}
