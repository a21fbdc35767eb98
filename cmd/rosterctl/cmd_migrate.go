package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shift-roster/backend/pkg/database"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	Long: `执行嵌入的 SQL 迁移。

  rosterctl migrate            升级到最新版本
  rosterctl migrate --down 1   回滚 1 个版本`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&rollbackSteps, "down", 0, "回滚的版本数")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	if rollbackSteps > 0 {
		if err := database.RollbackMigrations(sqlDB, rollbackSteps, logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已回滚 %d 个版本\n", rollbackSteps)
		return nil
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
	return nil
}
