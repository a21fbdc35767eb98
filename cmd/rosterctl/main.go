// rosterctl 运维命令行：迁移、手动生成/试算排班、配额维护与账号恢复。
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shift-roster/backend/config"
	"shift-roster/backend/internal/app"
	applogger "shift-roster/backend/pkg/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "rosterctl",
	Short:         "移民局值班排班运维工具",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并创建日志；命令行默认只输出警告以上
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		cfg.Log.Level = "warn"
	} else {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Format = "console"
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

// openApp 组装完整依赖，调用方负责 Close
func openApp() (*app.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger, app.Options{})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
