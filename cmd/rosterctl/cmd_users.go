package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	userID     string
	importPath string
)

var reactivateCmd = &cobra.Command{
	Use:   "reactivate",
	Short: "重新启用因设备切换过多被停用的账号",
	Long:  `重新启用账号并清零设备切换计数。账号原有会话在停用时已被清除，需重新登录。`,
	RunE:  runReactivate,
}

var importUsersCmd = &cobra.Command{
	Use:   "import-users",
	Short: "从 Excel 批量导入人员",
	Long: `从 .xlsx 第一个工作表导入人员，表头需包含 用户名、姓名，可选 角色（缺省 OFFICER）。
已存在的用户名计入失败，其余行照常导入。`,
	RunE: runImportUsers,
}

func init() {
	reactivateCmd.Flags().StringVar(&userID, "user", "", "用户 ID")
	reactivateCmd.MarkFlagRequired("user")

	importUsersCmd.Flags().StringVarP(&importPath, "file", "f", "", "xlsx 文件路径")
	importUsersCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(reactivateCmd, importUsersCmd)
}

func runReactivate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Service.User.Activate(cmd.Context(), userID, "")
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), user)
}

func runImportUsers(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importPath)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.Service.User.ParseImportFile(f)
	if err != nil {
		return err
	}
	result, err := a.Service.User.ImportUsers(cmd.Context(), rows, "")
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
