package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shift-roster/backend/internal/dto"
)

var (
	targetDate     string
	morningLimit   int
	afternoonLimit int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成并保存某日排班（默认明天）",
	Long: `立即生成某日排班，不受截止时间限制。
该日已生成时返回错误，不会覆盖已有结果。`,
	RunE: runGenerate,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "按当前数据试算某日排班，不写库",
	RunE:  runPreview,
}

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "执行一次自动排班轮询",
	Long:  `按当前时间与截止设置执行一次与后台任务相同的轮询，输出本次结果。`,
	RunE:  runTick,
}

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "查看或设置日配额",
}

var ruleGetCmd = &cobra.Command{
	Use:   "get",
	Short: "查看某日配额（手动值优先，否则为推导值）",
	RunE:  runRuleGet,
}

var ruleSetCmd = &cobra.Command{
	Use:   "set",
	Short: "手动设置某日配额",
	RunE:  runRuleSet,
}

var ruleDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "删除手动配额，恢复推导值",
	RunE:  runRuleDelete,
}

func init() {
	generateCmd.Flags().StringVar(&targetDate, "date", "", "目标日期 YYYY-MM-DD，缺省为明天")

	previewCmd.Flags().StringVar(&targetDate, "date", "", "目标日期 YYYY-MM-DD")
	previewCmd.MarkFlagRequired("date")

	for _, c := range []*cobra.Command{ruleGetCmd, ruleSetCmd, ruleDeleteCmd} {
		c.Flags().StringVar(&targetDate, "date", "", "目标日期 YYYY-MM-DD")
		c.MarkFlagRequired("date")
	}
	ruleSetCmd.Flags().IntVar(&morningLimit, "morning", 0, "早班名额")
	ruleSetCmd.Flags().IntVar(&afternoonLimit, "afternoon", 0, "午班名额")
	ruleSetCmd.MarkFlagRequired("morning")
	ruleSetCmd.MarkFlagRequired("afternoon")

	ruleCmd.AddCommand(ruleGetCmd, ruleSetCmd, ruleDeleteCmd)
	rootCmd.AddCommand(generateCmd, previewCmd, tickCmd, ruleCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// 命令行操作不归属任何账号，审计中 actor 为空
	result, err := a.Service.Generation.Generate(cmd.Context(), targetDate, "", false)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Service.Generation.Preview(cmd.Context(), targetDate)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runTick(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Schedule.RunTimeout)
	defer cancel()

	outcome, err := a.AutoGenerator().Tick(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (明天=%s)\n", outcome, a.Civil.TomorrowISO())
	return nil
}

func runRuleGet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rule, err := a.Service.Rule.Get(cmd.Context(), targetDate)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rule)
}

func runRuleSet(cmd *cobra.Command, args []string) error {
	if morningLimit < 0 || afternoonLimit < 0 {
		return fmt.Errorf("名额不能为负数")
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rule, err := a.Service.Rule.Set(cmd.Context(), targetDate, &dto.SetRuleRequest{
		MorningLimit:   &morningLimit,
		AfternoonLimit: &afternoonLimit,
	}, "")
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rule)
}

func runRuleDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Service.Rule.Delete(cmd.Context(), targetDate, ""); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s 的手动配额已删除\n", targetDate)
	return nil
}
