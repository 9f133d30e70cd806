package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocate/pkg/executor"
)

var runCmd = &cobra.Command{
	Use:   "run PLAN.yaml",
	Short: "Run a YAML plan of locate steps in order",
	Long: `按顺序执行 YAML 计划中的查找步骤，步骤之间共享最近匹配结果。

示例计划:
  stop_on_fail: true
  steps:
    - id: open
      task: image_wait
      params: {images: [start.png], timeout: 10}
    - task: element_find
      params: {name: 确定, control_type: Button}`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("stop-on-fail", false, "第一个失败步骤后跳过其余步骤（覆盖计划文件）")
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, err := executor.LoadPlan(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("stop-on-fail") {
		plan.StopOnFail, _ = cmd.Flags().GetBool("stop-on-fail")
	}

	res := newExecutor().ExecutePlan(plan)
	if err := printYAML(res); err != nil {
		return err
	}
	if res.Status != executor.StatusSuccess {
		return fmt.Errorf("计划执行失败: %d 个步骤失败, %d 个跳过", res.Failed, res.Skipped)
	}
	return nil
}
