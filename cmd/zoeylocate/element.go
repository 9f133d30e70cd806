package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocate/pkg/executor"
)

var elementCmd = &cobra.Command{
	Use:   "element",
	Short: "Locate UI Automation elements (Windows)",
	Long: `在 UI Automation 控件树中按属性条件查找控件。

默认从桌面开始广度优先搜索全部后代；--exact-level 指定相对层级
（正数为后代层级，0 为兄弟，负数为祖先），--max-descend 限制搜索深度。`,
}

type elementSub struct {
	use, short string
	taskType   string
	noFail     bool
}

var elementSubs = []elementSub{
	{use: "find", short: "Find the first matching element", taskType: executor.TaskTypeElementFind, noFail: true},
	{use: "wait", short: "Wait until a matching element appears", taskType: executor.TaskTypeElementWait, noFail: true},
	{use: "findall", short: "Find every matching element", taskType: executor.TaskTypeElementAll},
	{use: "vanish", short: "Wait until no element matches", taskType: executor.TaskTypeElementVanish},
	{use: "exists", short: "Check whether a matching element exists", taskType: executor.TaskTypeElementExists},
}

func init() {
	rootCmd.AddCommand(elementCmd)
	for _, sub := range elementSubs {
		elementCmd.AddCommand(newElementCommand(sub))
	}
}

func newElementCommand(sub elementSub) *cobra.Command {
	cmd := &cobra.Command{
		Use:   sub.use,
		Short: sub.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := elementPayload(cmd)
			if err != nil {
				return err
			}
			return runTask(sub.taskType, payload)
		},
	}
	f := cmd.Flags()
	f.String("name", "", "Name 完全相等")
	f.StringSlice("name-contains", nil, "Name 包含全部子串（可重复）")
	f.String("name-regex", "", "Name 匹配正则表达式")
	f.String("automation-id", "", "AutomationId 完全相等")
	f.String("class", "", "ClassName 完全相等")
	f.String("type", "", "控件类型，如 Button, Edit, Window")
	f.String("process", "", "进程名，限定属于该进程的控件")
	f.IntSlice("pid", nil, "进程 ID（可重复）")
	f.Int("exact-level", 0, "相对搜索起点的精确层级")
	f.Int("max-descend", 0, "最大搜索深度，0 表示不限")
	f.StringArray("where", nil, "任意属性条件 Field=value（可重复），如 HelpText=保存")
	f.String("root", "", "搜索起点控件 ID（窗口句柄），默认为桌面")
	f.String("window", "", "从标题或进程名包含该文本的窗口开始搜索")
	if sub.use == "find" || sub.use == "wait" {
		f.String("grid", "", "网格位置 rows.cols.row.col，输出该格中心")
	}
	addCallFlags(cmd, sub.noFail)
	return cmd
}

func elementPayload(cmd *cobra.Command) (map[string]interface{}, error) {
	f := cmd.Flags()
	payload := map[string]interface{}{}

	for flag, key := range map[string]string{
		"name":          "name",
		"name-regex":    "name_regex",
		"automation-id": "automation_id",
		"class":         "class_name",
		"type":          "control_type",
		"process":       "process",
		"root":          "root",
		"window":        "window",
	} {
		if v, _ := f.GetString(flag); v != "" {
			payload[key] = v
		}
	}
	if subs, _ := f.GetStringSlice("name-contains"); len(subs) > 0 {
		payload["name_contains"] = subs
	}
	if pids, _ := f.GetIntSlice("pid"); len(pids) > 0 {
		payload["pid"] = pids
	}
	if f.Changed("exact-level") {
		n, _ := f.GetInt("exact-level")
		payload["exact_level"] = n
	}
	if n, _ := f.GetInt("max-descend"); n > 0 {
		payload["max_descend"] = n
	}
	if f.Lookup("grid") != nil {
		if g, _ := f.GetString("grid"); g != "" {
			payload["grid"] = g
		}
	}

	wheres, _ := f.GetStringArray("where")
	if len(wheres) > 0 {
		where := make(map[string]interface{}, len(wheres))
		for _, w := range wheres {
			k, v, ok := strings.Cut(w, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("--where 格式应为 Field=value: %s", w)
			}
			where[strings.TrimSpace(k)] = v
		}
		payload["where"] = where
	}

	callPayload(cmd, payload)
	return payload, nil
}
