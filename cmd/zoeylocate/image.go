package main

import (
	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocate/pkg/executor"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Locate template images on screen",
	Long: `按模板图像在屏幕上查找。模板可以是模板目录下的名称（可省略扩展名）、文件路径或 data URL，
名称后可带 "@0.9" 指定相似度。多个模板按声明顺序优先。`,
}

// imageSub 描述一个 image 子命令
type imageSub struct {
	use, short string
	taskType   string
	noFail     bool
	target     bool
}

var imageSubs = []imageSub{
	{use: "find", short: "Find the first matching template", taskType: executor.TaskTypeImageFind, noFail: true, target: true},
	{use: "wait", short: "Wait until any template appears", taskType: executor.TaskTypeImageWait, noFail: true, target: true},
	{use: "findall", short: "Find every match of every template", taskType: executor.TaskTypeImageFindAll},
	{use: "markers", short: "Find every match, merging overlapping detections", taskType: executor.TaskTypeImageMarkers},
	{use: "vanish", short: "Wait until any template disappears", taskType: executor.TaskTypeImageVanish},
	{use: "exists", short: "Check whether any template is on screen", taskType: executor.TaskTypeImageExists},
}

func init() {
	rootCmd.AddCommand(imageCmd)
	for _, sub := range imageSubs {
		imageCmd.AddCommand(newImageCommand(sub))
	}
}

func newImageCommand(sub imageSub) *cobra.Command {
	cmd := &cobra.Command{
		Use:   sub.use + " TEMPLATE [TEMPLATE...]",
		Short: sub.short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := imagePayload(cmd, args)
			if err != nil {
				return err
			}
			return runTask(sub.taskType, payload)
		},
	}
	cmd.Flags().Float64("similarity", 0, "相似度阈值 (0, 1]，覆盖模板自带与默认值")
	cmd.Flags().String("region", "", "查找区域 x,y,w,h；指定 --window 时相对窗口左上角")
	cmd.Flags().String("window", "", "只在标题或进程名包含该文本的窗口内查找")
	if sub.target {
		cmd.Flags().String("target", "center", "输出坐标位置: center, top_left, top_right, bottom_left, bottom_right")
		cmd.Flags().String("grid", "", "网格位置 rows.cols.row.col，输出该格中心")
	}
	addCallFlags(cmd, sub.noFail)
	return cmd
}

func imagePayload(cmd *cobra.Command, args []string) (map[string]interface{}, error) {
	payload := map[string]interface{}{"images": args}
	if s, _ := cmd.Flags().GetFloat64("similarity"); cmd.Flags().Changed("similarity") {
		payload["similarity"] = s
	}
	if r, _ := cmd.Flags().GetString("region"); r != "" {
		payload["region"] = r
	}
	if w, _ := cmd.Flags().GetString("window"); w != "" {
		payload["window"] = w
	}
	if cmd.Flags().Lookup("target") != nil {
		target, _ := cmd.Flags().GetString("target")
		payload["target"] = target
		if g, _ := cmd.Flags().GetString("grid"); g != "" {
			payload["grid"] = g
		}
	}
	callPayload(cmd, payload)
	return payload, nil
}
