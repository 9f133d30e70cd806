package main

import (
	"fmt"
	"image"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocate/pkg/auto/screen"
)

// captureCmd 截取屏幕区域并输出 data URL，可直接作为 images 参数的模板引用
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a screen region as a data URL template reference",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, _ := cmd.Flags().GetString("region")
		region, err := parseRegion(spec)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		quality, _ := cmd.Flags().GetInt("quality")

		frame, err := screen.New().Capture(region)
		if err != nil {
			return err
		}
		url, err := screen.ToDataURL(frame.Image, format, quality)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

// parseRegion 解析 "x,y,w,h"；空字符串表示整个屏幕
func parseRegion(spec string) (image.Rectangle, error) {
	if strings.TrimSpace(spec) == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("region 格式应为 x,y,w,h: %s", spec)
	}
	nums := make([]int, 4)
	for i, p := range parts {
		n, err := cast.ToIntE(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("region 格式应为 x,y,w,h: %s", spec)
		}
		nums[i] = n
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("region 宽高必须为正数: %s", spec)
	}
	return image.Rect(nums[0], nums[1], nums[0]+nums[2], nums[1]+nums[3]), nil
}

func init() {
	captureCmd.Flags().String("region", "", "截图区域 x,y,w,h，默认整个屏幕")
	captureCmd.Flags().String("format", "png", "编码格式 png|jpeg")
	captureCmd.Flags().Int("quality", 80, "JPEG 质量 1-100")
	rootCmd.AddCommand(captureCmd)
}
