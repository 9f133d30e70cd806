//go:build !windows

package window

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// listPlatform 通过 robotgo 按进程枚举窗口；没有原生句柄
func listPlatform() ([]Info, error) {
	pids, err := robotgo.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	var windows []Info
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if title == "" {
			continue
		}
		name, _ := robotgo.FindName(pid)
		x, y, w, h := robotgo.GetBounds(pid)
		windows = append(windows, Info{
			PID:       pid,
			Title:     title,
			OwnerName: name,
			Bounds:    image.Rect(x, y, x+w, y+h),
		})
	}
	return windows, nil
}
