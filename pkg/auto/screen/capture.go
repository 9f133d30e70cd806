// Package screen 截取屏幕区域，作为视觉定位的快照提供者
package screen

import (
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

// Screen 基于 robotgo 的屏幕快照提供者
//
// 区域与结果都使用截图的物理像素坐标；与 robotgo 输入坐标之间的 DPI 换算在内部完成。
type Screen struct {
	now func() time.Time
}

// New 创建屏幕快照提供者
func New() *Screen {
	return &Screen{now: time.Now}
}

// Capture 截取区域；region 为空时截取整个屏幕
//
// 截图失败通常是短暂的（锁屏、UAC 安全桌面切换），按可恢复错误返回。
func (s *Screen) Capture(region image.Rectangle) (*visual.Frame, error) {
	var (
		img image.Image
		err error
	)

	if region.Empty() {
		img, err = robotgo.CaptureImg()
	} else {
		screen := image.Rectangle{Max: image.Pt(Size())}
		clipped := region.Intersect(screen)
		if clipped.Empty() {
			return nil, fmt.Errorf("截图区域 %v 不在屏幕 %v 内", region, screen)
		}
		region = clipped
		x, y, w, h := NormalizeRegionForInput(region.Min.X, region.Min.Y, region.Dx(), region.Dy())
		img, err = robotgo.CaptureImg(x, y, w, h)
	}

	if err != nil {
		return nil, locate.Transient("screen.capture", err)
	}
	if img == nil {
		return nil, locate.Transient("screen.capture", fmt.Errorf("截图为空"))
	}

	bounds := region
	if bounds.Empty() {
		bounds = image.Rectangle{Max: img.Bounds().Size()}
	} else {
		// 以实际截图尺寸为准（DPI 换算可能有 1 像素误差）
		bounds.Max = bounds.Min.Add(img.Bounds().Size())
	}
	return visual.NewFrame(bounds, img, s.now()), nil
}

// Size 获取屏幕尺寸（物理像素，与截图分辨率一致）
func Size() (width, height int) {
	return GetPhysicalScreenSize()
}

// DisplayCount 获取显示器数量
func DisplayCount() int {
	return robotgo.DisplaysNum()
}
