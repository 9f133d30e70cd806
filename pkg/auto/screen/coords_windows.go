//go:build windows

package screen

import (
	"math"
	"sync"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/zoeylocate/internal/logger"
)

// Windows 上 robotgo.CaptureImg 总是返回物理像素，而 GetScreenSize 与输入坐标
// 在不同版本下可能是逻辑像素。启动后第一次换算时对比两者得到 coordScale：
//
//	截图坐标 / coordScale = robotgo 坐标
var (
	scaleMu       sync.Mutex
	scaleX        float64
	scaleY        float64
	scaleDetected bool
)

func coordinateScale() (float64, float64) {
	scaleMu.Lock()
	defer scaleMu.Unlock()

	if !scaleDetected {
		scaleX, scaleY = detectCoordinateScale()
		scaleDetected = true
		rw, rh := robotgo.GetScreenSize()
		logger.Debug("[screen] robotgo_screen=%dx%d coordScale=%.3fx%.3f", rw, rh, scaleX, scaleY)
	}
	return scaleX, scaleY
}

func detectCoordinateScale() (float64, float64) {
	reportedW, reportedH := robotgo.GetScreenSize()
	if reportedW <= 0 || reportedH <= 0 {
		return 1, 1
	}
	img, err := robotgo.CaptureImg()
	if err != nil || img == nil {
		return 1, 1
	}
	b := img.Bounds()
	return normalizeScale(float64(b.Dx()) / float64(reportedW)),
		normalizeScale(float64(b.Dy()) / float64(reportedH))
}

// normalizeScale 排除异常值；接近 1 时按 1 处理
func normalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0.5 || v > 4.0 {
		return 1
	}
	if math.Abs(v-1) < 0.05 {
		return 1
	}
	return v
}

// ResetCoordinateScaleCache 显示设置变化后重新探测
func ResetCoordinateScaleCache() {
	scaleMu.Lock()
	defer scaleMu.Unlock()
	scaleDetected = false
}

// NormalizeRegionForInput 将截图物理区域转换为 robotgo 输入区域
func NormalizeRegionForInput(x, y, width, height int) (int, int, int, int) {
	sx, sy := coordinateScale()
	nw, nh := scaleInt(width, 1/sx), scaleInt(height, 1/sy)
	if width > 0 && nw < 1 {
		nw = 1
	}
	if height > 0 && nh < 1 {
		nh = 1
	}
	return scaleInt(x, 1/sx), scaleInt(y, 1/sy), nw, nh
}

// NormalizePointForScreen 将 robotgo 坐标转换为截图物理坐标
func NormalizePointForScreen(x, y int) (int, int) {
	sx, sy := coordinateScale()
	return scaleInt(x, sx), scaleInt(y, sy)
}

// GetPhysicalScreenSize 获取物理屏幕尺寸（与截图分辨率一致）
func GetPhysicalScreenSize() (width, height int) {
	w, h := robotgo.GetScreenSize()
	return NormalizePointForScreen(w, h)
}

func scaleInt(value int, factor float64) int {
	if factor <= 0 {
		return value
	}
	return int(math.Round(float64(value) * factor))
}
