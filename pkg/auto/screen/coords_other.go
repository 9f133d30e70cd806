//go:build !windows

package screen

import "github.com/go-vgo/robotgo"

// NormalizeRegionForInput 非 Windows 平台截图坐标与 robotgo 坐标一致
func NormalizeRegionForInput(x, y, width, height int) (int, int, int, int) {
	return x, y, width, height
}

// NormalizePointForScreen 非 Windows 平台无需缩放
func NormalizePointForScreen(x, y int) (int, int) {
	return x, y
}

// GetPhysicalScreenSize 获取物理屏幕尺寸（macOS Retina 由 robotgo 自行处理）
func GetPhysicalScreenSize() (width, height int) {
	return robotgo.GetScreenSize()
}

// ResetCoordinateScaleCache 非 Windows 平台无操作
func ResetCoordinateScaleCache() {}
