//go:build !darwin

// Package permissions 检查截屏所需的系统权限（macOS 屏幕录制）
package permissions

// Check 非 macOS 系统不需要额外授权
func Check() *Status {
	return &Status{ScreenRecording: true}
}

// OpenScreenRecordingSettings 非 macOS 系统无操作
func OpenScreenRecordingSettings() {}
