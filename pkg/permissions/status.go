package permissions

// Status 权限状态
type Status struct {
	// ScreenRecording 未授权时截图只包含桌面与本应用窗口，模板永远找不到
	ScreenRecording bool `json:"screen_recording" yaml:"screen_recording"`
}

// Granted 所需权限是否全部授予
func (s *Status) Granted() bool {
	return s.ScreenRecording
}

// Instructions 未授权时的处理说明
func (s *Status) Instructions() string {
	if s.Granted() {
		return ""
	}
	return "需要屏幕录制权限才能截屏查找图像:\n" +
		"  系统设置 > 隐私与安全性 > 屏幕录制\n" +
		"授权后需要重启终端或应用才能生效。"
}
