//go:build windows

package window

import (
	"image"
	"syscall"
	"unsafe"
)

var (
	user32                       = syscall.NewLazyDLL("user32.dll")
	kernel32                     = syscall.NewLazyDLL("kernel32.dll")
	psapi                        = syscall.NewLazyDLL("psapi.dll")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procOpenProcess              = kernel32.NewProc("OpenProcess")
	procCloseHandle              = kernel32.NewProc("CloseHandle")
	procGetModuleBaseNameW       = psapi.NewProc("GetModuleBaseNameW")
)

const (
	gwlStyle   = ^uintptr(15) // -16
	gwlExStyle = ^uintptr(19) // -20

	wsVisible      uintptr = 0x10000000
	wsExToolWindow uintptr = 0x00000080
	wsExAppWindow  uintptr = 0x00040000

	processQueryInformation = 0x0400
	processVMRead           = 0x0010

	minWindowSize = 50
)

type rect struct {
	Left, Top, Right, Bottom int32
}

// listPlatform 使用 EnumWindows 枚举，跳过不可见、工具窗口与过小的窗口
func listPlatform() ([]Info, error) {
	windows := make([]Info, 0, 64)

	callback := syscall.NewCallback(func(hwnd syscall.Handle, _ uintptr) uintptr {
		if ret, _, _ := procIsWindowVisible.Call(uintptr(hwnd)); ret == 0 {
			return 1
		}
		style, _, _ := procGetWindowLongW.Call(uintptr(hwnd), gwlStyle)
		exStyle, _, _ := procGetWindowLongW.Call(uintptr(hwnd), gwlExStyle)
		if style&wsVisible == 0 {
			return 1
		}
		if exStyle&wsExToolWindow != 0 && exStyle&wsExAppWindow == 0 {
			return 1
		}

		length, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
		if length == 0 {
			return 1
		}
		buf := make([]uint16, length+1)
		procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(length+1))
		title := syscall.UTF16ToString(buf)
		if title == "" {
			return 1
		}

		var pid uint32
		procGetWindowThreadProcessId.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pid)))
		if pid == 0 {
			return 1
		}

		var r rect
		procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
		bounds := image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
		if bounds.Dx() < minWindowSize || bounds.Dy() < minWindowSize {
			return 1
		}

		windows = append(windows, Info{
			Handle:    int64(hwnd),
			PID:       int(pid),
			Title:     title,
			OwnerName: processName(pid),
			Bounds:    bounds,
		})
		return 1
	})

	procEnumWindows.Call(callback, 0)
	return windows, nil
}

// processName 通过 PID 获取进程名称
func processName(pid uint32) string {
	handle, _, _ := procOpenProcess.Call(uintptr(processQueryInformation|processVMRead), 0, uintptr(pid))
	if handle == 0 {
		return ""
	}
	defer procCloseHandle.Call(handle)

	buf := make([]uint16, 260)
	n, _, _ := procGetModuleBaseNameW.Call(handle, 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}
