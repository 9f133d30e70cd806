// Package window 按标题或进程名查找顶层窗口，用于限定查找范围
package window

import (
	"fmt"
	"image"
	"strings"
)

// Info 顶层窗口信息
type Info struct {
	// Handle 原生窗口句柄；不支持句柄的平台为 0
	Handle    int64           `json:"handle" yaml:"handle"`
	PID       int             `json:"pid" yaml:"pid"`
	Title     string          `json:"title" yaml:"title"`
	OwnerName string          `json:"owner_name" yaml:"owner_name"`
	Bounds    image.Rectangle `json:"-" yaml:"-"`
}

// Lister 枚举顶层窗口
type Lister func() ([]Info, error)

// List 枚举当前可见的顶层窗口
func List() ([]Info, error) {
	return listPlatform()
}

// Filter 按标题或所属进程名过滤（不区分大小写的子串匹配）
func Filter(windows []Info, query string) []Info {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return windows
	}
	var out []Info
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), q) || strings.Contains(strings.ToLower(w.OwnerName), q) {
			out = append(out, w)
		}
	}
	return out
}

// Find 返回第一个标题或进程名包含 query 的窗口
//
// 标题完全相同的窗口优先于子串匹配。
func Find(list Lister, query string) (*Info, error) {
	if list == nil {
		list = List
	}
	windows, err := list()
	if err != nil {
		return nil, fmt.Errorf("枚举窗口失败: %w", err)
	}
	matched := Filter(windows, query)
	if len(matched) == 0 {
		return nil, fmt.Errorf("未找到标题包含 %q 的窗口", query)
	}
	for i := range matched {
		if strings.EqualFold(matched[i].Title, strings.TrimSpace(query)) {
			return &matched[i], nil
		}
	}
	return &matched[0], nil
}

// ByTitle 在当前窗口中查找
func ByTitle(query string) (*Info, error) {
	return Find(List, query)
}
