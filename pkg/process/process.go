// Package process 按名称解析进程，用于按所属进程过滤 UI 元素
package process

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Info 进程信息
type Info struct {
	PID  int    `json:"pid" yaml:"pid"`
	Name string `json:"name" yaml:"name"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// List 列出全部进程（按 PID 排序）
func List(ctx context.Context) ([]Info, error) {
	return filter(ctx, func(string) bool { return true })
}

// Find 按名称查找进程（不区分大小写，支持部分匹配）
func Find(ctx context.Context, name string) ([]Info, error) {
	want := strings.ToLower(name)
	return filter(ctx, func(procName string) bool {
		return strings.Contains(strings.ToLower(procName), want)
	})
}

// PIDsByName 按名称精确查找 PID（不区分大小写，可省略 .exe 后缀）
func PIDsByName(ctx context.Context, name string) ([]int, error) {
	want := normalize(name)
	if want == "" {
		return nil, fmt.Errorf("进程名为空")
	}
	infos, err := filter(ctx, func(procName string) bool {
		return normalize(procName) == want
	})
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("未找到进程: %s", name)
	}
	pids := make([]int, len(infos))
	for i, info := range infos {
		pids[i] = info.PID
	}
	return pids, nil
}

// Get 按 PID 获取进程信息
func Get(ctx context.Context, pid int) (*Info, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d", pid)
	}
	name, _ := proc.NameWithContext(ctx)
	exe, _ := proc.ExeWithContext(ctx)
	return &Info{PID: pid, Name: name, Path: exe}, nil
}

// IsRunning 检查进程是否正在运行
func IsRunning(ctx context.Context, pid int) bool {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunningWithContext(ctx)
	return err == nil && running
}

func filter(ctx context.Context, keep func(name string) bool) ([]Info, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	var out []Info
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil || !keep(name) {
			continue
		}
		exe, _ := proc.ExeWithContext(ctx)
		out = append(out, Info{PID: int(proc.Pid), Name: name, Path: exe})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

// normalize 去掉目录与 .exe 后缀，统一小写
func normalize(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
