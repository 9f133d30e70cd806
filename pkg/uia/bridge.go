// Package uia 通过 Python (pywinauto) 子进程读取 Windows UI Automation 树
package uia

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
	"github.com/zoeyai/zoeylocate/pkg/python"
)

const (
	// NoDepthLimit 导出深度不设上限
	NoDepthLimit = 0
	// DefaultScriptTimeout 单次导出超时
	DefaultScriptTimeout = 10 * time.Second
)

// Runner 执行 Python 脚本并返回标准输出
type Runner func(ctx context.Context, script string) ([]byte, error)

// Bridge UI 树快照提供者
//
// 每次快照执行一次导出脚本，把起点的祖先链（含各级兄弟）和起点子树转换为 tree.StaticTree。
// root 为窗口句柄（十进制或 0x 十六进制）；为空时从桌面开始。
type Bridge struct {
	maxDepth int
	timeout  time.Duration
	run      Runner
}

// Option Bridge 选项
type Option func(*Bridge)

// WithMaxDepth 限制向下导出的深度，0 表示不限；超过限制的查询按参数错误拒绝
func WithMaxDepth(depth int) Option {
	return func(b *Bridge) {
		if depth >= 0 {
			b.maxDepth = depth
		}
	}
}

// WithScriptTimeout 设置单次导出超时
func WithScriptTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithRunner 替换脚本执行方式
func WithRunner(r Runner) Option {
	return func(b *Bridge) {
		if r != nil {
			b.run = r
		}
	}
}

// NewBridge 创建桥接提供者，默认使用检测到的 Python 解释器
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		maxDepth: NoDepthLimit,
		timeout:  DefaultScriptTimeout,
		run:      python.Detect().Run,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsSupported 检查是否支持 UI Automation（Windows + Python + pywinauto）
func IsSupported() bool {
	if runtime.GOOS != "windows" {
		return false
	}
	info := python.Detect()
	if !info.Available {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultScriptTimeout)
	defer cancel()
	return info.HasModule(ctx, "pywinauto")
}

// SupportsField 导出脚本包含全部已知属性
func (b *Bridge) SupportsField(f tree.Field) bool {
	return tree.IsKnownField(f)
}

// CheckScope 向下的范围不能超过导出深度限制
func (b *Bridge) CheckScope(scope tree.Scope) error {
	if b.maxDepth == NoDepthLimit {
		return nil
	}
	if scope.Down < 0 {
		return locate.Malformed("max_descend_level", "不限深度的搜索超过导出深度限制 %d", b.maxDepth)
	}
	if scope.Down > b.maxDepth {
		return locate.Malformed("max_descend_level", "搜索深度 %d 超过导出深度限制 %d", scope.Down, b.maxDepth)
	}
	return nil
}

// dump 导出脚本的输出
type dump struct {
	Root  *tree.Node   `json:"root"`
	Start tree.NodeRef `json:"start"`
	Error *BridgeError `json:"error"`
}

// Snapshot 导出起点的整棵子树（受导出深度限制）
func (b *Bridge) Snapshot(root tree.NodeRef) (tree.Walker, error) {
	down := -1
	if b.maxDepth != NoDepthLimit {
		down = b.maxDepth
	}
	return b.SnapshotScope(root, tree.Scope{Down: down})
}

// SnapshotScope 按查询范围导出快照
func (b *Bridge) SnapshotScope(root tree.NodeRef, scope tree.Scope) (tree.Walker, error) {
	if err := b.CheckScope(scope); err != nil {
		return nil, err
	}
	handle, err := parseHandle(root)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	start := time.Now()
	out, err := b.run(ctx, buildDumpScript(handle, scope))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, classify("uia.snapshot", &BridgeError{Type: "TimeoutError", Message: "导出 UI 树超时"})
		}
		return nil, fmt.Errorf("uia.snapshot: %w", err)
	}
	logger.Debug("[uia] 导出 UI 树: handle=%d, up=%d, down=%d, %d 字节, %.1fms",
		handle, scope.Up, scope.Down, len(out), float64(time.Since(start).Microseconds())/1000)

	return parseDump(out)
}

// parseDump 解析导出结果
func parseDump(raw []byte) (tree.Walker, error) {
	var d dump
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("解析 UI 树失败: %w", err)
	}
	if d.Error != nil {
		return nil, classify("uia.snapshot", d.Error)
	}
	if d.Root == nil {
		return nil, fmt.Errorf("UI 树为空")
	}

	// 导出的根是最上层祖先，start 才是搜索起点
	t, err := tree.NewStaticTree(d.Root, d.Start)
	if err != nil {
		return nil, err
	}
	return t.WithContentRevision(raw), nil
}

// parseHandle 解析窗口句柄
func parseHandle(root tree.NodeRef) (int64, error) {
	if root == "" {
		return 0, nil
	}
	h, err := strconv.ParseInt(string(root), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("无效的窗口句柄: %s", root)
	}
	return h, nil
}
