// Package python 查找 Python 解释器并执行桥接脚本
package python

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/zoeyai/zoeylocate/pkg/cmdutil"
)

// Info Python 环境信息
type Info struct {
	Available bool   // Python 是否可用
	Version   string // 版本号，如 "3.11.5"
	Path      string // 可执行文件路径
}

var (
	detectOnce sync.Once
	detected   *Info
)

// Detect 检测 Python 环境（结果缓存）
func Detect() *Info {
	detectOnce.Do(func() {
		detected = detect([]string{"python3", "python"})
	})
	return detected
}

func detect(candidates []string) *Info {
	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}

		version, err := version(path)
		if err != nil || strings.HasPrefix(version, "2.") {
			continue
		}
		return &Info{Available: true, Version: version, Path: path}
	}
	return &Info{}
}

// version 执行 python --version 获取版本号
func version(path string) (string, error) {
	cmd := exec.Command(path, "--version")
	cmdutil.HideWindow(cmd)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(output))
	if parts := strings.SplitN(line, " ", 2); len(parts) == 2 {
		return parts[1], nil
	}
	return line, nil
}

// ScriptError 脚本以非零状态退出
type ScriptError struct {
	Err    error
	Stdout []byte
	Stderr string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("python 执行失败: %v: %s", e.Err, strings.TrimSpace(e.Stderr))
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Run 用解释器执行脚本，返回标准输出
func (i *Info) Run(ctx context.Context, script string) ([]byte, error) {
	if i == nil || !i.Available {
		return nil, fmt.Errorf("未找到 Python 解释器")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, i.Path, "-c", script)
	cmdutil.HideWindow(cmd) // Windows 上隐藏 cmd 黑色窗口
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ScriptError{Err: err, Stdout: stdout.Bytes(), Stderr: stderr.String()}
	}
	return stdout.Bytes(), nil
}

// HasModule 检查模块是否可导入
func (i *Info) HasModule(ctx context.Context, module string) bool {
	_, err := i.Run(ctx, "import "+module)
	return err == nil
}
