package locate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 错误分类（配合 errors.Is 使用）
var (
	// ErrMalformedQuery 查询构造非法，轮询前立即失败，不重试
	ErrMalformedQuery = errors.New("查询参数非法")
	// ErrTransient 可恢复的提供者错误，在轮询中被吞掉并重试
	ErrTransient = errors.New("提供者暂时不可用")
	// ErrNotFound 超时仍未找到目标
	ErrNotFound = errors.New("未找到目标")
	// ErrProviderFatal 不可恢复的提供者错误，立即终止轮询
	ErrProviderFatal = errors.New("提供者错误")
	// ErrAmbiguousRegistry 控件类型注册冲突（配置错误）
	ErrAmbiguousRegistry = errors.New("控件类型注册冲突")
	// ErrNoLastMatch 尚无成功的查找结果
	ErrNoLastMatch = errors.New("没有最近的匹配结果")
)

// MalformedQueryError 查询构造错误
type MalformedQueryError struct {
	Field  string
	Reason string
}

// Malformed 创建查询构造错误
func Malformed(field, format string, args ...interface{}) *MalformedQueryError {
	return &MalformedQueryError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *MalformedQueryError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("查询参数非法: %s", e.Reason)
	}
	return fmt.Sprintf("查询参数非法 [%s]: %s", e.Field, e.Reason)
}

func (e *MalformedQueryError) Is(target error) bool { return target == ErrMalformedQuery }

// TransientProviderError 可恢复的提供者错误（时序竞争、订阅者失败等）
type TransientProviderError struct {
	Op  string
	Err error
}

// Transient 将提供者错误标记为可恢复
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientProviderError{Op: op, Err: err}
}

func (e *TransientProviderError) Error() string {
	return fmt.Sprintf("%s: 暂时失败: %v", e.Op, e.Err)
}

func (e *TransientProviderError) Unwrap() error { return e.Err }

func (e *TransientProviderError) Is(target error) bool { return target == ErrTransient }

// IsTransient 判断错误是否可重试
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// ProviderFatalError 不可恢复的提供者错误
type ProviderFatalError struct {
	Op  string
	Err error
}

func (e *ProviderFatalError) Error() string {
	return fmt.Sprintf("%s 失败: %v", e.Op, e.Err)
}

func (e *ProviderFatalError) Unwrap() error { return e.Err }

func (e *ProviderFatalError) Is(target error) bool { return target == ErrProviderFatal }

// NotFoundError 超时未找到
type NotFoundError struct {
	// Query 查询的描述
	Query string
	// Mode 轮询模式
	Mode Mode
	// Timeout 实际使用的超时时间
	Timeout time.Duration
	// Elapsed 实际耗时
	Elapsed time.Duration
	// Attempts 快照/评估次数
	Attempts int
	// Snapshot 最后一次成功获取的快照（可能为 nil）
	Snapshot interface{}
	// Cause 持续到超时的最后一个暂时性错误
	Cause error
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	if e.Mode == ModeVanish {
		fmt.Fprintf(&b, "等待消失超时: %s", e.Query)
	} else {
		fmt.Fprintf(&b, "等待目标超时: %s", e.Query)
	}
	fmt.Fprintf(&b, " (timeout=%s, attempts=%d)", e.Timeout, e.Attempts)
	if e.Cause != nil {
		fmt.Fprintf(&b, ", 最后错误: %v", e.Cause)
	}
	return b.String()
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousRegistryError 多个控件种类声明了同一个 (控件类型, 角色)
type AmbiguousRegistryError struct {
	ControlType int
	Role        int
	Kinds       []string
}

func (e *AmbiguousRegistryError) Error() string {
	return fmt.Sprintf("控件类型注册冲突: control_type=%d role=%d 被多个种类声明: %s",
		e.ControlType, e.Role, strings.Join(e.Kinds, ", "))
}

func (e *AmbiguousRegistryError) Is(target error) bool { return target == ErrAmbiguousRegistry }
