package locate

import (
	"time"

	"github.com/zoeyai/zoeylocate/internal/logger"
)

// Mode 轮询模式
type Mode int

const (
	// ModeAppear 任一子查询出现候选即成功
	ModeAppear Mode = iota
	// ModeVanish 任一子查询候选为空即成功
	ModeVanish
	// ModeAll 评估全部子查询，候选总数大于 0 即成功
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModeAppear:
		return "appear"
	case ModeVanish:
		return "vanish"
	case ModeAll:
		return "all"
	default:
		return "unknown"
	}
}

// UseDefault 表示使用定位器配置的默认超时
const UseDefault time.Duration = -1

const (
	// DefaultTimeout 默认超时时间
	DefaultTimeout = 3 * time.Second
	// DefaultPollInterval 默认轮询间隔
	DefaultPollInterval = 200 * time.Millisecond
)

// Clock 时间来源，测试中可替换
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// DiagnosticsSink 接收最终未找到时的快照与查询，用于事后排查
type DiagnosticsSink interface {
	RecordMiss(miss *NotFoundError) error
}

// Option Poller 配置选项
type Option func(*Poller)

// WithName 设置定位器名称（日志与指标标签）
func WithName(name string) Option {
	return func(p *Poller) {
		p.name = name
	}
}

// WithDefaultTimeout 设置默认超时
func WithDefaultTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithInterval 设置轮询间隔
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock 替换时间来源
func WithClock(c Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *logger.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// WithDiagnostics 设置诊断输出
func WithDiagnostics(sink DiagnosticsSink) Option {
	return func(p *Poller) {
		p.sink = sink
	}
}

// CallOptions 单次查找调用的配置
type CallOptions struct {
	// Timeout 超时；UseDefault 表示使用定位器默认值，0 表示只评估一次
	Timeout time.Duration
	// FailOnMiss 未找到时是否返回 NotFoundError
	FailOnMiss bool
}

// CallOption 单次调用配置选项
type CallOption func(*CallOptions)

// ApplyCallOptions 应用调用选项
func ApplyCallOptions(opts ...CallOption) CallOptions {
	o := CallOptions{
		Timeout:    UseDefault,
		FailOnMiss: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTimeout 设置本次调用的超时时间
func WithTimeout(d time.Duration) CallOption {
	return func(o *CallOptions) {
		if d < 0 {
			d = UseDefault
		}
		o.Timeout = d
	}
}

// NoFail 未找到时返回空结果而不是错误
func NoFail() CallOption {
	return func(o *CallOptions) {
		o.FailOnMiss = false
	}
}

// WithFailOnMiss 设置未找到时是否返回错误
func WithFailOnMiss(fail bool) CallOption {
	return func(o *CallOptions) {
		o.FailOnMiss = fail
	}
}
