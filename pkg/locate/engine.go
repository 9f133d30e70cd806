package locate

import (
	"errors"
	"fmt"
	"time"

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/internal/metrics"
)

// Probe 一次查找的快照来源与候选评估器
//
// S 为快照类型，C 为候选类型。Evaluate 必须是纯函数：
// 同一快照、同一子查询总是得到相同的候选列表。
type Probe[S any, C any] interface {
	// String 查询描述，用于日志与错误
	String() string
	// Len 子查询数量
	Len() int
	// Capture 获取一份新的快照
	Capture() (S, error)
	// Revision 快照内容版本；ok=false 表示无法比较，不复用上一轮评估
	Revision(snap S) (rev uint64, ok bool)
	// Evaluate 在快照上评估第 i 个子查询
	Evaluate(snap S, i int) ([]C, error)
}

// Request 一次轮询请求
type Request struct {
	Mode    Mode
	Timeout time.Duration
	// Diagnose 最终未找到时是否交给 DiagnosticsSink
	Diagnose bool
}

// Outcome 轮询成功的结果
type Outcome[S any, C any] struct {
	// Index 出现模式下命中的子查询；消失模式下消失的子查询；ModeAll 为 -1
	Index int
	// Candidates 命中子查询的候选（出现模式）
	Candidates []C
	// Results 每个子查询的候选（ModeAll）
	Results [][]C
	// Snapshot 产生结果的快照
	Snapshot S
	Attempts int
	Elapsed  time.Duration
}

// Poller 轮询重试引擎
//
// 单线程同步执行：截图 -> 评估 -> 休眠，直到成功或超时。
// 一个 Poller 可被多个定位器共享，本身不保存查找状态。
type Poller struct {
	name     string
	timeout  time.Duration
	interval time.Duration
	clock    Clock
	log      *logger.Logger
	sink     DiagnosticsSink
}

// NewPoller 创建轮询引擎
func NewPoller(opts ...Option) *Poller {
	p := &Poller{
		name:     "locate",
		timeout:  DefaultTimeout,
		interval: DefaultPollInterval,
		clock:    realClock{},
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name 返回名称
func (p *Poller) Name() string { return p.name }

// DefaultTimeout 返回默认超时
func (p *Poller) DefaultTimeout() time.Duration { return p.timeout }

// Interval 返回轮询间隔
func (p *Poller) Interval() time.Duration { return p.interval }

// Logger 返回日志记录器
func (p *Poller) Logger() *logger.Logger { return p.log }

// resolveTimeout 解析实际超时
func (p *Poller) resolveTimeout(d time.Duration) time.Duration {
	if d < 0 {
		return p.timeout
	}
	return d
}

// Poll 驱动快照提供者与评估器直到满足条件或超时
//
// 超时为 0 时只执行一轮，不休眠。暂时性错误被记录并视为本轮无结果；
// 其余错误立即返回。超时返回 *NotFoundError。
func Poll[S any, C any](p *Poller, probe Probe[S, C], req Request) (*Outcome[S, C], error) {
	n := probe.Len()
	if n == 0 {
		return nil, Malformed("", "查询不包含任何子查询")
	}

	timeout := p.resolveTimeout(req.Timeout)
	start := p.clock.Now()

	var (
		attempts      int
		lastSnap      S
		haveSnap      bool
		lastTransient error
		prevRev       uint64
		prevValid     bool
		prevResults   [][]C
	)

	for {
		attempts++
		metrics.AttemptsTotal.WithLabelValues(p.name).Inc()

		var results [][]C
		transient := false

		snap, err := probe.Capture()
		if err != nil {
			if !IsTransient(err) {
				return nil, p.fail(req, start, probe, classifyFatal("capture", err))
			}
			transient = true
		} else {
			lastSnap, haveSnap = snap, true

			rev, ok := probe.Revision(snap)
			if ok && prevValid && rev == prevRev {
				results = prevResults
				metrics.ReusedEvaluationsTotal.WithLabelValues(p.name).Inc()
				p.log.Debug("[%s] 第 %d 轮: 快照未变化，复用上一轮评估", p.name, attempts)
			} else {
				results, err = evaluate(probe, snap, req.Mode)
				switch {
				case err == nil:
					prevRev, prevValid, prevResults = rev, ok, results
				case IsTransient(err):
					transient = true
					prevValid = false
				default:
					return nil, p.fail(req, start, probe, classifyFatal("evaluate", err))
				}
			}
		}

		if transient {
			lastTransient = err
			metrics.TransientErrorsTotal.WithLabelValues(p.name).Inc()
			p.log.Warn("[%s] 第 %d 轮: 提供者暂时失败，继续重试: %v", p.name, attempts, err)
		} else {
			lastTransient = nil
			if out, ok := decide[S, C](req.Mode, results); ok {
				out.Snapshot = snap
				out.Attempts = attempts
				out.Elapsed = p.clock.Now().Sub(start)
				p.succeed(req, probe, out.Elapsed, attempts)
				return out, nil
			}
			p.log.Debug("[%s] 第 %d 轮: 条件未满足 (%s)", p.name, attempts, req.Mode)
		}

		elapsed := p.clock.Now().Sub(start)
		if timeout == 0 || elapsed >= timeout {
			miss := &NotFoundError{
				Query:    probe.String(),
				Mode:     req.Mode,
				Timeout:  timeout,
				Elapsed:  elapsed,
				Attempts: attempts,
				Cause:    lastTransient,
			}
			if haveSnap {
				miss.Snapshot = lastSnap
			}
			p.miss(req, miss)
			return nil, miss
		}

		p.clock.Sleep(p.interval)
	}
}

// evaluate 按声明顺序评估子查询；出现/消失模式在首个决定性子查询处停止
func evaluate[S any, C any](probe Probe[S, C], snap S, mode Mode) ([][]C, error) {
	n := probe.Len()
	results := make([][]C, n)
	for i := 0; i < n; i++ {
		cands, err := probe.Evaluate(snap, i)
		if err != nil {
			return nil, err
		}
		results[i] = cands
		if mode == ModeAppear && len(cands) > 0 {
			break
		}
		if mode == ModeVanish && len(cands) == 0 {
			break
		}
	}
	return results, nil
}

// decide 根据模式判断本轮是否成功；较早声明的子查询优先
func decide[S any, C any](mode Mode, results [][]C) (*Outcome[S, C], bool) {
	switch mode {
	case ModeAppear:
		for i, cands := range results {
			if len(cands) > 0 {
				return &Outcome[S, C]{Index: i, Candidates: cands}, true
			}
		}
	case ModeVanish:
		for i, cands := range results {
			if len(cands) == 0 {
				return &Outcome[S, C]{Index: i}, true
			}
		}
	case ModeAll:
		total := 0
		for _, cands := range results {
			total += len(cands)
		}
		if total > 0 {
			return &Outcome[S, C]{Index: -1, Results: results}, true
		}
	}
	return nil, false
}

// classifyFatal 包装不可恢复错误；查询与注册错误原样返回
func classifyFatal(op string, err error) error {
	if errors.Is(err, ErrMalformedQuery) || errors.Is(err, ErrAmbiguousRegistry) || errors.Is(err, ErrProviderFatal) {
		return err
	}
	return &ProviderFatalError{Op: op, Err: err}
}

func category(mode Mode) string {
	switch mode {
	case ModeVanish:
		return "VANISH"
	case ModeAll:
		return "ALL"
	default:
		return "FIND"
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (p *Poller) succeed(req Request, probe fmt.Stringer, elapsed time.Duration, attempts int) {
	metrics.SearchesTotal.WithLabelValues(p.name, req.Mode.String(), "found").Inc()
	metrics.SearchDuration.WithLabelValues(p.name, req.Mode.String()).Observe(elapsed.Seconds())
	p.log.LogEvent(category(req.Mode), true, millis(elapsed),
		fmt.Sprintf("[%s] %s (attempts=%d)", p.name, probe.String(), attempts))
}

func (p *Poller) miss(req Request, miss *NotFoundError) {
	metrics.SearchesTotal.WithLabelValues(p.name, req.Mode.String(), "not_found").Inc()
	metrics.SearchDuration.WithLabelValues(p.name, req.Mode.String()).Observe(miss.Elapsed.Seconds())
	p.log.LogEvent(category(req.Mode), false, millis(miss.Elapsed),
		fmt.Sprintf("[%s] %s (attempts=%d)", p.name, miss.Query, miss.Attempts))

	if !req.Diagnose || p.sink == nil {
		return
	}
	if err := p.sink.RecordMiss(miss); err != nil {
		p.log.Error("[%s] 保存诊断信息失败: %v", p.name, err)
	}
}

func (p *Poller) fail(req Request, start time.Time, probe fmt.Stringer, err error) error {
	elapsed := p.clock.Now().Sub(start)
	metrics.SearchesTotal.WithLabelValues(p.name, req.Mode.String(), "error").Inc()
	metrics.SearchDuration.WithLabelValues(p.name, req.Mode.String()).Observe(elapsed.Seconds())
	p.log.LogEvent(category(req.Mode), false, millis(elapsed),
		fmt.Sprintf("[%s] %s: %v", p.name, probe.String(), err))
	return err
}
