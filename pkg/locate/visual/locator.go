package visual

import (
	"errors"
	"image"
	"time"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

// Locator 视觉定位器
//
// 每个定位器持有自己的最近匹配，只应在一个 goroutine 中使用。
type Locator struct {
	screen Screen
	corr   Correlator
	poller *locate.Poller
	region image.Rectangle
	last   locate.LastMatch[Match]
}

// NewLocator 创建视觉定位器
func NewLocator(screen Screen, corr Correlator, opts ...locate.Option) *Locator {
	base := []locate.Option{locate.WithName("visual")}
	return &Locator{
		screen: screen,
		corr:   corr,
		poller: locate.NewPoller(append(base, opts...)...),
	}
}

// WithRegion 返回只在指定屏幕区域内查找的新定位器（最近匹配不共享）
func (l *Locator) WithRegion(region image.Rectangle) *Locator {
	return &Locator{
		screen: l.screen,
		corr:   l.corr,
		poller: l.poller,
		region: region,
	}
}

// Region 查找区域，空表示整个屏幕
func (l *Locator) Region() image.Rectangle { return l.region }

// probe 将一次查询绑定到截图与评估
type probe struct {
	l *Locator
	q *PatternQuery
}

func (p probe) String() string { return p.q.String() }
func (p probe) Len() int       { return p.q.Len() }

func (p probe) Capture() (*Frame, error) {
	return p.l.screen.Capture(p.l.region)
}

func (p probe) Revision(f *Frame) (uint64, bool) {
	return f.Revision, f.Revision != 0
}

func (p probe) Evaluate(f *Frame, i int) ([]Candidate, error) {
	return Candidates(p.l.corr, f, p.q.At(i))
}

func (l *Locator) poll(q *PatternQuery, mode locate.Mode, timeout time.Duration, diagnose bool) (*locate.Outcome[*Frame, Candidate], error) {
	return locate.Poll[*Frame, Candidate](l.poller, probe{l: l, q: q}, locate.Request{
		Mode:     mode,
		Timeout:  timeout,
		Diagnose: diagnose,
	})
}

// Find 等待任一模板出现并返回最佳匹配
//
// 较早声明的模板优先，即使后面的模板得分更高。
// 默认超时后返回 *locate.NotFoundError；使用 locate.NoFail() 时返回 nil, nil。
func (l *Locator) Find(q *PatternQuery, opts ...locate.CallOption) (*Match, error) {
	o := locate.ApplyCallOptions(opts...)
	out, err := l.poll(q, locate.ModeAppear, o.Timeout, o.FailOnMiss)
	if err != nil {
		l.last.Clear()
		if errors.Is(err, locate.ErrNotFound) && !o.FailOnMiss {
			return nil, nil
		}
		return nil, err
	}

	best, _ := Best(out.Candidates)
	m := promote(out.Snapshot, q, out.Index, best)
	l.last.Set(m)
	return &m, nil
}

// Wait 等待模板出现，语义同 Find
func (l *Locator) Wait(q *PatternQuery, opts ...locate.CallOption) (*Match, error) {
	return l.Find(q, opts...)
}

// FindAll 返回所有模板的全部候选，按模板声明顺序、行优先排列
//
// 默认只截图一次；没有候选时返回空列表，不返回 NotFound。
func (l *Locator) FindAll(q *PatternQuery, opts ...locate.CallOption) ([]Match, error) {
	o := locate.ApplyCallOptions(opts...)
	out, err := l.pollAll(q, o)
	if err != nil || out == nil {
		l.last.Clear()
		return []Match{}, err
	}

	var matches []Match
	for i, cands := range out.Results {
		for _, c := range cands {
			matches = append(matches, promote(out.Snapshot, q, i, c))
		}
	}
	l.last.SetAll(matches)
	return matches, nil
}

// FindMarkers 查找全部候选后合并同一标记的重叠检测，每组返回一个匹配
//
// 匹配位置为组内按得分加权的质心，得分为组内平均分。
func (l *Locator) FindMarkers(q *PatternQuery, opts ...locate.CallOption) ([]Match, error) {
	o := locate.ApplyCallOptions(opts...)
	out, err := l.pollAll(q, o)
	if err != nil || out == nil {
		l.last.Clear()
		return []Match{}, err
	}

	var matches []Match
	for i, cands := range out.Results {
		w, h := q.At(i).Size()
		for _, g := range GroupCandidates(cands, w, h) {
			c := Candidate{X: roundInt(g.X), Y: roundInt(g.Y), Score: g.Score}
			matches = append(matches, promote(out.Snapshot, q, i, c))
		}
	}
	l.last.SetAll(matches)
	return matches, nil
}

// pollAll 全量评估；未找到不是错误，返回 nil, nil
func (l *Locator) pollAll(q *PatternQuery, o locate.CallOptions) (*locate.Outcome[*Frame, Candidate], error) {
	timeout := o.Timeout
	if timeout == locate.UseDefault {
		timeout = 0
	}
	out, err := l.poll(q, locate.ModeAll, timeout, false)
	if errors.Is(err, locate.ErrNotFound) {
		return nil, nil
	}
	return out, err
}

// WaitVanish 等待任一模板消失；超时返回 false 而不是错误
func (l *Locator) WaitVanish(q *PatternQuery, opts ...locate.CallOption) (bool, error) {
	o := locate.ApplyCallOptions(opts...)
	_, err := l.poll(q, locate.ModeVanish, o.Timeout, false)
	l.last.Clear()
	if err != nil {
		if errors.Is(err, locate.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Exists 只评估一次（除非指定超时），返回是否存在
func (l *Locator) Exists(q *PatternQuery, opts ...locate.CallOption) (bool, error) {
	opts = append([]locate.CallOption{locate.WithTimeout(0)}, opts...)
	opts = append(opts, locate.NoFail())
	m, err := l.Find(q, opts...)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// LastMatch 最近一次成功查找的匹配；没有时返回 locate.ErrNoLastMatch
func (l *Locator) LastMatch() (*Match, error) {
	return l.last.Get()
}

// LastMatches 最近一次 FindAll/FindMarkers 的全部匹配
func (l *Locator) LastMatches() []Match {
	return l.last.All()
}

func roundInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
