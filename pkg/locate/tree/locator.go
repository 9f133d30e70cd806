package tree

import (
	"errors"
	"time"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

// Locator UI 树定位器
//
// 每个定位器持有自己的最近匹配，只应在一个 goroutine 中使用。
type Locator struct {
	provider Provider
	registry *Registry
	root     NodeRef
	poller   *locate.Poller
	last     locate.LastMatch[*Element]
}

// NewLocator 创建 UI 树定位器，默认使用 DefaultRegistry
func NewLocator(p Provider, opts ...locate.Option) *Locator {
	base := []locate.Option{locate.WithName("tree")}
	return &Locator{
		provider: p,
		registry: DefaultRegistry(),
		poller:   locate.NewPoller(append(base, opts...)...),
	}
}

// WithRoot 返回以指定节点为搜索起点的新定位器（最近匹配不共享）
func (l *Locator) WithRoot(root NodeRef) *Locator {
	return &Locator{provider: l.provider, registry: l.registry, root: root, poller: l.poller}
}

// WithRegistry 返回使用指定注册表的新定位器
func (l *Locator) WithRegistry(reg *Registry) *Locator {
	return &Locator{provider: l.provider, registry: reg, root: l.root, poller: l.poller}
}

// Root 搜索起点，空表示提供者默认的根
func (l *Locator) Root() NodeRef { return l.root }

type probe struct {
	l      *Locator
	c      *Criteria
	single bool
}

func (p probe) String() string { return p.c.String() }
func (p probe) Len() int       { return 1 }

func (p probe) Capture() (Walker, error) {
	if sp, ok := p.l.provider.(ScopedProvider); ok {
		return sp.SnapshotScope(p.l.root, ScopeOf(p.c))
	}
	return p.l.provider.Snapshot(p.l.root)
}

func (p probe) Revision(w Walker) (uint64, bool) {
	return w.Revision()
}

func (p probe) Evaluate(w Walker, _ int) ([]NodeRef, error) {
	return Search(w, p.c, p.single)
}

// validate 检查提供者是否支持条件中的范围和属性
func (l *Locator) validate(c *Criteria) error {
	if sp, ok := l.provider.(ScopedProvider); ok {
		if err := sp.CheckScope(ScopeOf(c)); err != nil {
			return err
		}
	}
	fs, ok := l.provider.(FieldSupporter)
	if !ok {
		return nil
	}
	for _, f := range c.Fields() {
		if !fs.SupportsField(f) {
			return locate.Malformed(string(f), "提供者不支持该属性")
		}
	}
	return nil
}

func (l *Locator) poll(c *Criteria, mode locate.Mode, single bool, timeout time.Duration, diagnose bool) (*locate.Outcome[Walker, NodeRef], error) {
	if err := l.validate(c); err != nil {
		return nil, err
	}
	return locate.Poll[Walker, NodeRef](l.poller, probe{l: l, c: c, single: single}, locate.Request{
		Mode:     mode,
		Timeout:  timeout,
		Diagnose: diagnose,
	})
}

// Find 等待第一个满足条件的元素
//
// 遍历中最先找到的元素胜出，存在多个满足条件的元素不视为错误。
func (l *Locator) Find(c *Criteria, opts ...locate.CallOption) (*Element, error) {
	o := locate.ApplyCallOptions(opts...)
	out, err := l.poll(c, locate.ModeAppear, true, o.Timeout, o.FailOnMiss)
	if err != nil {
		l.last.Clear()
		if errors.Is(err, locate.ErrNotFound) && !o.FailOnMiss {
			return nil, nil
		}
		return nil, err
	}

	e, err := Wrap(out.Snapshot, out.Candidates[0], l.registry)
	if err != nil {
		l.last.Clear()
		return nil, err
	}
	l.last.Set(e)
	return e, nil
}

// Wait 等待元素出现，语义同 Find
func (l *Locator) Wait(c *Criteria, opts ...locate.CallOption) (*Element, error) {
	return l.Find(c, opts...)
}

// FindAll 返回全部满足条件的元素，按遍历顺序排列
//
// 默认只获取一次快照；没有结果时返回空列表，不返回 NotFound。
func (l *Locator) FindAll(c *Criteria, opts ...locate.CallOption) ([]*Element, error) {
	o := locate.ApplyCallOptions(opts...)
	timeout := o.Timeout
	if timeout == locate.UseDefault {
		timeout = 0
	}

	out, err := l.poll(c, locate.ModeAll, false, timeout, false)
	if err != nil {
		l.last.Clear()
		if errors.Is(err, locate.ErrNotFound) {
			return []*Element{}, nil
		}
		return []*Element{}, err
	}

	elems := make([]*Element, 0, len(out.Results[0]))
	for _, n := range out.Results[0] {
		e, err := Wrap(out.Snapshot, n, l.registry)
		if err != nil {
			l.last.Clear()
			return []*Element{}, err
		}
		elems = append(elems, e)
	}
	l.last.SetAll(elems)
	return elems, nil
}

// WaitVanish 等待元素消失；超时返回 false 而不是错误
func (l *Locator) WaitVanish(c *Criteria, opts ...locate.CallOption) (bool, error) {
	o := locate.ApplyCallOptions(opts...)
	_, err := l.poll(c, locate.ModeVanish, true, o.Timeout, false)
	l.last.Clear()
	if err != nil {
		if errors.Is(err, locate.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Exists 只查找一次（除非指定超时），返回是否存在
func (l *Locator) Exists(c *Criteria, opts ...locate.CallOption) (bool, error) {
	opts = append([]locate.CallOption{locate.WithTimeout(0)}, opts...)
	opts = append(opts, locate.NoFail())
	e, err := l.Find(c, opts...)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

// LastMatch 最近一次成功查找的元素；没有时返回 locate.ErrNoLastMatch
func (l *Locator) LastMatch() (*Element, error) {
	e, err := l.last.Get()
	if err != nil {
		return nil, err
	}
	return *e, nil
}

// LastMatches 最近一次 FindAll 的全部元素
func (l *Locator) LastMatches() []*Element {
	return l.last.All()
}
