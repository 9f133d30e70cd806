package locate

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocate/internal/logger"
)

// fakeClock 只在 Sleep 时前进
type fakeClock struct {
	now    time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	c.now = c.now.Add(d)
}

// scriptProbe 按脚本返回快照与候选
type scriptProbe struct {
	n        int
	captures int
	evals    int
	// errs 第 i 次 Capture 返回的错误（nil 表示成功）
	errs []error
	// revs 第 i 次 Capture 的版本号，缺省时按次数递增
	revs []uint64
	// eval 根据快照编号与子查询返回候选
	eval func(snap, i int) ([]string, error)
}

func (p *scriptProbe) String() string { return fmt.Sprintf("script(%d)", p.n) }
func (p *scriptProbe) Len() int       { return p.n }

func (p *scriptProbe) Capture() (int, error) {
	idx := p.captures
	p.captures++
	if idx < len(p.errs) && p.errs[idx] != nil {
		return 0, p.errs[idx]
	}
	return idx, nil
}

func (p *scriptProbe) Revision(snap int) (uint64, bool) {
	if snap < len(p.revs) {
		return p.revs[snap], true
	}
	return uint64(snap) + 1000, true
}

func (p *scriptProbe) Evaluate(snap, i int) ([]string, error) {
	p.evals++
	return p.eval(snap, i)
}

type recordingSink struct {
	misses []*NotFoundError
	err    error
}

func (s *recordingSink) RecordMiss(miss *NotFoundError) error {
	s.misses = append(s.misses, miss)
	return s.err
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(&bytes.Buffer{})
}

func newTestPoller(clock Clock, opts ...Option) *Poller {
	base := []Option{WithName("test"), WithClock(clock), WithLogger(quietLogger())}
	return NewPoller(append(base, opts...)...)
}

func TestPollAppearFirstAttempt(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{n: 1, eval: func(int, int) ([]string, error) { return []string{"a"}, nil }}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Index)
	assert.Equal(t, []string{"a"}, out.Candidates)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 0, clock.sleeps)
}

func TestPollTimeoutZeroIsSingleShot(t *testing.T) {
	for _, found := range []bool{true, false} {
		clock := newFakeClock()
		p := newTestPoller(clock)
		probe := &scriptProbe{n: 2, eval: func(int, int) ([]string, error) {
			if found {
				return []string{"x"}, nil
			}
			return nil, nil
		}}

		_, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: 0})
		if found {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrNotFound)
		}
		assert.Equal(t, 1, probe.captures, "found=%v", found)
		assert.Equal(t, 0, clock.sleeps, "found=%v", found)
	}
}

func TestPollUseDefaultTimeout(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock, WithDefaultTimeout(time.Second), WithInterval(250*time.Millisecond))
	probe := &scriptProbe{n: 1, eval: func(int, int) ([]string, error) { return nil, nil }}

	_, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: UseDefault})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, time.Second, nf.Timeout)
	// 0, 250, 500, 750, 1000ms 各一次
	assert.Equal(t, 5, nf.Attempts)
	assert.GreaterOrEqual(t, nf.Elapsed, time.Second)
}

func TestPollVanishAlreadyEmpty(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{n: 1, eval: func(int, int) ([]string, error) { return nil, nil }}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeVanish, Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Index)
	assert.Equal(t, 1, probe.captures)
	assert.Equal(t, 0, clock.sleeps)
}

func TestPollVanishNeverEmpties(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{n: 1, eval: func(int, int) ([]string, error) { return []string{"still"}, nil }}

	_, err := Poll[int, string](p, probe, Request{Mode: ModeVanish, Timeout: time.Second})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, ModeVanish, nf.Mode)
	assert.GreaterOrEqual(t, nf.Elapsed, time.Second)
	assert.Less(t, nf.Elapsed, time.Second+DefaultPollInterval)
	assert.Contains(t, nf.Error(), "等待消失超时")
}

func TestPollVanishLater(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{n: 1, eval: func(snap, _ int) ([]string, error) {
		if snap < 3 {
			return []string{"dialog"}, nil
		}
		return nil, nil
	}}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeVanish, Timeout: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Attempts)
	assert.Equal(t, 3, clock.sleeps)
}

func TestPollTransientThenSuccess(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	race := errors.New("COM error -2147220991")
	probe := &scriptProbe{
		n:    1,
		errs: []error{Transient("snapshot", race), Transient("snapshot", race)},
		eval: func(int, int) ([]string, error) { return []string{"ok"}, nil },
	}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 2, out.Snapshot)
	assert.Equal(t, 2, clock.sleeps)
}

func TestPollTransientUntilTimeout(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	race := errors.New("subscriber failed")
	errs := make([]error, 100)
	for i := range errs {
		errs[i] = Transient("snapshot", race)
	}
	probe := &scriptProbe{n: 1, errs: errs, eval: func(int, int) ([]string, error) { return []string{"x"}, nil }}

	_, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: time.Second})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, race)
	assert.Nil(t, nf.Snapshot)
	assert.Equal(t, 0, probe.evals)
}

func TestPollTransientIsNotVanishEvidence(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{
		n:    1,
		errs: []error{nil, Transient("snapshot", errors.New("race"))},
		eval: func(snap, _ int) ([]string, error) {
			if snap < 2 {
				return []string{"x"}, nil
			}
			return nil, nil
		},
	}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeVanish, Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Attempts)
}

func TestPollFatalAbortsImmediately(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	boom := errors.New("element not available")
	probe := &scriptProbe{n: 1, errs: []error{boom}, eval: func(int, int) ([]string, error) { return nil, nil }}

	_, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: 10 * time.Second})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderFatal)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, probe.captures)
	assert.Equal(t, 0, clock.sleeps)
}

func TestPollEvaluateErrors(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)

	probe := &scriptProbe{n: 1, eval: func(int, int) ([]string, error) {
		return nil, Malformed("Name", "未知字段")
	}}
	_, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: time.Second})
	var mq *MalformedQueryError
	require.ErrorAs(t, err, &mq)
	assert.NotErrorIs(t, err, ErrProviderFatal)

	probe = &scriptProbe{n: 1, eval: func(snap, _ int) ([]string, error) {
		if snap == 0 {
			return nil, Transient("property", errors.New("timeout"))
		}
		return []string{"ok"}, nil
	}}
	out, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Attempts)
}

func TestPollDeclaredOrderWins(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{n: 3, eval: func(_ int, i int) ([]string, error) {
		switch i {
		case 0:
			return nil, nil
		case 1:
			return []string{"second"}, nil
		default:
			return []string{"third-better"}, nil
		}
	}}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Index)
	assert.Equal(t, []string{"second"}, out.Candidates)
	// 第二个子查询命中后不再评估第三个
	assert.Equal(t, 2, probe.evals)
}

func TestPollModeAll(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{n: 2, eval: func(_ int, i int) ([]string, error) {
		if i == 0 {
			return []string{"a", "b"}, nil
		}
		return []string{"c"}, nil
	}}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeAll, Timeout: 0})
	require.NoError(t, err)
	assert.Equal(t, -1, out.Index)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, out.Results)
}

func TestPollReusesUnchangedSnapshot(t *testing.T) {
	clock := newFakeClock()
	p := newTestPoller(clock)
	probe := &scriptProbe{
		n:    1,
		revs: []uint64{7, 7, 7, 8},
		eval: func(snap, _ int) ([]string, error) {
			if snap == 3 {
				return []string{"new"}, nil
			}
			return nil, nil
		},
	}

	out, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Attempts)
	// 版本 7 只评估一次，版本 8 再评估一次
	assert.Equal(t, 2, probe.evals)
}

func TestPollNoSubQueries(t *testing.T) {
	p := newTestPoller(newFakeClock())
	probe := &scriptProbe{n: 0}
	_, err := Poll[int, string](p, probe, Request{Mode: ModeAppear})
	assert.ErrorIs(t, err, ErrMalformedQuery)
	assert.Equal(t, 0, probe.captures)
}

func TestPollDiagnostics(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{err: errors.New("disk full")}
	p := newTestPoller(clock, WithDiagnostics(sink))
	probe := &scriptProbe{n: 1, eval: func(int, int) ([]string, error) { return nil, nil }}

	_, err := Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: 0, Diagnose: true})
	// 诊断写入失败不影响原始结果
	assert.ErrorIs(t, err, ErrNotFound)
	require.Len(t, sink.misses, 1)
	assert.Equal(t, 0, sink.misses[0].Snapshot)
	assert.Equal(t, "script(1)", sink.misses[0].Query)

	_, err = Poll[int, string](p, probe, Request{Mode: ModeAppear, Timeout: 0})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, sink.misses, 1)
}

func TestLastMatchSlot(t *testing.T) {
	var slot LastMatch[string]
	_, err := slot.Get()
	assert.ErrorIs(t, err, ErrNoLastMatch)

	slot.SetAll([]string{"a", "b"})
	m, err := slot.Get()
	require.NoError(t, err)
	assert.Equal(t, "a", *m)
	assert.Equal(t, []string{"a", "b"}, slot.All())

	slot.Set("c")
	assert.Equal(t, []string{"c"}, slot.All())

	slot.Clear()
	_, err = slot.Get()
	assert.ErrorIs(t, err, ErrNoLastMatch)
	assert.Empty(t, slot.All())
}

func TestCallOptions(t *testing.T) {
	o := ApplyCallOptions()
	assert.Equal(t, UseDefault, o.Timeout)
	assert.True(t, o.FailOnMiss)

	o = ApplyCallOptions(WithTimeout(0), NoFail())
	assert.Equal(t, time.Duration(0), o.Timeout)
	assert.False(t, o.FailOnMiss)

	o = ApplyCallOptions(WithTimeout(-5 * time.Second))
	assert.Equal(t, UseDefault, o.Timeout)
}
