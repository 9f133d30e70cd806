package uia

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
)

const sampleDump = `{"root": {"id": "42.1", "props": {"Name": "记事本", "ControlType": 50032, "ProcessId": 4242},
 "children": [
  {"id": "42.2", "props": {"Name": "OK", "ControlType": 50000, "AutomationId": "btnOK",
   "BoundingRectangle": [10, 20, 90, 44]}},
  {"id": "42.3", "props": {"Name": "Cancel", "ControlType": 50000}}
 ]}}`

func runnerReturning(out string, err error) Runner {
	return func(ctx context.Context, script string) ([]byte, error) {
		return []byte(out), err
	}
}

func TestSnapshotParsesTree(t *testing.T) {
	var script string
	b := NewBridge(WithMaxDepth(4), WithRunner(func(ctx context.Context, s string) ([]byte, error) {
		script = s
		return []byte(sampleDump), nil
	}))

	w, err := b.Snapshot("0x1A2B")
	require.NoError(t, err)
	assert.Contains(t, script, "handle = 6699")
	assert.Contains(t, script, "UP = 0")
	assert.Contains(t, script, "DOWN = 4")

	assert.Equal(t, tree.NodeRef("42.1"), w.Root())
	rev, ok := w.Revision()
	assert.True(t, ok)
	assert.NotZero(t, rev)

	found, err := tree.Search(w, tree.MustCriteria(tree.AutomationID("btnOK"), tree.OfType(tree.Button)), true)
	require.NoError(t, err)
	assert.Equal(t, []tree.NodeRef{"42.2"}, found)

	e, err := tree.Wrap(w, "42.2", nil)
	require.NoError(t, err)
	assert.Equal(t, "Button", e.Kind.Name)
	rect, err := e.Rect()
	require.NoError(t, err)
	assert.Equal(t, 80, rect.Dx())
}

func TestSnapshotClassifiesErrors(t *testing.T) {
	cases := []struct {
		name      string
		out       string
		transient bool
	}{
		{"element not available", `{"error": {"type": "COMError", "code": -2147220991, "message": "x"}}`, true},
		{"uia timeout", `{"error": {"type": "COMError", "code": -2146233083, "message": "x"}}`, true},
		{"pywinauto timeout", `{"error": {"type": "TimeoutError", "code": 0, "message": "x"}}`, true},
		{"access denied", `{"error": {"type": "COMError", "code": -2147024891, "message": "x"}}`, false},
		{"missing pywinauto", `{"error": {"type": "ImportError", "code": 0, "message": "no module"}}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBridge(WithRunner(runnerReturning(tc.out, nil)))
			_, err := b.Snapshot("")
			require.Error(t, err)
			assert.Equal(t, tc.transient, locate.IsTransient(err))
			var be *BridgeError
			assert.ErrorAs(t, err, &be)
		})
	}
}

func TestSnapshotScriptFailures(t *testing.T) {
	b := NewBridge(WithRunner(runnerReturning("", errors.New("exit status 1"))))
	_, err := b.Snapshot("")
	require.Error(t, err)
	assert.False(t, locate.IsTransient(err))

	b = NewBridge(WithRunner(runnerReturning("not json", nil)))
	_, err = b.Snapshot("")
	assert.Error(t, err)

	_, err = b.Snapshot("window-title")
	assert.Error(t, err)

	b = NewBridge(WithScriptTimeout(time.Millisecond), WithRunner(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	_, err = b.Snapshot("")
	assert.True(t, locate.IsTransient(err))
}

func TestBridgeWithLocator(t *testing.T) {
	b := NewBridge(WithRunner(runnerReturning(sampleDump, nil)))
	l := tree.NewLocator(b)

	_, err := l.Find(tree.MustCriteria(tree.Where(tree.FieldName, tree.Regexp("^Can"))), locate.WithTimeout(0))
	require.NoError(t, err)

	ok, err := l.Exists(tree.MustCriteria(tree.Name("Missing")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildDumpScript(t *testing.T) {
	s := buildDumpScript(0, tree.Scope{Up: 2, Down: -1})
	assert.Contains(t, s, "UP = 2")
	assert.Contains(t, s, "DOWN = -1")
	assert.True(t, strings.Contains(s, "UIAElementInfo()"))
	assert.Contains(t, s, "LegacyIAccessibleRole")
	assert.NotContains(t, s, "%!")
}

func TestIsSupported(t *testing.T) {
	if !IsSupported() {
		t.Skipf("UI Automation 不可用（需要 Windows + Python + pywinauto）")
	}
	w, err := NewBridge(WithMaxDepth(1)).Snapshot("")
	require.NoError(t, err)
	assert.NotEmpty(t, w.Root())
}

// windowDump 桌面 → 窗口 w（起点）→ 按钮；桌面下还有另一个窗口
const windowDump = `{"root": {"id": "desk", "props": {"Name": "桌面", "ControlType": 50033},
 "children": [
  {"id": "w", "props": {"Name": "记事本", "ControlType": 50032},
   "children": [{"id": "b", "props": {"Name": "OK", "ControlType": 50000}}]},
  {"id": "other", "props": {"Name": "计算器", "ControlType": 50032}}
 ]},
 "start": "w"}`

func TestScopedSnapshotFromWindow(t *testing.T) {
	var scripts []string
	b := NewBridge(WithRunner(func(ctx context.Context, s string) ([]byte, error) {
		scripts = append(scripts, s)
		return []byte(windowDump), nil
	}))
	l := tree.NewLocator(b).WithRoot("0x10")

	// 祖先
	e, err := l.Find(tree.MustCriteria(tree.ExactLevel(-1)), locate.WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, tree.NodeRef("desk"), e.Ref)
	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], "handle = 16")
	assert.Contains(t, scripts[0], "UP = 1")
	assert.Contains(t, scripts[0], "DOWN = 0")

	// 兄弟
	e, err = l.Find(tree.MustCriteria(tree.Name("计算器"), tree.ExactLevel(0)), locate.WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, tree.NodeRef("other"), e.Ref)

	// 后代不会越过起点
	e, err = l.Find(tree.MustCriteria(tree.Name("OK")), locate.WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, tree.NodeRef("b"), e.Ref)
	assert.Contains(t, scripts[2], "UP = 0")
	assert.Contains(t, scripts[2], "DOWN = -1")

	ok, err := l.Exists(tree.MustCriteria(tree.Name("计算器")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseDumpUnknownStart(t *testing.T) {
	_, err := parseDump([]byte(`{"root": {"id": "desk"}, "start": "gone"}`))
	assert.Error(t, err)
}

func TestDepthLimit(t *testing.T) {
	calls := 0
	b := NewBridge(WithMaxDepth(3), WithRunner(func(ctx context.Context, s string) ([]byte, error) {
		calls++
		return []byte(sampleDump), nil
	}))
	l := tree.NewLocator(b)

	_, err := l.Find(tree.MustCriteria(tree.Name("OK")))
	assert.ErrorIs(t, err, locate.ErrMalformedQuery)
	_, err = l.Find(tree.MustCriteria(tree.Name("OK"), tree.ExactLevel(5)))
	assert.ErrorIs(t, err, locate.ErrMalformedQuery)
	_, err = l.FindAll(tree.MustCriteria(tree.Name("OK"), tree.MaxDescendLevel(4)))
	assert.ErrorIs(t, err, locate.ErrMalformedQuery)
	assert.Equal(t, 0, calls)

	_, err = l.Find(tree.MustCriteria(tree.Name("OK"), tree.MaxDescendLevel(3)), locate.WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	assert.NoError(t, NewBridge().CheckScope(tree.Scope{Down: -1}))
}
