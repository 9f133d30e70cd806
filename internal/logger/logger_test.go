package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"ERROR":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.SetLevel(WARN)

	l.Debug("调试 %d", 1)
	l.Info("信息 %d", 2)
	l.Warn("警告 %d", 3)
	l.Error("错误 %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "调试 1")
	assert.NotContains(t, out, "信息 2")
	assert.Contains(t, out, "警告 3")
	assert.Contains(t, out, "错误 4")
	assert.Equal(t, WARN, l.Level())
}

func TestSetEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.SetEnabled(false)
	l.Error("不应输出")
	assert.Empty(t, buf.String())

	l.SetEnabled(true)
	l.Info("恢复输出")
	assert.Contains(t, buf.String(), "恢复输出")
}

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.LogEvent("FIND", true, 12.5, "button.png")
	l.LogEvent("WAIT", false, 3000, "dialog.png")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "FIND")
	assert.Contains(t, lines[0], "OK")
	assert.Contains(t, lines[0], "12.5ms")
	assert.Contains(t, lines[1], "NG")
	assert.Contains(t, lines[1], "WARN")
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locate.log")
	l := NewWithWriter(nil)

	require.NoError(t, l.SetFile(true, path))
	l.Info("写入文件 %s", "ok")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "写入文件 ok")
}
