package main

import (
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocate/pkg/executor"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
	"github.com/zoeyai/zoeylocate/pkg/vision/template"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"image", "element", "run", "serve", "config", "doctor", "windows", "capture"}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestImageCommand_Subcommands(t *testing.T) {
	for _, sub := range imageSubs {
		c, _, err := imageCmd.Find([]string{sub.use})
		require.NoError(t, err)
		assert.Equal(t, sub.use, c.Name())
		assert.Equal(t, sub.target, c.Flags().Lookup("target") != nil, sub.use)
		assert.Equal(t, sub.noFail, c.Flags().Lookup("no-fail") != nil, sub.use)
	}
}

func TestImagePayload(t *testing.T) {
	c := newImageCommand(imageSubs[0])
	require.NoError(t, c.ParseFlags([]string{"--similarity", "0.9", "--region", "0,0,100,50", "--grid", "2.2.1.1", "--wait-timeout", "1500ms", "--no-fail"}))

	p, err := imagePayload(c, []string{"ok.png", "ok2.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.png", "ok2.png"}, p["images"])
	assert.Equal(t, 0.9, p["similarity"])
	assert.Equal(t, "0,0,100,50", p["region"])
	assert.Equal(t, "center", p["target"])
	assert.Equal(t, "2.2.1.1", p["grid"])
	assert.Equal(t, 1.5, p["timeout"])
	assert.Equal(t, true, p["no_fail"])

	// 未指定超时时使用默认值
	c = newImageCommand(imageSubs[2])
	require.NoError(t, c.ParseFlags(nil))
	p, err = imagePayload(c, []string{"a"})
	require.NoError(t, err)
	assert.NotContains(t, p, "timeout")
	assert.NotContains(t, p, "target")
	assert.NotContains(t, p, "similarity")

	// 显式的 0 原样传给执行器，由执行器按参数错误拒绝
	c = newImageCommand(imageSubs[0])
	require.NoError(t, c.ParseFlags([]string{"--similarity", "0"}))
	p, err = imagePayload(c, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, p["similarity"])
}

func TestElementPayload(t *testing.T) {
	c := newElementCommand(elementSubs[0])
	require.NoError(t, c.ParseFlags([]string{
		"--name", "确定", "--type", "Button", "--pid", "42", "--pid", "43",
		"--exact-level", "0", "--where", "HelpText=保存=文件", "--name-contains", "确",
	}))

	p, err := elementPayload(c)
	require.NoError(t, err)
	assert.Equal(t, "确定", p["name"])
	assert.Equal(t, "Button", p["control_type"])
	assert.Equal(t, []int{42, 43}, p["pid"])
	assert.Equal(t, 0, p["exact_level"])
	assert.Equal(t, []string{"确"}, p["name_contains"])
	assert.Equal(t, map[string]interface{}{"HelpText": "保存=文件"}, p["where"])
	assert.NotContains(t, p, "max_descend")

	c = newElementCommand(elementSubs[0])
	require.NoError(t, c.ParseFlags([]string{"--where", "novalue"}))
	_, err = elementPayload(c)
	assert.Error(t, err)
}

func TestSplitRefs(t *testing.T) {
	assert.Equal(t, []string{"a.png", "data:image/png;base64,AAA="}, splitRefs(" a.png | data:image/png;base64,AAA= |"))
	assert.Nil(t, splitRefs(""))
}

func TestMCPServer_RegistersEveryTask(t *testing.T) {
	exec := executor.NewExecutor(nil, template.NewStore(t.TempDir()), nil)
	s := newMCPServer(exec)
	tools := s.ListTools()
	for _, taskType := range executor.TaskTypes() {
		assert.Contains(t, tools, taskType)
	}
}

func TestMetricsRouter(t *testing.T) {
	dir := t.TempDir()
	exec := executor.NewExecutor(visual.NewLocator(nil, nil), template.NewStore(dir), nil)
	r := newMetricsRouter(exec)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "status: IDLE")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_timeout: 2s\nlog:\n  level: WARN\n"), 0644))

	pf := rootCmd.PersistentFlags()
	require.NoError(t, pf.Set("config", path))
	require.NoError(t, pf.Set("timeout", "7s"))
	t.Cleanup(func() {
		_ = pf.Set("config", "")
		_ = pf.Set("timeout", "0s")
	})

	require.NoError(t, loadConfig(rootCmd, nil))
	assert.Equal(t, "7s", cfg.DefaultTimeout.String())
	assert.Equal(t, "WARN", cfg.Log.Level)
}

func TestParseRegion(t *testing.T) {
	r, err := parseRegion("")
	require.NoError(t, err)
	assert.True(t, r.Empty())

	r, err = parseRegion("10, 20, 30, 40")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 40, 60), r)

	_, err = parseRegion("1,2,3")
	assert.Error(t, err)
	_, err = parseRegion("1,2,0,4")
	assert.Error(t, err)
	_, err = parseRegion("a,b,c,d")
	assert.Error(t, err)
}
