package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3*time.Second, cfg.DefaultTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 0.8, cfg.DefaultSimilarity)
	assert.False(t, cfg.Diagnostics.Enabled, "默认不应保存诊断信息")
	assert.Equal(t, 0, cfg.UIA.MaxDepth, "默认不限制控件树导出深度")
	assert.NoError(t, cfg.Validate())
}

func TestManagerSaveAndLoad(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())
	assert.False(t, manager.Exists(), "初始时配置文件不应存在")

	cfg := Default()
	cfg.DefaultTimeout = 5 * time.Second
	cfg.TemplateDir = "/opt/templates"
	cfg.Diagnostics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:9464"
	cfg.UIA.MaxDepth = 20

	require.NoError(t, manager.Save(cfg))
	assert.True(t, manager.Exists(), "保存后配置文件应存在")

	loaded, err := manager.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultTimeout, loaded.DefaultTimeout)
	assert.Equal(t, cfg.TemplateDir, loaded.TemplateDir)
	assert.True(t, loaded.Diagnostics.Enabled)
	assert.Equal(t, cfg.Metrics.Addr, loaded.Metrics.Addr)
	assert.Equal(t, 20, loaded.UIA.MaxDepth)
}

func TestManagerClear(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	require.NoError(t, manager.Save(Default()))
	require.NoError(t, manager.Clear())
	assert.False(t, manager.Exists(), "清除后配置文件不应存在")

	// 清除不存在的文件不应报错
	assert.NoError(t, manager.Clear())
}

func TestManagerLoadNonExistent(t *testing.T) {
	cfg, err := NewManagerWithDir(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, locate.DefaultTimeout, cfg.DefaultTimeout)
}

func TestManagerLoadCorruptedFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	configFile := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("default_timeout: [not, a, duration"), 0600))

	cfg, err := manager.Load()
	assert.Error(t, err)
	assert.NotNil(t, cfg, "即使出错也应返回默认配置")
}

func TestParseDurationsAndEnv(t *testing.T) {
	t.Setenv("ZL_TEMPLATES", "/data/tpl")

	cfg, err := Parse([]byte(`
default_timeout: 1500ms
poll_interval: 100ms
template_dir: ${ZL_TEMPLATES}
log:
  level: ${ZL_LOG_LEVEL:-debug}
uia:
  max_depth: -3
`))
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.DefaultTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "/data/tpl", cfg.TemplateDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0, cfg.UIA.MaxDepth, "负数深度视为不限")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"相似度越界", "default_similarity: 1.5", "default_similarity"},
		{"间隔大于超时", "default_timeout: 1s\npoll_interval: 2s", "poll_interval"},
		{"日志级别无效", "log:\n  level: loud", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPollerOptions(t *testing.T) {
	cfg := Default()
	cfg.DefaultTimeout = 7 * time.Second
	cfg.PollInterval = 50 * time.Millisecond

	p := locate.NewPoller(cfg.PollerOptions()...)
	assert.Equal(t, 7*time.Second, p.DefaultTimeout())
	assert.Equal(t, 50*time.Millisecond, p.Interval())
}

func TestManagerPaths(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	assert.Equal(t, tempDir, manager.GetConfigDir())
	assert.Equal(t, filepath.Join(tempDir, "config.yaml"), manager.GetConfigFile())

	custom := filepath.Join(tempDir, "other.yaml")
	assert.Equal(t, custom, NewManagerWithFile(custom).GetConfigFile())
}

func TestDefaultManager(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(homeDir, ".zoeylocate"), GetDefaultManager().GetConfigDir())
}
