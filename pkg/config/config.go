// Package config 管理 zoeylocate 的 YAML 配置文件
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

// Config 全局配置
type Config struct {
	// DefaultTimeout 查找默认超时
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	// PollInterval 两轮截图之间的间隔
	PollInterval time.Duration `yaml:"poll_interval"`
	// DefaultSimilarity 模板未指定相似度时使用
	DefaultSimilarity float64 `yaml:"default_similarity"`
	// TemplateDir 模板目录，相对名称从这里解析
	TemplateDir string `yaml:"template_dir"`

	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	UIA         UIAConfig         `yaml:"uia"`
}

// DiagnosticsConfig 查找失败时的现场保存
type DiagnosticsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	MaxFiles int    `yaml:"max_files"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
	// File 日志文件路径，为空时只输出到控制台
	File string `yaml:"file"`
}

// MetricsConfig 指标端点
type MetricsConfig struct {
	// Addr serve 命令的 HTTP 监听地址，为空时不启动
	Addr string `yaml:"addr"`
}

// UIAConfig 控件树桥接配置
type UIAConfig struct {
	MaxDepth      int           `yaml:"max_depth"` // 向下导出深度上限，0 表示不限
	ScriptTimeout time.Duration `yaml:"script_timeout"`
}

// Default 默认配置
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults 填充未设置的字段
func (c *Config) ApplyDefaults() {
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = locate.DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = locate.DefaultPollInterval
	}
	if c.DefaultSimilarity == 0 {
		c.DefaultSimilarity = visual.DefaultSimilarity
	}
	if c.Diagnostics.Dir == "" {
		c.Diagnostics.Dir = filepath.Join(defaultDir(), "diagnostics")
	}
	if c.Diagnostics.MaxFiles == 0 {
		c.Diagnostics.MaxFiles = 50
	}
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	if c.UIA.MaxDepth < 0 {
		c.UIA.MaxDepth = 0
	}
	if c.UIA.ScriptTimeout <= 0 {
		c.UIA.ScriptTimeout = 10 * time.Second
	}
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	var errs []string
	if !(c.DefaultSimilarity > 0 && c.DefaultSimilarity <= 1) {
		errs = append(errs, fmt.Sprintf("default_similarity 必须在 (0, 1] 范围内: %v", c.DefaultSimilarity))
	}
	if c.PollInterval > c.DefaultTimeout {
		errs = append(errs, fmt.Sprintf("poll_interval (%s) 不能大于 default_timeout (%s)", c.PollInterval, c.DefaultTimeout))
	}
	if c.Diagnostics.MaxFiles < 0 {
		errs = append(errs, "diagnostics.max_files 不能为负数")
	}
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Sprintf("log.level 无效: %s", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("配置无效: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PollerOptions 转换为轮询引擎选项
func (c *Config) PollerOptions() []locate.Option {
	return []locate.Option{
		locate.WithDefaultTimeout(c.DefaultTimeout),
		locate.WithInterval(c.PollInterval),
	}
}

// ApplyLogging 按配置设置全局日志
func (c *Config) ApplyLogging() error {
	l := logger.Default()
	l.SetLevel(logger.ParseLevel(c.Log.Level))
	if c.Log.File != "" {
		return l.SetFile(true, c.Log.File)
	}
	return nil
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

func defaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".zoeylocate")
}

// NewManager 创建配置管理器（~/.zoeylocate/config.yaml）
func NewManager() *Manager {
	return NewManagerWithDir(defaultDir())
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.yaml"),
	}
}

// NewManagerWithFile 使用指定配置文件创建配置管理器
func NewManagerWithFile(path string) *Manager {
	return &Manager{
		configDir:  filepath.Dir(path),
		configFile: path,
	}
}

// Load 加载配置；文件不存在时返回默认配置
func (m *Manager) Load() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return Default(), fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析配置内容：展开环境变量、填充默认值并校验
func Parse(data []byte) (*Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("解析配置文件失败: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Save 保存配置
func (m *Manager) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Clear 删除配置文件
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// expandEnvVars 替换 ${VAR} 与 ${VAR:-default}
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*Config, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(cfg *Config) error {
	return defaultManager.Save(cfg)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
