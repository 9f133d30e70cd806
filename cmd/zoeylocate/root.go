package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/pkg/auto/screen"
	"github.com/zoeyai/zoeylocate/pkg/config"
	"github.com/zoeyai/zoeylocate/pkg/diag"
	"github.com/zoeyai/zoeylocate/pkg/executor"
	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
	"github.com/zoeyai/zoeylocate/pkg/permissions"
	"github.com/zoeyai/zoeylocate/pkg/uia"
	"github.com/zoeyai/zoeylocate/pkg/vision/cv"
	"github.com/zoeyai/zoeylocate/pkg/vision/template"
)

// cfg 当前生效的配置，PersistentPreRunE 中加载
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "zoeylocate",
	Short: "Locate screen images and UI elements, waiting until they appear or vanish",
	Long: `zoeylocate 在屏幕截图中按模板查找图像，或在 Windows UI Automation 控件树中按条件查找控件。
所有查找都支持超时等待：在截止时间前反复截图/获取控件树，直到目标出现或消失。

结果以 YAML 输出到标准输出；未找到时退出码非 0。`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "配置文件路径 (默认 ~/.zoeylocate/config.yaml)")
	pf.String("log-level", "", "日志级别: DEBUG, INFO, WARN, ERROR")
	pf.Duration("timeout", 0, "默认查找超时 (例: 5s)，覆盖配置文件")
	pf.Duration("interval", 0, "轮询间隔 (例: 200ms)，覆盖配置文件")
	pf.Bool("diagnose", false, "查找失败时保存截图/控件树到诊断目录")
}

// loadConfig 加载配置文件并应用命令行覆盖
func loadConfig(cmd *cobra.Command, _ []string) error {
	path, _ := rootCmd.PersistentFlags().GetString("config")

	var (
		loaded *config.Config
		err    error
	)
	if path != "" {
		loaded, err = config.NewManagerWithFile(path).Load()
	} else {
		loaded, err = config.Load()
	}
	if err != nil {
		return err
	}
	cfg = loaded

	if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if d, _ := rootCmd.PersistentFlags().GetDuration("timeout"); d > 0 {
		cfg.DefaultTimeout = d
	}
	if d, _ := rootCmd.PersistentFlags().GetDuration("interval"); d > 0 {
		cfg.PollInterval = d
	}
	if on, _ := rootCmd.PersistentFlags().GetBool("diagnose"); on {
		cfg.Diagnostics.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.ApplyLogging()
}

// pollerOptions 按名称生成定位器选项
func pollerOptions(name string) []locate.Option {
	opts := append([]locate.Option{locate.WithName(name)}, cfg.PollerOptions()...)
	if cfg.Diagnostics.Enabled {
		sink := diag.NewSink(cfg.Diagnostics.Dir, diag.WithMaxFiles(cfg.Diagnostics.MaxFiles))
		opts = append(opts, locate.WithDiagnostics(sink))
	}
	return opts
}

// newExecutor 按当前配置组装定位器与执行器
//
// 非 Windows 或缺少 pywinauto 时控件树任务返回 UNSUPPORTED。
func newExecutor() *executor.Executor {
	if st := permissions.Check(); !st.Granted() {
		logger.Warn("%s", st.Instructions())
	}
	images := visual.NewLocator(screen.New(), cv.NewCorrelator(), pollerOptions("image")...)
	store := template.NewStore(cfg.TemplateDir, template.WithSimilarity(cfg.DefaultSimilarity))

	var elements *tree.Locator
	if uia.IsSupported() {
		bridge := uia.NewBridge(
			uia.WithMaxDepth(cfg.UIA.MaxDepth),
			uia.WithScriptTimeout(cfg.UIA.ScriptTimeout),
		)
		elements = tree.NewLocator(bridge, pollerOptions("element")...)
	} else {
		logger.Debug("控件树查找不可用，element 命令将返回 UNSUPPORTED")
	}
	return executor.NewExecutor(images, store, elements)
}

// printYAML 输出 YAML
func printYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// runTask 执行单个任务并输出结果；任务失败时返回错误使退出码非 0
func runTask(taskType string, payload map[string]interface{}) error {
	res := newExecutor().Execute(taskType, payload)
	if err := printYAML(res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s: %s", res.Reason, res.Message)
	}
	return nil
}

// callPayload 读取查找调用的公共参数
func callPayload(cmd *cobra.Command, payload map[string]interface{}) {
	if cmd.Flags().Changed("wait-timeout") {
		d, _ := cmd.Flags().GetDuration("wait-timeout")
		payload["timeout"] = d.Seconds()
	}
	if cmd.Flags().Lookup("no-fail") != nil {
		if noFail, _ := cmd.Flags().GetBool("no-fail"); noFail {
			payload["no_fail"] = true
		}
	}
}

func addCallFlags(cmd *cobra.Command, noFail bool) {
	cmd.Flags().Duration("wait-timeout", time.Duration(0), "本次查找超时 (0 表示只查找一次；不指定时使用默认超时)")
	if noFail {
		cmd.Flags().Bool("no-fail", false, "未找到时输出 found: false 而不是失败")
	}
}
