package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/internal/metrics"
	"github.com/zoeyai/zoeylocate/pkg/executor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the locate tasks as tools",
	Long: `通过 Model Context Protocol (stdio) 提供查找工具，每个任务类型对应一个工具。

配置了 metrics.addr（或 --metrics-addr）时，同时启动 HTTP 端点:
  /metrics   Prometheus 指标
  /healthz   执行器状态`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("metrics-addr", "", "指标 HTTP 监听地址 (例: :9090)，覆盖配置文件")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Metrics.Addr = addr
	}

	exec := newExecutor()
	s := newMCPServer(exec)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           newMetricsRouter(exec),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("[Serve] 指标端点监听 %s", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("[Serve] 指标端点异常退出: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	logger.Info("[Serve] MCP 服务启动 (stdio)")
	return mcpserver.ServeStdio(s)
}

// newMetricsRouter 指标与健康检查路由
func newMetricsRouter(exec *executor.Executor) http.Handler {
	metrics.Register()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		status, current, running := exec.GetStatus()
		body := map[string]interface{}{
			"status":  status,
			"running": running,
			"version": Version,
		}
		if current != nil {
			body["current_task"] = current.TaskType
		}
		w.Header().Set("Content-Type", "application/yaml")
		_ = yaml.NewEncoder(w).Encode(body)
	})
	return r
}

// ==================== MCP 工具 ====================

func newMCPServer(exec *executor.Executor) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("zoeylocate", Version)

	imageOpts := func(desc string, target bool) []mcp.ToolOption {
		opts := []mcp.ToolOption{
			mcp.WithDescription(desc),
			mcp.WithString("images", mcp.Description("模板引用，多个用 | 分隔；名称、路径或 data URL，可带 @相似度 后缀"), mcp.Required()),
			mcp.WithNumber("similarity", mcp.Description("相似度阈值 (0, 1]")),
			mcp.WithString("region", mcp.Description("查找区域 x,y,w,h；指定 window 时相对窗口左上角")),
			mcp.WithString("window", mcp.Description("只在标题或进程名包含该文本的窗口内查找")),
			mcp.WithNumber("timeout", mcp.Description("超时秒数；0 表示只查找一次")),
		}
		if target {
			opts = append(opts,
				mcp.WithString("target", mcp.Description("输出坐标: center, top_left, top_right, bottom_left, bottom_right")),
				mcp.WithString("grid", mcp.Description("网格位置 rows.cols.row.col")),
				mcp.WithBoolean("no_fail", mcp.Description("未找到时返回 found: false")),
			)
		}
		return opts
	}

	elementOpts := func(desc string, target bool) []mcp.ToolOption {
		opts := []mcp.ToolOption{
			mcp.WithDescription(desc),
			mcp.WithString("name", mcp.Description("Name 完全相等")),
			mcp.WithString("name_contains", mcp.Description("Name 包含的子串")),
			mcp.WithString("name_regex", mcp.Description("Name 正则表达式")),
			mcp.WithString("automation_id", mcp.Description("AutomationId 完全相等")),
			mcp.WithString("class_name", mcp.Description("ClassName 完全相等")),
			mcp.WithString("control_type", mcp.Description("控件类型，如 Button, Edit")),
			mcp.WithString("process", mcp.Description("进程名")),
			mcp.WithNumber("pid", mcp.Description("进程 ID")),
			mcp.WithNumber("exact_level", mcp.Description("精确层级：正数为后代层，0 为兄弟，负数为祖先")),
			mcp.WithNumber("max_descend", mcp.Description("最大搜索深度")),
			mcp.WithObject("where", mcp.Description("其他属性条件 {Field: value}")),
			mcp.WithString("root", mcp.Description("搜索起点控件 ID")),
			mcp.WithString("window", mcp.Description("从标题或进程名包含该文本的窗口开始搜索")),
			mcp.WithNumber("timeout", mcp.Description("超时秒数；0 表示只查找一次")),
		}
		if target {
			opts = append(opts,
				mcp.WithString("grid", mcp.Description("网格位置 rows.cols.row.col")),
				mcp.WithBoolean("no_fail", mcp.Description("未找到时返回 found: false")),
			)
		}
		return opts
	}

	tools := []struct {
		taskType string
		opts     []mcp.ToolOption
	}{
		{executor.TaskTypeImageFind, imageOpts("在屏幕上查找模板图像，返回第一个匹配", true)},
		{executor.TaskTypeImageWait, imageOpts("等待任一模板图像出现", true)},
		{executor.TaskTypeImageFindAll, imageOpts("返回全部模板的全部匹配", false)},
		{executor.TaskTypeImageMarkers, imageOpts("返回全部匹配，合并重叠检测", false)},
		{executor.TaskTypeImageVanish, imageOpts("等待任一模板图像消失", false)},
		{executor.TaskTypeImageExists, imageOpts("检查模板图像是否在屏幕上", false)},
		{executor.TaskTypeElementFind, elementOpts("在控件树中查找第一个满足条件的控件", true)},
		{executor.TaskTypeElementWait, elementOpts("等待满足条件的控件出现", true)},
		{executor.TaskTypeElementAll, elementOpts("返回全部满足条件的控件", false)},
		{executor.TaskTypeElementVanish, elementOpts("等待满足条件的控件消失", false)},
		{executor.TaskTypeElementExists, elementOpts("检查满足条件的控件是否存在", false)},
		{executor.TaskTypeLastMatch, []mcp.ToolOption{
			mcp.WithDescription("返回最近一次成功查找的结果"),
			mcp.WithString("kind", mcp.Description("image 或 element，默认 image")),
		}},
	}

	for _, t := range tools {
		s.AddTool(mcp.NewTool(t.taskType, t.opts...), taskHandler(exec, t.taskType))
	}
	return s
}

// taskHandler 将工具调用转发给执行器
func taskHandler(exec *executor.Executor, taskType string) mcpserver.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := request.GetArguments()
		if s, ok := params["images"].(string); ok {
			params["images"] = splitRefs(s)
		}

		res := exec.Execute(taskType, params)
		out, err := yaml.Marshal(res)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("序列化结果失败: %v", err)), nil
		}
		if !res.OK() {
			return mcp.NewToolResultError(string(out)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

// splitRefs 按 | 拆分模板引用；data URL 中含有逗号与分号，不能用它们分隔
func splitRefs(s string) []string {
	var refs []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			refs = append(refs, part)
		}
	}
	return refs
}
