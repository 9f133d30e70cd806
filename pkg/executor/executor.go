// Package executor 将定位任务（类型 + 参数）分发给视觉与控件树定位器
//
// CLI 与 MCP 服务共用同一个执行器：参数以 map 形式传入，结果以
// TaskResult 返回，错误按失败原因分类。
package executor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
	"github.com/zoeyai/zoeylocate/pkg/vision/template"
	"github.com/zoeyai/zoeylocate/pkg/window"
)

// TaskType 任务类型
const (
	TaskTypeImageFind     = "image_find"
	TaskTypeImageFindAll  = "image_find_all"
	TaskTypeImageWait     = "image_wait"
	TaskTypeImageVanish   = "image_vanish"
	TaskTypeImageExists   = "image_exists"
	TaskTypeImageMarkers  = "image_markers"
	TaskTypeElementFind   = "element_find"
	TaskTypeElementAll    = "element_find_all"
	TaskTypeElementWait   = "element_wait"
	TaskTypeElementVanish = "element_vanish"
	TaskTypeElementExists = "element_exists"
	TaskTypeLastMatch     = "last_match"
)

// 任务状态
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusTimeout = "TIMEOUT"
)

// 失败原因
const (
	ReasonNotFound          = "NOT_FOUND"
	ReasonParamError        = "PARAM_ERROR"
	ReasonAmbiguousRegistry = "AMBIGUOUS_REGISTRY"
	ReasonProviderError     = "PROVIDER_ERROR"
	ReasonUnsupported       = "UNSUPPORTED"
	ReasonNoLastMatch       = "NO_LAST_MATCH"
	ReasonSystemError       = "SYSTEM_ERROR"
)

// ErrUnsupported 当前平台不支持该类任务
var ErrUnsupported = errors.New("当前平台不支持")

// TaskError 任务错误
type TaskError struct {
	Status  string
	Reason  string
	Message string
}

func (e *TaskError) Error() string {
	return e.Message
}

// paramError 参数错误
func paramError(format string, args ...interface{}) error {
	return locate.Malformed("", format, args...)
}

// classifyError 对错误进行分类
func classifyError(err error) *TaskError {
	if err == nil {
		return nil
	}
	var te *TaskError
	if errors.As(err, &te) {
		return te
	}

	msg := err.Error()
	switch {
	case errors.Is(err, locate.ErrNotFound):
		return &TaskError{Status: StatusTimeout, Reason: ReasonNotFound, Message: msg}
	case errors.Is(err, locate.ErrMalformedQuery):
		return &TaskError{Status: StatusFailed, Reason: ReasonParamError, Message: msg}
	case errors.Is(err, locate.ErrAmbiguousRegistry):
		return &TaskError{Status: StatusFailed, Reason: ReasonAmbiguousRegistry, Message: msg}
	case errors.Is(err, locate.ErrProviderFatal):
		return &TaskError{Status: StatusFailed, Reason: ReasonProviderError, Message: msg}
	case errors.Is(err, ErrUnsupported):
		return &TaskError{Status: StatusFailed, Reason: ReasonUnsupported, Message: msg}
	case errors.Is(err, locate.ErrNoLastMatch):
		return &TaskError{Status: StatusFailed, Reason: ReasonNoLastMatch, Message: msg}
	default:
		return &TaskError{Status: StatusFailed, Reason: ReasonSystemError, Message: msg}
	}
}

// TaskResult 任务执行结果
type TaskResult struct {
	TaskID     string      `json:"task_id" yaml:"task_id"`
	TaskType   string      `json:"task_type" yaml:"task_type"`
	Status     string      `json:"status" yaml:"status"`
	Reason     string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message    string      `json:"message,omitempty" yaml:"message,omitempty"`
	DurationMs int64       `json:"duration_ms" yaml:"duration_ms"`
	Result     interface{} `json:"result,omitempty" yaml:"result,omitempty"`
}

// OK 任务是否成功
func (r *TaskResult) OK() bool { return r.Status == StatusSuccess }

// TaskInfo 运行中的任务
type TaskInfo struct {
	TaskID    string
	TaskType  string
	StartedAt int64
}

// Executor 任务执行器
//
// 定位器不是并发安全的，任务在 runMu 下串行执行。
type Executor struct {
	images   *visual.Locator
	store    *template.Store
	elements *tree.Locator
	windows  window.Lister

	runMu      sync.Mutex
	lastImages *visual.Locator
	lastTree   *tree.Locator

	tasksMutex   sync.Mutex
	runningTasks map[string]*TaskInfo
}

// NewExecutor 创建任务执行器；elements 为 nil 时控件树任务返回 ErrUnsupported
func NewExecutor(images *visual.Locator, store *template.Store, elements *tree.Locator) *Executor {
	return &Executor{
		images:       images,
		store:        store,
		elements:     elements,
		windows:      window.List,
		runningTasks: make(map[string]*TaskInfo),
	}
}

// registerTask 注册运行中的任务
func (e *Executor) registerTask(taskID, taskType string) {
	e.tasksMutex.Lock()
	defer e.tasksMutex.Unlock()

	e.runningTasks[taskID] = &TaskInfo{
		TaskID:    taskID,
		TaskType:  taskType,
		StartedAt: time.Now().UnixMilli(),
	}
}

// unregisterTask 注销任务
func (e *Executor) unregisterTask(taskID string) {
	e.tasksMutex.Lock()
	defer e.tasksMutex.Unlock()

	delete(e.runningTasks, taskID)
}

// GetStatus 获取执行器状态
func (e *Executor) GetStatus() (status string, current *TaskInfo, runningCount int) {
	e.tasksMutex.Lock()
	defer e.tasksMutex.Unlock()

	runningCount = len(e.runningTasks)
	if runningCount == 0 {
		return "IDLE", nil, 0
	}
	// 返回最早开始的任务
	for _, info := range e.runningTasks {
		if current == nil || info.StartedAt < current.StartedAt {
			c := *info
			current = &c
		}
	}
	return "BUSY", current, runningCount
}

// Execute 执行任务
func (e *Executor) Execute(taskType string, payload map[string]interface{}) *TaskResult {
	taskID := uuid.NewString()
	startTime := time.Now()

	logger.Info("[Task:%s] 开始执行 type=%s", taskID, taskType)
	logger.Debug("[Task:%s] payload=%v", taskID, payload)

	e.registerTask(taskID, taskType)
	defer e.unregisterTask(taskID)

	e.runMu.Lock()
	result, err := e.executeSingleStep(taskType, payload)
	e.runMu.Unlock()

	tr := &TaskResult{
		TaskID:     taskID,
		TaskType:   taskType,
		Status:     StatusSuccess,
		DurationMs: time.Since(startTime).Milliseconds(),
		Result:     result,
	}
	if err != nil {
		taskErr := classifyError(err)
		tr.Status, tr.Reason, tr.Message = taskErr.Status, taskErr.Reason, taskErr.Message
		logger.Error("[Task:%s] 执行失败 status=%s reason=%s: %s", taskID, tr.Status, tr.Reason, tr.Message)
		return tr
	}
	logger.Info("[Task:%s] 执行成功 duration=%dms", taskID, tr.DurationMs)
	return tr
}

// executeSingleStep 按类型分发
func (e *Executor) executeSingleStep(taskType string, payload map[string]interface{}) (interface{}, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	switch taskType {
	case TaskTypeImageFind:
		return e.executeImageFind(payload, false)
	case TaskTypeImageWait:
		return e.executeImageFind(payload, true)
	case TaskTypeImageFindAll:
		return e.executeImageFindAll(payload, false)
	case TaskTypeImageMarkers:
		return e.executeImageFindAll(payload, true)
	case TaskTypeImageVanish:
		return e.executeImageVanish(payload)
	case TaskTypeImageExists:
		return e.executeImageExists(payload)
	case TaskTypeElementFind:
		return e.executeElementFind(payload, false)
	case TaskTypeElementWait:
		return e.executeElementFind(payload, true)
	case TaskTypeElementAll:
		return e.executeElementFindAll(payload)
	case TaskTypeElementVanish:
		return e.executeElementVanish(payload)
	case TaskTypeElementExists:
		return e.executeElementExists(payload)
	case TaskTypeLastMatch:
		return e.executeLastMatch(payload)
	default:
		return nil, paramError("未知的任务类型: %s", taskType)
	}
}

// TaskTypes 全部任务类型
func TaskTypes() []string {
	return []string{
		TaskTypeImageFind, TaskTypeImageFindAll, TaskTypeImageWait, TaskTypeImageVanish,
		TaskTypeImageExists, TaskTypeImageMarkers,
		TaskTypeElementFind, TaskTypeElementAll, TaskTypeElementWait, TaskTypeElementVanish,
		TaskTypeElementExists, TaskTypeLastMatch,
	}
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, what)
}
