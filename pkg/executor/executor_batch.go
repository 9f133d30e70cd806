package executor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zoeyai/zoeylocate/internal/logger"
)

// ==================== 批量执行 ====================

// Step 计划中的一个步骤
type Step struct {
	ID       string                 `yaml:"id" json:"id"`
	TaskType string                 `yaml:"task" json:"task"`
	Params   map[string]interface{} `yaml:"params" json:"params"`
}

// Plan 按顺序执行的步骤列表
type Plan struct {
	StopOnFail bool   `yaml:"stop_on_fail" json:"stop_on_fail"`
	Steps      []Step `yaml:"steps" json:"steps"`
}

// StepResult 单个步骤的结果
type StepResult struct {
	StepID     string `yaml:"step_id" json:"step_id"`
	TaskResult `yaml:",inline"`
}

// PlanResult 计划执行结果
type PlanResult struct {
	Status  string        `yaml:"status" json:"status"`
	Total   int           `yaml:"total" json:"total"`
	Passed  int           `yaml:"passed" json:"passed"`
	Failed  int           `yaml:"failed" json:"failed"`
	Skipped int           `yaml:"skipped" json:"skipped"`
	Steps   []*StepResult `yaml:"steps" json:"steps"`
}

// LoadPlan 从 YAML 文件读取计划
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取计划文件失败: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("解析计划文件失败: %w", err)
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("计划不包含任何步骤: %s", path)
	}
	return &plan, nil
}

// ExecutePlan 顺序执行计划中的步骤
//
// StopOnFail 为 true 时，第一个失败步骤之后的步骤记为跳过。
func (e *Executor) ExecutePlan(plan *Plan) *PlanResult {
	res := &PlanResult{Status: StatusSuccess, Total: len(plan.Steps)}
	logger.Info("[Plan] 开始执行，共 %d 个步骤, stop_on_fail=%v", res.Total, plan.StopOnFail)

	for i, step := range plan.Steps {
		id := step.ID
		if id == "" {
			id = fmt.Sprintf("step-%d", i+1)
		}

		if plan.StopOnFail && res.Failed > 0 {
			res.Skipped++
			continue
		}

		logger.Info("[Plan] 执行步骤 %d/%d: %s (type=%s)", i+1, res.Total, id, step.TaskType)
		tr := e.Execute(step.TaskType, step.Params)
		res.Steps = append(res.Steps, &StepResult{StepID: id, TaskResult: *tr})

		if tr.OK() {
			res.Passed++
			continue
		}
		res.Failed++
		res.Status = StatusFailed
		logger.Error("[Plan] 步骤 %s 执行失败: %s", id, tr.Message)
	}

	logger.Info("[Plan] 执行完成 passed=%d failed=%d skipped=%d", res.Passed, res.Failed, res.Skipped)
	return res
}
