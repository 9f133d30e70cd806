package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

// Criteria 元素查找条件，构造后不可变
//
// 结构范围只能是 exact_level 或 max_descend_level 之一：
//   - exact_level < 0: 向上第 |n| 层祖先
//   - exact_level == 0: 兄弟节点
//   - exact_level > 0: 恰好第 n 层后代
//   - 都未设置: 广度优先搜索全部后代（可用 max_descend_level 限制深度）
type Criteria struct {
	fields      map[Field]Matcher
	order       []Field
	controlType ControlType
	hasType     bool
	pids        []int
	exactLevel  int
	hasExact    bool
	maxDescend  int
}

// CriteriaOption 查找条件选项
type CriteriaOption func(*criteriaBuilder)

type criteriaBuilder struct {
	c    Criteria
	errs []error
}

// Where 设置字符串属性匹配
func Where(field Field, m Matcher) CriteriaOption {
	return func(b *criteriaBuilder) {
		if b.c.fields == nil {
			b.c.fields = make(map[Field]Matcher)
		}
		b.c.fields[field] = m
	}
}

// Name 按名称匹配（完全相等）
func Name(name string) CriteriaOption { return Where(FieldName, Exact(name)) }

// AutomationID 按 AutomationId 匹配（完全相等）
func AutomationID(id string) CriteriaOption { return Where(FieldAutomationID, Exact(id)) }

// ClassName 按类名匹配（完全相等）
func ClassName(name string) CriteriaOption { return Where(FieldClassName, Exact(name)) }

// OfType 按控件类型过滤
func OfType(ct ControlType) CriteriaOption {
	return func(b *criteriaBuilder) {
		b.c.controlType = ct
		b.c.hasType = true
	}
}

// InProcess 按所属进程过滤，多个 PID 满足其一即可
func InProcess(pids ...int) CriteriaOption {
	return func(b *criteriaBuilder) {
		if len(pids) == 0 {
			b.errs = append(b.errs, locate.Malformed(string(FieldProcessID), "进程 ID 列表为空"))
			return
		}
		b.c.pids = append(b.c.pids, pids...)
	}
}

// ExactLevel 设置精确层级
func ExactLevel(n int) CriteriaOption {
	return func(b *criteriaBuilder) {
		b.c.exactLevel = n
		b.c.hasExact = true
	}
}

// MaxDescendLevel 限制后代搜索深度，必须为正数
func MaxDescendLevel(n int) CriteriaOption {
	return func(b *criteriaBuilder) {
		if n <= 0 {
			b.errs = append(b.errs, locate.Malformed("max_descend_level", "必须为正数: %d", n))
			return
		}
		b.c.maxDescend = n
	}
}

// NewCriteria 创建查找条件
//
// 未知属性名、无效匹配器、exact_level 与 max_descend_level 同时设置
// 都返回 *locate.MalformedQueryError，不会访问任何提供者。
func NewCriteria(opts ...CriteriaOption) (*Criteria, error) {
	b := &criteriaBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	c := b.c
	if c.hasExact && c.maxDescend > 0 {
		return nil, locate.Malformed("exact_level", "exact_level 与 max_descend_level 不能同时设置")
	}

	for f, m := range c.fields {
		if !IsKnownField(f) {
			return nil, locate.Malformed(string(f), "未知的属性名")
		}
		if f == FieldControlType || f == FieldProcessID {
			return nil, locate.Malformed(string(f), "请使用 OfType/InProcess 设置该条件")
		}
		if err := m.Err(); err != nil {
			return nil, locate.Malformed(string(f), "匹配器无效: %v", err)
		}
		c.order = append(c.order, f)
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })

	return &c, nil
}

// MustCriteria 同 NewCriteria，出错时 panic
func MustCriteria(opts ...CriteriaOption) *Criteria {
	c, err := NewCriteria(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// ExactLevelValue 返回精确层级
func (c *Criteria) ExactLevelValue() (int, bool) { return c.exactLevel, c.hasExact }

// MaxDescend 返回后代深度限制，0 表示不限
func (c *Criteria) MaxDescend() int { return c.maxDescend }

// Fields 返回涉及的全部属性名（含控件类型与进程）
func (c *Criteria) Fields() []Field {
	out := append([]Field(nil), c.order...)
	if c.hasType {
		out = append(out, FieldControlType)
	}
	if len(c.pids) > 0 {
		out = append(out, FieldProcessID)
	}
	return out
}

func (c *Criteria) String() string {
	var parts []string
	for _, f := range c.order {
		parts = append(parts, fmt.Sprintf("%s=%s", f, c.fields[f]))
	}
	if c.hasType {
		parts = append(parts, fmt.Sprintf("ControlType=%s", c.controlType))
	}
	if len(c.pids) > 0 {
		parts = append(parts, fmt.Sprintf("ProcessId=%v", c.pids))
	}
	if c.hasExact {
		parts = append(parts, fmt.Sprintf("exact_level=%d", c.exactLevel))
	}
	if c.maxDescend > 0 {
		parts = append(parts, fmt.Sprintf("max_descend_level=%d", c.maxDescend))
	}
	return "Criteria{" + strings.Join(parts, ", ") + "}"
}
