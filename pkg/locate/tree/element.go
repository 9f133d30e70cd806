package tree

import (
	"fmt"
	"image"
	"sort"

	"github.com/spf13/cast"

	"github.com/zoeyai/zoeylocate/pkg/auto/grid"
)

// UnknownAccessorError 元素不支持该属性
type UnknownAccessorError struct {
	Kind string
	Name string
}

func (e *UnknownAccessorError) Error() string {
	return fmt.Sprintf("%s 不支持属性 %q", e.Kind, e.Name)
}

// Element 树查找结果的类型化包装
//
// 可用属性在构造时确定：通用 UIA 属性加上控件种类的特有属性。
// 读取未知属性返回 *UnknownAccessorError，不会退化为其他查找。
type Element struct {
	Ref       NodeRef
	Kind      *Kind
	walker    Walker
	accessors map[string]Accessor
}

// commonAccessors 全部元素共有的属性
var commonAccessors = func() map[string]Accessor {
	m := make(map[string]Accessor, len(knownFields))
	for f := range knownFields {
		m[string(f)] = fieldAccessor(f)
	}
	return m
}()

// Wrap 按控件类型与角色选择种类并包装节点
func Wrap(w Walker, n NodeRef, reg *Registry) (*Element, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	ct, _, err := intProperty(w, n, FieldControlType)
	if err != nil {
		return nil, err
	}
	role := RoleNone
	if ControlType(ct) == Custom {
		if role, _, err = intProperty(w, n, FieldLegacyRole); err != nil {
			return nil, err
		}
	}
	return newElement(w, n, reg.Lookup(ControlType(ct), role)), nil
}

func newElement(w Walker, n NodeRef, kind *Kind) *Element {
	acc := make(map[string]Accessor, len(commonAccessors)+len(kind.Accessors))
	for name, a := range commonAccessors {
		acc[name] = a
	}
	for name, a := range kind.Accessors {
		acc[name] = a
	}
	return &Element{Ref: n, Kind: kind, walker: w, accessors: acc}
}

// Get 读取具名属性
func (e *Element) Get(name string) (any, error) {
	a, ok := e.accessors[name]
	if !ok {
		return nil, &UnknownAccessorError{Kind: e.Kind.Name, Name: name}
	}
	return a(e)
}

// Has 判断是否支持该属性
func (e *Element) Has(name string) bool {
	_, ok := e.accessors[name]
	return ok
}

// Accessors 返回全部可用属性名（已排序）
func (e *Element) Accessors() []string {
	names := make([]string, 0, len(e.accessors))
	for name := range e.accessors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name 名称
func (e *Element) Name() string { return e.str(FieldName) }

// AutomationID AutomationId
func (e *Element) AutomationID() string { return e.str(FieldAutomationID) }

// ClassName 类名
func (e *Element) ClassName() string { return e.str(FieldClassName) }

// ControlType 控件类型
func (e *Element) ControlType() ControlType {
	ct, _, _ := intProperty(e.walker, e.Ref, FieldControlType)
	return ControlType(ct)
}

// ProcessID 所属进程
func (e *Element) ProcessID() int {
	pid, _, _ := intProperty(e.walker, e.Ref, FieldProcessID)
	return pid
}

// Rect 屏幕区域；属性为 [left, top, right, bottom]
func (e *Element) Rect() (image.Rectangle, error) {
	v, ok, err := property(e.walker, e.Ref, FieldBoundingRectangle)
	if err != nil {
		return image.Rectangle{}, err
	}
	if !ok {
		return image.Rectangle{}, fmt.Errorf("元素没有区域信息: %s", e.Ref)
	}
	if m, isMap := v.(map[string]any); isMap {
		l, t := cast.ToInt(m["left"]), cast.ToInt(m["top"])
		return image.Rect(l, t, cast.ToInt(m["right"]), cast.ToInt(m["bottom"])), nil
	}
	r, err := cast.ToIntSliceE(v)
	if err != nil || len(r) != 4 {
		return image.Rectangle{}, fmt.Errorf("区域格式无效: %v", v)
	}
	return image.Rect(r[0], r[1], r[2], r[3]), nil
}

// Center 区域中心
func (e *Element) Center() (image.Point, error) {
	return e.Grid("")
}

// Grid 区域内网格单元中心，格式 "rows.cols.row.col"
func (e *Element) Grid(spec string) (image.Point, error) {
	r, err := e.Rect()
	if err != nil {
		return image.Point{}, err
	}
	return grid.CenterOf(r, spec)
}

func (e *Element) String() string {
	return fmt.Sprintf("%s(%q, id=%s)", e.Kind.Name, e.Name(), e.Ref)
}

func (e *Element) str(f Field) string {
	v, ok, err := property(e.walker, e.Ref, f)
	if err != nil || !ok {
		return ""
	}
	return cast.ToString(v)
}

func fieldAccessor(f Field) Accessor {
	return func(e *Element) (any, error) {
		v, _, err := property(e.walker, e.Ref, f)
		return v, err
	}
}

// toggledAccessor ToggleState 为 1 (On) 时视为选中
func toggledAccessor(e *Element) (any, error) {
	v, ok, err := intProperty(e.walker, e.Ref, FieldToggleState)
	if err != nil || !ok {
		return false, err
	}
	return v == 1, nil
}

func intProperty(w Walker, n NodeRef, f Field) (int, bool, error) {
	v, ok, err := property(w, n, f)
	if err != nil || !ok {
		return 0, false, err
	}
	i, cerr := cast.ToIntE(v)
	if cerr != nil {
		return 0, false, nil
	}
	return i, true, nil
}
