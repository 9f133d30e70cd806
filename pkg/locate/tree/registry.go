package tree

import (
	"sort"
	"sync"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

// Accessor 控件种类特有的属性读取
type Accessor func(e *Element) (any, error)

// Kind 控件种类
type Kind struct {
	// Name 种类名称
	Name string
	// ControlType 对应的控件类型
	ControlType ControlType
	// Role 仅对 Custom 控件有效的 MSAA 角色，其余控件类型忽略
	Role int
	// Accessors 额外的具名属性
	Accessors map[string]Accessor
}

type kindKey struct {
	controlType ControlType
	role        int
}

func keyOf(ct ControlType, role int) kindKey {
	if ct != Custom {
		role = RoleNone
	}
	return kindKey{controlType: ct, role: role}
}

// Registry 控件种类注册表，按 (控件类型, 角色) 索引
type Registry struct {
	mu      sync.RWMutex
	kinds   map[kindKey]*Kind
	generic *Kind
}

// GenericKind 没有注册种类时使用的通用包装
var GenericKind = &Kind{Name: "Element"}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		kinds:   make(map[kindKey]*Kind),
		generic: GenericKind,
	}
}

// Register 注册控件种类；同一 (控件类型, 角色) 已被占用时返回 *locate.AmbiguousRegistryError
func (r *Registry) Register(k Kind) error {
	if k.Name == "" {
		return locate.Malformed("kind", "种类名称为空")
	}
	key := keyOf(k.ControlType, k.Role)

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.kinds[key]; ok {
		kinds := []string{prev.Name, k.Name}
		sort.Strings(kinds)
		return &locate.AmbiguousRegistryError{
			ControlType: int(key.controlType),
			Role:        key.role,
			Kinds:       kinds,
		}
	}
	kind := k
	r.kinds[key] = &kind
	return nil
}

// MustRegister 注册失败时 panic
func (r *Registry) MustRegister(kinds ...Kind) {
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
}

// Lookup 查找控件种类，未注册时返回通用种类
func (r *Registry) Lookup(ct ControlType, role int) *Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if k, ok := r.kinds[keyOf(ct, role)]; ok {
		return k
	}
	return r.generic
}

// Kinds 返回已注册的种类名称（已排序）
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for _, k := range r.kinds {
		names = append(names, k.Name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry 内置控件种类注册表，首次调用时构建
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		for ct, name := range controlTypeNames {
			if ct == Custom {
				continue
			}
			r.MustRegister(Kind{Name: name, ControlType: ct, Accessors: builtinAccessors[ct]})
		}
		r.MustRegister(
			Kind{Name: "CustomButton", ControlType: Custom, Role: RolePushButton},
			Kind{Name: "CustomCheckBox", ControlType: Custom, Role: RoleCheckButton,
				Accessors: builtinAccessors[CheckBox]},
			Kind{Name: "CustomRadioButton", ControlType: Custom, Role: RoleRadioButton,
				Accessors: builtinAccessors[RadioButton]},
			Kind{Name: "CustomLink", ControlType: Custom, Role: RoleLink},
			Kind{Name: "CustomImage", ControlType: Custom, Role: RoleGraphic},
		)
		defaultRegistry = r
	})
	return defaultRegistry
}

// builtinAccessors 内置种类的特有属性
var builtinAccessors = map[ControlType]map[string]Accessor{
	Edit: {
		"text": fieldAccessor(FieldValue),
	},
	Document: {
		"text": fieldAccessor(FieldValue),
	},
	CheckBox: {
		"toggle_state": fieldAccessor(FieldToggleState),
		"checked":      toggledAccessor,
	},
	RadioButton: {
		"selected": fieldAccessor(FieldIsSelected),
	},
	ListItem: {
		"selected": fieldAccessor(FieldIsSelected),
	},
	TabItem: {
		"selected": fieldAccessor(FieldIsSelected),
	},
	ComboBox: {
		"value":        fieldAccessor(FieldValue),
		"expand_state": fieldAccessor(FieldExpandCollapseState),
	},
	TreeItem: {
		"expand_state": fieldAccessor(FieldExpandCollapseState),
	},
	MenuItem: {
		"expand_state": fieldAccessor(FieldExpandCollapseState),
	},
}
