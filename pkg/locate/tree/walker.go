package tree

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// NodeRef 节点引用，空字符串表示不存在
type NodeRef string

// ErrNoProperty 节点不支持该属性，按不匹配处理
var ErrNoProperty = errors.New("属性不可用")

// Walker 在一份树快照上导航
//
// 导航方法在没有对应节点时返回 ""，nil。
// 可恢复的失败应返回 locate.Transient 包装的错误。
type Walker interface {
	Root() NodeRef
	Parent(n NodeRef) (NodeRef, error)
	FirstChild(n NodeRef) (NodeRef, error)
	NextSibling(n NodeRef) (NodeRef, error)
	PreviousSibling(n NodeRef) (NodeRef, error)
	// Property 读取属性；节点不支持时返回 ErrNoProperty
	Property(n NodeRef, f Field) (any, error)
	// Revision 快照内容版本，ok=false 表示无法比较
	Revision() (rev uint64, ok bool)
}

// Provider 树快照提供者
type Provider interface {
	// Snapshot 从 root 开始获取快照；root 为空时使用提供者默认的根（如桌面）
	Snapshot(root NodeRef) (Walker, error)
}

// Scope 快照需要覆盖的范围：从起点向上 Up 层，向下 Down 层，Down<0 表示不限
type Scope struct {
	Up   int
	Down int
}

// ScopeOf 计算条件需要的快照范围
func ScopeOf(c *Criteria) Scope {
	if n, ok := c.ExactLevelValue(); ok {
		switch {
		case n < 0:
			return Scope{Up: -n}
		case n == 0:
			// 兄弟节点挂在父节点下
			return Scope{Up: 1}
		default:
			return Scope{Down: n}
		}
	}
	if m := c.MaxDescend(); m > 0 {
		return Scope{Down: m}
	}
	return Scope{Down: -1}
}

// ScopedProvider 可选接口：按查询范围导出快照
//
// 快照的 Root() 必须是起点本身，向上的祖先及其子节点也要包含在内，
// 否则祖先和兄弟节点范围无法遍历。
type ScopedProvider interface {
	Provider
	// CheckScope 轮询前检查范围是否可导出，不可导出返回 *locate.MalformedQueryError
	CheckScope(scope Scope) error
	// SnapshotScope 从 root 开始按范围获取快照
	SnapshotScope(root NodeRef, scope Scope) (Walker, error)
}

// FieldSupporter 可选接口：提供者声明自己支持的属性
type FieldSupporter interface {
	SupportsField(f Field) bool
}

// Node 内存中的树节点
type Node struct {
	ID       NodeRef       `json:"id" yaml:"id"`
	Props    map[Field]any `json:"props,omitempty" yaml:"props,omitempty"`
	Children []*Node       `json:"children,omitempty" yaml:"children,omitempty"`
}

type nodeLinks struct {
	node   *Node
	parent NodeRef
	prev   NodeRef
	next   NodeRef
}

// StaticTree 不可变的内存树快照
type StaticTree struct {
	root     NodeRef
	links    map[NodeRef]*nodeLinks
	revision uint64
	hasRev   bool
}

// NewStaticTree 从节点构建快照；start 不为空时以该节点为导航起点。
// 节点 ID 必须唯一。
func NewStaticTree(root *Node, start NodeRef) (*StaticTree, error) {
	if root == nil {
		return nil, fmt.Errorf("根节点为空")
	}
	t := &StaticTree{links: make(map[NodeRef]*nodeLinks)}
	if err := t.index(root, ""); err != nil {
		return nil, err
	}
	t.root = root.ID
	if start != "" {
		if _, ok := t.links[start]; !ok {
			return nil, fmt.Errorf("节点不存在: %s", start)
		}
		t.root = start
	}
	return t, nil
}

// WithRevision 设置内容版本（如原始数据的摘要）
func (t *StaticTree) WithRevision(rev uint64) *StaticTree {
	t.revision, t.hasRev = rev, true
	return t
}

// WithContentRevision 用原始数据的 xxhash 作为内容版本
func (t *StaticTree) WithContentRevision(raw []byte) *StaticTree {
	return t.WithRevision(xxhash.Sum64(raw))
}

func (t *StaticTree) index(n *Node, parent NodeRef) error {
	if n.ID == "" {
		return fmt.Errorf("节点 ID 为空")
	}
	if _, dup := t.links[n.ID]; dup {
		return fmt.Errorf("节点 ID 重复: %s", n.ID)
	}
	t.links[n.ID] = &nodeLinks{node: n, parent: parent}

	var prev NodeRef
	for _, c := range n.Children {
		if err := t.index(c, n.ID); err != nil {
			return err
		}
		t.links[c.ID].prev = prev
		if prev != "" {
			t.links[prev].next = c.ID
		}
		prev = c.ID
	}
	return nil
}

func (t *StaticTree) get(n NodeRef) (*nodeLinks, error) {
	l, ok := t.links[n]
	if !ok {
		return nil, fmt.Errorf("节点不存在: %s", n)
	}
	return l, nil
}

// Root 导航起点
func (t *StaticTree) Root() NodeRef { return t.root }

// Node 返回节点
func (t *StaticTree) Node(n NodeRef) *Node {
	if l, ok := t.links[n]; ok {
		return l.node
	}
	return nil
}

func (t *StaticTree) Parent(n NodeRef) (NodeRef, error) {
	l, err := t.get(n)
	if err != nil {
		return "", err
	}
	return l.parent, nil
}

func (t *StaticTree) FirstChild(n NodeRef) (NodeRef, error) {
	l, err := t.get(n)
	if err != nil {
		return "", err
	}
	if len(l.node.Children) == 0 {
		return "", nil
	}
	return l.node.Children[0].ID, nil
}

func (t *StaticTree) NextSibling(n NodeRef) (NodeRef, error) {
	l, err := t.get(n)
	if err != nil {
		return "", err
	}
	return l.next, nil
}

func (t *StaticTree) PreviousSibling(n NodeRef) (NodeRef, error) {
	l, err := t.get(n)
	if err != nil {
		return "", err
	}
	return l.prev, nil
}

func (t *StaticTree) Property(n NodeRef, f Field) (any, error) {
	l, err := t.get(n)
	if err != nil {
		return nil, err
	}
	v, ok := l.node.Props[f]
	if !ok {
		return nil, ErrNoProperty
	}
	return v, nil
}

func (t *StaticTree) Revision() (uint64, bool) { return t.revision, t.hasRev }
