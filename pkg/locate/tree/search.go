package tree

import (
	"errors"

	"github.com/spf13/cast"
)

// Search 在快照上按条件查找节点
//
// single 为 true 时找到第一个满足条件的节点立即返回。
// 搜索起点本身不参与匹配（exact_level < 0 时匹配的是祖先）。
func Search(w Walker, c *Criteria, single bool) ([]NodeRef, error) {
	s := &searcher{w: w, c: c, single: single}
	root := w.Root()

	var err error
	level, exact := c.ExactLevelValue()
	switch {
	case exact && level < 0:
		err = s.ancestor(root, -level)
	case exact && level == 0:
		err = s.siblings(root)
	case exact:
		_, err = s.depthFirst(root, 0, level)
	default:
		err = s.breadthFirst(root, c.MaxDescend())
	}
	if err != nil {
		return nil, err
	}
	return s.found, nil
}

type searcher struct {
	w      Walker
	c      *Criteria
	single bool
	found  []NodeRef
}

// visit 检查节点，返回是否应停止遍历
func (s *searcher) visit(n NodeRef) (bool, error) {
	ok, err := Suitable(s.w, n, s.c)
	if err != nil {
		return false, err
	}
	if ok {
		s.found = append(s.found, n)
		return s.single, nil
	}
	return false, nil
}

// ancestor 沿父链向上 distance 层
func (s *searcher) ancestor(n NodeRef, distance int) error {
	var err error
	for i := 0; i < distance; i++ {
		n, err = s.w.Parent(n)
		if err != nil {
			return err
		}
		if n == "" {
			return nil
		}
	}
	_, err = s.visit(n)
	return err
}

// siblings 先向后扫描；单个查找且没有命中时再向前扫描
func (s *searcher) siblings(n NodeRef) error {
	for cur := n; ; {
		next, err := s.w.NextSibling(cur)
		if err != nil {
			return err
		}
		if next == "" {
			break
		}
		stop, err := s.visit(next)
		if err != nil || stop {
			return err
		}
		cur = next
	}

	if !s.single || len(s.found) > 0 {
		return nil
	}

	for cur := n; ; {
		prev, err := s.w.PreviousSibling(cur)
		if err != nil {
			return err
		}
		if prev == "" {
			return nil
		}
		stop, err := s.visit(prev)
		if err != nil || stop {
			return err
		}
		cur = prev
	}
}

// depthFirst 按分支深度优先，只检查恰好位于 target 层的节点
func (s *searcher) depthFirst(n NodeRef, depth, target int) (bool, error) {
	if depth == target {
		return s.visit(n)
	}
	child, err := s.w.FirstChild(n)
	for ; err == nil && child != ""; child, err = s.w.NextSibling(child) {
		stop, verr := s.depthFirst(child, depth+1, target)
		if verr != nil || stop {
			return stop, verr
		}
	}
	return false, err
}

// breadthFirst 逐层搜索后代，maxDepth 为 0 表示不限深度
func (s *searcher) breadthFirst(root NodeRef, maxDepth int) error {
	frontier := []NodeRef{root}
	for depth := 1; maxDepth <= 0 || depth <= maxDepth; depth++ {
		var next []NodeRef
		for _, parent := range frontier {
			child, err := s.w.FirstChild(parent)
			for ; err == nil && child != ""; child, err = s.w.NextSibling(child) {
				stop, verr := s.visit(child)
				if verr != nil || stop {
					return verr
				}
				next = append(next, child)
			}
			if err != nil {
				return err
			}
		}
		if len(next) == 0 {
			return nil
		}
		frontier = next
	}
	return nil
}

// Suitable 判断节点是否满足全部条件
func Suitable(w Walker, n NodeRef, c *Criteria) (bool, error) {
	if c.hasType {
		v, ok, err := property(w, n, FieldControlType)
		if err != nil || !ok {
			return false, err
		}
		ct, cerr := cast.ToIntE(v)
		if cerr != nil || ControlType(ct) != c.controlType {
			return false, nil
		}
	}

	if len(c.pids) > 0 {
		v, ok, err := property(w, n, FieldProcessID)
		if err != nil || !ok {
			return false, err
		}
		pid, cerr := cast.ToIntE(v)
		if cerr != nil || !containsInt(c.pids, pid) {
			return false, nil
		}
	}

	for _, f := range c.order {
		v, ok, err := property(w, n, f)
		if err != nil || !ok {
			return false, err
		}
		str, cerr := cast.ToStringE(v)
		if cerr != nil || !c.fields[f].Match(str) {
			return false, nil
		}
	}
	return true, nil
}

// property 读取属性；不支持的属性返回 ok=false
func property(w Walker, n NodeRef, f Field) (any, bool, error) {
	v, err := w.Property(n, f)
	if errors.Is(err, ErrNoProperty) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
