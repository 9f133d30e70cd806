package locate

// LastMatch 定位器持有的最近一次查找结果
//
// 每次查找都会覆盖：成功时写入，未找到时清空。
// 只应由调用查找的那个 goroutine 访问。
type LastMatch[M any] struct {
	one *M
	all []M
}

// Set 记录单个匹配
func (s *LastMatch[M]) Set(m M) {
	s.one = &m
	s.all = []M{m}
}

// SetAll 记录多个匹配，第一个作为单个结果
func (s *LastMatch[M]) SetAll(ms []M) {
	if len(ms) == 0 {
		s.Clear()
		return
	}
	first := ms[0]
	s.one = &first
	s.all = append([]M(nil), ms...)
}

// Clear 清空
func (s *LastMatch[M]) Clear() {
	s.one = nil
	s.all = nil
}

// Get 返回最近的单个匹配
func (s *LastMatch[M]) Get() (*M, error) {
	if s.one == nil {
		return nil, ErrNoLastMatch
	}
	m := *s.one
	return &m, nil
}

// All 返回最近的全部匹配（可能为空）
func (s *LastMatch[M]) All() []M {
	return append([]M(nil), s.all...)
}
