package grid

import "image"

// Iterator 按行优先顺序遍历网格中的所有单元中心
type Iterator struct {
	rect    image.Rectangle
	rows    int
	cols    int
	current int
}

// NewIterator 创建网格迭代器
func NewIterator(rect image.Rectangle, rows, cols int) *Iterator {
	return &Iterator{rect: rect, rows: rows, cols: cols}
}

// Next 获取下一个单元中心，遍历完毕时 ok 为 false
func (g *Iterator) Next() (pt image.Point, ok bool) {
	if g.current >= g.Count() {
		return image.Point{}, false
	}

	pos := &Position{
		Rows: g.rows,
		Cols: g.cols,
		Row:  g.current/g.cols + 1,
		Col:  g.current%g.cols + 1,
	}
	g.current++
	return Center(g.rect, pos), true
}

// Reset 重置迭代器
func (g *Iterator) Reset() {
	g.current = 0
}

// Count 返回总格子数
func (g *Iterator) Count() int {
	return g.rows * g.cols
}
