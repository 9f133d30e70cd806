// Package grid 计算匹配区域内的网格单元位置
package grid

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Position 网格位置
type Position struct {
	Rows int `json:"rows" yaml:"rows"` // 总行数
	Cols int `json:"cols" yaml:"cols"` // 总列数
	Row  int `json:"row" yaml:"row"`   // 目标行 (1-based)
	Col  int `json:"col" yaml:"col"`   // 目标列 (1-based)
}

// Parse 解析网格位置字符串
// 格式: rows.cols.row.col (如 "2.2.1.1" 表示 2x2 网格的第1行第1列)
func Parse(s string) (*Position, error) {
	if s == "" {
		return nil, fmt.Errorf("网格位置字符串为空")
	}

	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("无效的网格位置格式: %s (期望格式: rows.cols.row.col)", s)
	}

	var v [4]int
	names := [4]string{"行数", "列数", "目标行", "目标列"}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("无效的%s: %s", names[i], part)
		}
		v[i] = n
	}

	p := &Position{Rows: v[0], Cols: v[1], Row: v[2], Col: v[3]}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate 检查位置是否在网格范围内
func (p *Position) Validate() error {
	if p.Rows < 1 || p.Cols < 1 {
		return fmt.Errorf("行数和列数必须大于 0: rows=%d, cols=%d", p.Rows, p.Cols)
	}
	if p.Row < 1 || p.Col < 1 {
		return fmt.Errorf("目标行和目标列必须大于 0: row=%d, col=%d", p.Row, p.Col)
	}
	if p.Row > p.Rows || p.Col > p.Cols {
		return fmt.Errorf("目标位置超出范围: row=%d > rows=%d 或 col=%d > cols=%d", p.Row, p.Rows, p.Col, p.Cols)
	}
	return nil
}

func (p Position) String() string {
	return Format(p.Rows, p.Cols, p.Row, p.Col)
}

// Format 格式化网格位置为字符串
func Format(rows, cols, row, col int) string {
	return fmt.Sprintf("%d.%d.%d.%d", rows, cols, row, col)
}

// Center 计算网格单元格的中心点；pos 为 nil 时返回区域中心
func Center(rect image.Rectangle, pos *Position) image.Point {
	if pos == nil {
		return image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
	}

	cellWidth := float64(rect.Dx()) / float64(pos.Cols)
	cellHeight := float64(rect.Dy()) / float64(pos.Rows)

	x := float64(rect.Min.X) + (float64(pos.Col)-0.5)*cellWidth
	y := float64(rect.Min.Y) + (float64(pos.Row)-0.5)*cellHeight
	return image.Pt(int(x), int(y))
}

// CenterOf 解析字符串并计算网格中心点；空字符串返回区域中心
func CenterOf(rect image.Rectangle, spec string) (image.Point, error) {
	if spec == "" {
		return Center(rect, nil), nil
	}
	pos, err := Parse(spec)
	if err != nil {
		return image.Point{}, err
	}
	return Center(rect, pos), nil
}

// CellRect 获取网格中指定格子的矩形区域
func CellRect(rect image.Rectangle, rows, cols, row, col int) image.Rectangle {
	cellWidth := float64(rect.Dx()) / float64(cols)
	cellHeight := float64(rect.Dy()) / float64(rows)

	x := int(float64(rect.Min.X) + float64(col-1)*cellWidth)
	y := int(float64(rect.Min.Y) + float64(row-1)*cellHeight)
	return image.Rect(x, y, x+int(cellWidth), y+int(cellHeight))
}

// Cells 按行优先返回区域内全部单元中心，格式 "rows.cols"
func Cells(rect image.Rectangle, spec string) ([]image.Point, error) {
	parts := strings.Split(spec, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("无效的网格尺寸格式: %s (期望格式: rows.cols)", spec)
	}
	rows, err1 := strconv.Atoi(parts[0])
	cols, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || rows < 1 || cols < 1 {
		return nil, fmt.Errorf("无效的网格尺寸: %s", spec)
	}

	it := NewIterator(rect, rows, cols)
	cells := make([]image.Point, 0, it.Count())
	for pt, ok := it.Next(); ok; pt, ok = it.Next() {
		cells = append(cells, pt)
	}
	return cells, nil
}

// IsCellsSpec 判断是否为 "rows.cols" 形式
func IsCellsSpec(spec string) bool {
	return strings.Count(spec, ".") == 1
}
