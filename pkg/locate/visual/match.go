package visual

import (
	"fmt"
	"image"

	"github.com/zoeyai/zoeylocate/pkg/auto/grid"
)

// TargetPos 目标位置，用于指定使用匹配区域的哪个点
type TargetPos int

const (
	// TargetPosMid 中心点（默认）
	TargetPosMid TargetPos = iota
	// TargetPosTopLeft 左上角
	TargetPosTopLeft
	// TargetPosTopRight 右上角
	TargetPosTopRight
	// TargetPosBottomLeft 左下角
	TargetPosBottomLeft
	// TargetPosBottomRight 右下角
	TargetPosBottomRight
)

// Match 视觉匹配结果（屏幕坐标）
type Match struct {
	X      int     `json:"x" yaml:"x"`
	Y      int     `json:"y" yaml:"y"`
	Width  int     `json:"width" yaml:"width"`
	Height int     `json:"height" yaml:"height"`
	Score  float64 `json:"score" yaml:"score"`
	// Pattern 命中的模板名称
	Pattern string `json:"pattern" yaml:"pattern"`
	// Index 命中的模板在查询中的下标
	Index int `json:"index" yaml:"index"`
}

// Rect 匹配区域
func (m Match) Rect() image.Rectangle {
	return image.Rect(m.X, m.Y, m.X+m.Width, m.Y+m.Height)
}

// Center 中心点
func (m Match) Center() image.Point {
	return image.Pt(m.X+m.Width/2, m.Y+m.Height/2)
}

// Target 返回指定位置的坐标
func (m Match) Target(pos TargetPos) image.Point {
	switch pos {
	case TargetPosTopLeft:
		return image.Pt(m.X, m.Y)
	case TargetPosTopRight:
		return image.Pt(m.X+m.Width, m.Y)
	case TargetPosBottomLeft:
		return image.Pt(m.X, m.Y+m.Height)
	case TargetPosBottomRight:
		return image.Pt(m.X+m.Width, m.Y+m.Height)
	default:
		return m.Center()
	}
}

// Grid 返回匹配区域内网格单元的中心点，格式 "rows.cols.row.col"
func (m Match) Grid(spec string) (image.Point, error) {
	return grid.CenterOf(m.Rect(), spec)
}

func (m Match) String() string {
	return fmt.Sprintf("Match(%s %d,%d %dx%d score=%.3f)", m.Pattern, m.X, m.Y, m.Width, m.Height, m.Score)
}

// promote 将候选转换为屏幕坐标的匹配结果
func promote(frame *Frame, q *PatternQuery, index int, c Candidate) Match {
	p := q.At(index)
	w, h := p.Size()
	return Match{
		X:       frame.Bounds.Min.X + c.X,
		Y:       frame.Bounds.Min.Y + c.Y,
		Width:   w,
		Height:  h,
		Score:   c.Score,
		Pattern: p.Name,
		Index:   index,
	}
}
