package visual

import (
	"fmt"
	"image"
	"strings"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

const (
	// DefaultSimilarity 默认相似度阈值
	DefaultSimilarity = 0.8
	// UseDefaultSimilarity 表示未指定相似度，使用默认阈值
	UseDefaultSimilarity float64 = -1
)

// Pattern 模板图像与相似度阈值
type Pattern struct {
	// Name 模板名称（文件名或标识），仅用于日志与结果
	Name string
	// Image 模板图像
	Image image.Image
	// Similarity 相似度阈值，范围 (0, 1]；候选得分必须严格大于该值
	Similarity float64
}

// Size 模板宽高
func (p Pattern) Size() (w, h int) {
	b := p.Image.Bounds()
	return b.Dx(), b.Dy()
}

func (p Pattern) String() string {
	name := p.Name
	if name == "" {
		w, h := p.Size()
		name = fmt.Sprintf("%dx%d", w, h)
	}
	return fmt.Sprintf("%s@%.2f", name, p.Similarity)
}

// NewPattern 创建模板，similarity 为 UseDefaultSimilarity 时使用默认阈值
//
// 其余取值原样保留（包括 0），由 NewPatternQuery 校验。
func NewPattern(name string, img image.Image, similarity float64) Pattern {
	if similarity == UseDefaultSimilarity {
		similarity = DefaultSimilarity
	}
	return Pattern{Name: name, Image: img, Similarity: similarity}
}

// PatternQuery 按声明顺序排列的模板列表，构造后不可变
type PatternQuery struct {
	patterns []Pattern
}

// NewPatternQuery 创建模板查询
//
// 相似度不在 (0, 1] 或模板为空时返回 *locate.MalformedQueryError，
// 此时不会进行任何截图。
func NewPatternQuery(patterns ...Pattern) (*PatternQuery, error) {
	if len(patterns) == 0 {
		return nil, locate.Malformed("patterns", "至少需要一个模板")
	}
	for i, p := range patterns {
		field := fmt.Sprintf("patterns[%d]", i)
		if !(p.Similarity > 0 && p.Similarity <= 1) {
			return nil, locate.Malformed(field, "相似度必须在 (0, 1] 范围内: %v", p.Similarity)
		}
		if p.Image == nil {
			return nil, locate.Malformed(field, "模板图像为空")
		}
		if b := p.Image.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
			return nil, locate.Malformed(field, "模板图像尺寸无效: %dx%d", b.Dx(), b.Dy())
		}
	}
	return &PatternQuery{patterns: append([]Pattern(nil), patterns...)}, nil
}

// MustPatternQuery 同 NewPatternQuery，出错时 panic
func MustPatternQuery(patterns ...Pattern) *PatternQuery {
	q, err := NewPatternQuery(patterns...)
	if err != nil {
		panic(err)
	}
	return q
}

// Len 模板数量
func (q *PatternQuery) Len() int { return len(q.patterns) }

// At 返回第 i 个模板
func (q *PatternQuery) At(i int) Pattern { return q.patterns[i] }

// Patterns 返回模板副本
func (q *PatternQuery) Patterns() []Pattern {
	return append([]Pattern(nil), q.patterns...)
}

func (q *PatternQuery) String() string {
	parts := make([]string, len(q.patterns))
	for i, p := range q.patterns {
		parts[i] = p.String()
	}
	return "Pattern[" + strings.Join(parts, ", ") + "]"
}
