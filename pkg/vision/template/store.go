// Package template 加载模板图像并构造视觉查询
//
// 模板引用支持三种写法:
//
//	button.png               相对模板目录（或当前目录）的文件
//	/abs/path/button.png     绝对路径
//	data:image/png;base64,.. data URL
//
// 引用末尾可以附加 "@相似度"，例如 "button.png@0.95"。
package template

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cast"
	_ "golang.org/x/image/bmp"  // 注册 BMP 解码器
	_ "golang.org/x/image/webp" // 注册 WebP 解码器

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

// 未写扩展名时依次尝试
var defaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp", ".gif"}

// Store 模板仓库，按引用与解析后的路径缓存解码结果
type Store struct {
	dir        string
	similarity float64

	mu    sync.Mutex
	cache map[string]image.Image
}

// Option Store 选项
type Option func(*Store)

// WithSimilarity 设置未显式指定时的相似度
func WithSimilarity(similarity float64) Option {
	return func(s *Store) {
		if similarity > 0 {
			s.similarity = similarity
		}
	}
}

// NewStore 创建模板仓库，dir 为空时只按当前目录解析
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:        dir,
		similarity: visual.DefaultSimilarity,
		cache:      make(map[string]image.Image),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir 模板目录
func (s *Store) Dir() string { return s.dir }

// Similarity 默认相似度
func (s *Store) Similarity() float64 { return s.similarity }

// Query 将多个引用按顺序构造为查询
//
// similarity 为 visual.UseDefaultSimilarity 时使用引用自带或仓库默认的相似度。
// 任一模板无法加载或相似度不在 (0, 1] 时返回 *locate.MalformedQueryError。
func (s *Store) Query(refs []string, similarity float64) (*visual.PatternQuery, error) {
	if len(refs) == 0 {
		return nil, locate.Malformed("patterns", "至少需要一个模板")
	}
	patterns := make([]visual.Pattern, 0, len(refs))
	for i, ref := range refs {
		p, err := s.Pattern(ref, similarity)
		if err != nil {
			return nil, locate.Malformed(fmt.Sprintf("patterns[%d]", i), "%v", err)
		}
		patterns = append(patterns, p)
	}
	return visual.NewPatternQuery(patterns...)
}

// Pattern 加载单个模板
func (s *Store) Pattern(ref string, similarity float64) (visual.Pattern, error) {
	ref, own, err := splitSimilarity(ref)
	if err != nil {
		return visual.Pattern{}, err
	}
	if similarity == visual.UseDefaultSimilarity {
		similarity = own
	}
	if similarity == visual.UseDefaultSimilarity {
		similarity = s.similarity
	}
	if !(similarity > 0 && similarity <= 1) {
		return visual.Pattern{}, locate.Malformed("similarity", "必须在 (0, 1] 范围内: %v", similarity)
	}

	img, err := s.Load(ref)
	if err != nil {
		return visual.Pattern{}, err
	}
	return visual.NewPattern(displayName(ref), img, similarity), nil
}

// Load 加载模板图像
func (s *Store) Load(ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("模板引用为空")
	}
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}

	s.mu.Lock()
	img, ok := s.cache[ref]
	s.mu.Unlock()
	if ok {
		return img, nil
	}

	path, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	img, ok = s.cache[path]
	s.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err = decodeFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("[template] 加载模板 %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())

	s.mu.Lock()
	s.cache[path] = img
	s.cache[ref] = img
	s.mu.Unlock()
	return img, nil
}

// Resolve 解析模板文件路径
func (s *Store) Resolve(ref string) (string, error) {
	var bases []string
	if filepath.IsAbs(ref) {
		bases = []string{ref}
	} else {
		if s.dir != "" {
			bases = append(bases, filepath.Join(s.dir, ref))
		}
		bases = append(bases, ref)
	}

	for _, base := range bases {
		if isFile(base) {
			return filepath.Abs(base)
		}
		if filepath.Ext(base) != "" {
			continue
		}
		for _, ext := range defaultExtensions {
			if isFile(base + ext) {
				return filepath.Abs(base + ext)
			}
		}
	}
	return "", fmt.Errorf("模板不存在: %s", ref)
}

// Clear 清空缓存
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]image.Image)
}

// splitSimilarity 拆分 "name@0.9"；@ 之后不是数字时整体视为名称
func splitSimilarity(ref string) (string, float64, error) {
	i := strings.LastIndex(ref, "@")
	if i < 0 || strings.HasPrefix(ref, "data:") {
		return ref, visual.UseDefaultSimilarity, nil
	}
	v, err := cast.ToFloat64E(ref[i+1:])
	if err != nil {
		return ref, visual.UseDefaultSimilarity, nil
	}
	if !(v > 0 && v <= 1) {
		return "", 0, locate.Malformed("similarity", "必须在 (0, 1] 范围内: %s", ref[i+1:])
	}
	return ref[:i], v, nil
}

func displayName(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return "data-url"
	}
	return filepath.Base(ref)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开模板失败: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码模板 %s 失败: %w", path, err)
	}
	return img, nil
}

func decodeDataURL(url string) (image.Image, error) {
	header, payload, ok := strings.Cut(url, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("仅支持 base64 编码的 data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL 解码失败: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("data URL 图像解码失败: %w", err)
	}
	return img, nil
}
