// Package diag 在查找最终失败时保存现场，便于事后排查
//
// 视觉查找保存带标注的截图，控件树查找保存 YAML 格式的树快照；
// 两者都附带一份记录查询、超时与重试次数的 YAML 元数据。
package diag

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"gopkg.in/yaml.v3"

	"github.com/zoeyai/zoeylocate/internal/logger"
	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

const (
	// DefaultMaxFiles 默认最多保留的记录数
	DefaultMaxFiles = 50
	// DefaultTreeDepth 遍历非内存树时的最大深度
	DefaultTreeDepth = 8

	bannerHeight = 22
	fontSize     = 13
)

// Record 一次失败查找的元数据
type Record struct {
	ID       string    `yaml:"id"`
	Time     time.Time `yaml:"time"`
	Query    string    `yaml:"query"`
	Mode     string    `yaml:"mode"`
	Timeout  string    `yaml:"timeout"`
	Elapsed  string    `yaml:"elapsed"`
	Attempts int       `yaml:"attempts"`
	Cause    string    `yaml:"cause,omitempty"`
	Snapshot string    `yaml:"snapshot,omitempty"`
}

// Sink 将失败现场写入目录，实现 locate.DiagnosticsSink
type Sink struct {
	dir      string
	maxFiles int
	now      func() time.Time

	mu sync.Mutex
}

// Option Sink 选项
type Option func(*Sink)

// WithMaxFiles 设置最多保留的记录数，0 表示不清理
func WithMaxFiles(n int) Option {
	return func(s *Sink) {
		if n >= 0 {
			s.maxFiles = n
		}
	}
}

// NewSink 创建诊断输出
func NewSink(dir string, opts ...Option) *Sink {
	s := &Sink{dir: dir, maxFiles: DefaultMaxFiles, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir 输出目录
func (s *Sink) Dir() string { return s.dir }

// RecordMiss 保存一次失败查找
func (s *Sink) RecordMiss(miss *locate.NotFoundError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("创建诊断目录失败: %w", err)
	}

	now := s.now()
	id := now.Format("20060102-150405") + "-" + uuid.NewString()[:8]
	rec := Record{
		ID:       id,
		Time:     now,
		Query:    miss.Query,
		Mode:     miss.Mode.String(),
		Timeout:  miss.Timeout.String(),
		Elapsed:  miss.Elapsed.String(),
		Attempts: miss.Attempts,
	}
	if miss.Cause != nil {
		rec.Cause = miss.Cause.Error()
	}

	var err error
	switch snap := miss.Snapshot.(type) {
	case *visual.Frame:
		rec.Snapshot = id + ".png"
		err = s.writeFrame(filepath.Join(s.dir, rec.Snapshot), snap, bannerText(miss))
	case tree.Walker:
		rec.Snapshot = id + ".tree.yaml"
		err = writeYAML(filepath.Join(s.dir, rec.Snapshot), DumpTree(snap, DefaultTreeDepth))
	}
	if err != nil {
		return err
	}

	if err := writeYAML(filepath.Join(s.dir, id+".yaml"), rec); err != nil {
		return err
	}
	logger.Info("[diag] 已保存查找失败现场: %s", filepath.Join(s.dir, id+".yaml"))

	return s.prune()
}

func bannerText(miss *locate.NotFoundError) string {
	return fmt.Sprintf("%s  %s  timeout=%s attempts=%d", miss.Mode, miss.Query, miss.Timeout, miss.Attempts)
}

// writeFrame 在截图上方加一条说明横幅后保存为 PNG
func (s *Sink) writeFrame(path string, f *visual.Frame, label string) error {
	if f.Image == nil {
		return fmt.Errorf("快照没有图像")
	}
	b := f.Image.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+bannerHeight))
	draw.Draw(canvas, image.Rect(0, 0, b.Dx(), bannerHeight), image.NewUniform(color.RGBA{32, 32, 32, 255}), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, bannerHeight, b.Dx(), b.Dy()+bannerHeight), f.Image, b.Min, draw.Src)

	if err := drawLabel(canvas, 4, 4, label, color.RGBA{255, 220, 0, 255}); err != nil {
		logger.Warn("[diag] 绘制说明文字失败: %v", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建截图文件失败: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, canvas); err != nil {
		return fmt.Errorf("保存截图失败: %w", err)
	}
	return nil
}

var (
	fontOnce sync.Once
	fontFace *truetype.Font
	fontErr  error
)

// drawLabel 使用内置 Go Regular 字体绘制文字
func drawLabel(img *image.RGBA, x, y int, text string, col color.Color) error {
	fontOnce.Do(func() {
		fontFace, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return fontErr
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(fontFace)
	c.SetFontSize(fontSize)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(col))
	c.SetHinting(font.HintingFull)

	pt := freetype.Pt(x, y+int(c.PointToFixed(fontSize)>>6))
	_, err := c.DrawString(text, pt)
	return err
}

// DumpTree 将控件树转换为可序列化的节点；内存树直接返回其节点
func DumpTree(w tree.Walker, maxDepth int) *tree.Node {
	if st, ok := w.(*tree.StaticTree); ok {
		return st.Node(st.Root())
	}
	return dumpNode(w, w.Root(), maxDepth)
}

func dumpNode(w tree.Walker, n tree.NodeRef, depth int) *tree.Node {
	node := &tree.Node{ID: n, Props: make(map[tree.Field]any)}
	for _, f := range tree.KnownFields() {
		if v, err := w.Property(n, f); err == nil && v != nil {
			node.Props[f] = v
		}
	}
	if depth <= 0 {
		return node
	}
	child, err := w.FirstChild(n)
	for err == nil && child != "" {
		node.Children = append(node.Children, dumpNode(w, child, depth-1))
		child, err = w.NextSibling(child)
	}
	return node
}

func writeYAML(path string, v any) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer out.Close()

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("写入 YAML 失败: %w", err)
	}
	return enc.Close()
}

// prune 按记录 ID（时间前缀）删除最旧的记录
func (s *Sink) prune() error {
	if s.maxFiles == 0 {
		return nil
	}
	metas, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return err
	}
	var ids []string
	for _, m := range metas {
		base := filepath.Base(m)
		if strings.HasSuffix(base, ".tree.yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(base, ".yaml"))
	}
	if len(ids) <= s.maxFiles {
		return nil
	}
	sort.Strings(ids)
	for _, id := range ids[:len(ids)-s.maxFiles] {
		for _, suffix := range []string{".yaml", ".png", ".tree.yaml"} {
			if err := os.Remove(filepath.Join(s.dir, id+suffix)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}
