package visual

import (
	"encoding/binary"
	"image"
	"image/draw"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Frame 一次截图快照，只在产生它的那一轮轮询内有效，不会被修改
type Frame struct {
	// Bounds 截图在屏幕坐标系中的区域
	Bounds image.Rectangle
	// Image 像素数据，坐标从 Image.Bounds().Min 开始
	Image image.Image
	// Revision 像素内容摘要，内容相同的两帧 Revision 相同
	Revision uint64
	// CapturedAt 截图时间
	CapturedAt time.Time
}

// NewFrame 创建快照并计算内容摘要
func NewFrame(bounds image.Rectangle, img image.Image, capturedAt time.Time) *Frame {
	if bounds.Empty() && img != nil {
		bounds = image.Rectangle{Max: img.Bounds().Size()}
	}
	return &Frame{
		Bounds:     bounds,
		Image:      img,
		Revision:   Fingerprint(img),
		CapturedAt: capturedAt,
	}
}

// Size 宽高
func (f *Frame) Size() (w, h int) {
	b := f.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Fingerprint 计算图像内容摘要
func Fingerprint(img image.Image) uint64 {
	if img == nil {
		return 0
	}
	d := xxhash.New()
	b := img.Bounds()

	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(b.Dx()))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(b.Dy()))
	_, _ = d.Write(hdr[:])

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rectangle{Max: b.Size()})
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	rb := rgba.Bounds()
	rowLen := rb.Dx() * 4
	for y := rb.Min.Y; y < rb.Max.Y; y++ {
		off := rgba.PixOffset(rb.Min.X, y)
		_, _ = d.Write(rgba.Pix[off : off+rowLen])
	}
	return d.Sum64()
}

// Screen 视觉快照提供者
type Screen interface {
	// Capture 截取区域；region 为空时截取整个屏幕。
	// 可恢复的失败应返回 locate.Transient 包装的错误。
	Capture(region image.Rectangle) (*Frame, error)
}

// ScoreMap 归一化互相关得分矩阵，按行优先存储
//
// 尺寸为 (W-w+1) x (H-h+1)，(x, y) 处的得分表示模板左上角位于 (x, y) 时的相关度。
type ScoreMap struct {
	Cols   int
	Rows   int
	Scores []float32
}

// At 返回 (x, y) 处得分
func (m *ScoreMap) At(x, y int) float32 {
	return m.Scores[y*m.Cols+x]
}

// Correlator 归一化互相关计算
type Correlator interface {
	// Correlate 计算模板在图像每个偏移处的得分；调用方保证模板不大于图像
	Correlate(img, tmpl image.Image) (*ScoreMap, error)
}
