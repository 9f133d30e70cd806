package cv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

// noise 生成确定性的伪随机纹理，保证模板方差不为 0
func noise(w, h int, seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	s := seed
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s = s*1664525 + 1013904223
			img.Set(x, y, color.RGBA{uint8(s >> 24), uint8(s >> 16), uint8(s >> 8), 255})
		}
	}
	return img
}

func crop(src *image.RGBA, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			dst.Set(x, y, src.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}

func TestCorrelatePeak(t *testing.T) {
	var _ visual.Correlator = NewCorrelator()

	for _, rgb := range []bool{false, true} {
		src := noise(60, 40, 7)
		tmpl := crop(src, image.Rect(23, 11, 35, 19))

		m, err := NewCorrelator(WithRGB(rgb)).Correlate(src, tmpl)
		require.NoError(t, err, "rgb=%v", rgb)
		require.Equal(t, 60-12+1, m.Cols, "rgb=%v", rgb)
		require.Equal(t, 40-8+1, m.Rows, "rgb=%v", rgb)

		bx, by, best := 0, 0, float32(-2)
		for y := 0; y < m.Rows; y++ {
			for x := 0; x < m.Cols; x++ {
				if s := m.At(x, y); s > best {
					bx, by, best = x, y, s
				}
			}
		}
		assert.Equal(t, image.Pt(23, 11), image.Pt(bx, by), "rgb=%v: 峰值位置", rgb)
		assert.GreaterOrEqual(t, best, float32(0.99), "rgb=%v: 峰值得分", rgb)
	}
}

func TestCorrelateTemplateTooLarge(t *testing.T) {
	_, err := NewCorrelator().Correlate(noise(10, 10, 1), noise(20, 5, 2))
	var se *ImageSizeError
	assert.ErrorAs(t, err, &se)
}

func TestSanitize(t *testing.T) {
	cases := map[float32]float32{0.5: 0.5, 1.2: 1, -3: -1}
	for in, want := range cases {
		assert.Equal(t, want, sanitize(in), "sanitize(%v)", in)
	}
	nan := float32(0)
	nan = nan / nan
	assert.Equal(t, float32(0), sanitize(nan))
}
