package screen

import (
	"image"
	"image/color"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

func hasDisplay() bool {
	if runtime.GOOS == "linux" {
		return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
	}
	return true
}

func TestToDataURL(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	url, err := ToDataURL(img, "", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	url, err = ToDataURL(img, "jpg", 90)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	_, err = ToDataURL(img, "gif", 0)
	assert.Error(t, err)
	_, err = ToDataURL(nil, "png", 0)
	assert.Error(t, err)
}

func TestCaptureRegion(t *testing.T) {
	if !hasDisplay() {
		t.Skipf("没有可用的显示器")
	}
	var _ visual.Screen = New()

	w, h := Size()
	if w < 20 || h < 20 {
		t.Skipf("屏幕尺寸异常: %dx%d", w, h)
	}

	region := image.Rect(5, 5, 15, 15)
	f, err := New().Capture(region)
	require.NoError(t, err)
	assert.Equal(t, region.Min, f.Bounds.Min)
	assert.NotZero(t, f.Revision)

	_, err = New().Capture(image.Rect(w+10, h+10, w+20, h+20))
	assert.Error(t, err)
}
