package window

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedList(ws ...Info) Lister {
	return func() ([]Info, error) { return ws, nil }
}

func TestFilter(t *testing.T) {
	ws := []Info{
		{PID: 1, Title: "无标题 - 记事本", OwnerName: "notepad.exe"},
		{PID: 2, Title: "Calculator", OwnerName: "CalculatorApp.exe"},
	}
	assert.Len(t, Filter(ws, ""), 2)
	assert.Len(t, Filter(ws, "NOTEPAD"), 1)
	assert.Equal(t, 2, Filter(ws, "calc")[0].PID)
	assert.Empty(t, Filter(ws, "word"))
}

func TestFind_PrefersExactTitle(t *testing.T) {
	list := fixedList(
		Info{Handle: 0x10, Title: "设置 - 高级"},
		Info{Handle: 0x20, Title: "设置", Bounds: image.Rect(0, 0, 800, 600)},
	)
	w, err := Find(list, "设置")
	require.NoError(t, err)
	assert.Equal(t, int64(0x20), w.Handle)

	w, err = Find(list, "高级")
	require.NoError(t, err)
	assert.Equal(t, int64(0x10), w.Handle)
}

func TestFind_Errors(t *testing.T) {
	_, err := Find(fixedList(), "x")
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Find(func() ([]Info, error) { return nil, boom }, "x")
	assert.ErrorIs(t, err, boom)
}
