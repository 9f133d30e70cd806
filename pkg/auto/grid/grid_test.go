package grid

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Position
		wantErr bool
	}{
		{name: "2x2 top left", input: "2.2.1.1", want: &Position{Rows: 2, Cols: 2, Row: 1, Col: 1}},
		{name: "3x3 center", input: "3.3.2.2", want: &Position{Rows: 3, Cols: 3, Row: 2, Col: 2}},
		{name: "1x4 last", input: "1.4.1.4", want: &Position{Rows: 1, Cols: 4, Row: 1, Col: 4}},
		{name: "empty", input: "", wantErr: true},
		{name: "too few parts", input: "2.2.1", wantErr: true},
		{name: "not a number", input: "2.x.1.1", wantErr: true},
		{name: "row > rows", input: "2.2.3.1", wantErr: true},
		{name: "row < 1", input: "2.2.0.1", wantErr: true},
		{name: "zero cols", input: "2.0.1.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "2.2.1.1", Format(2, 2, 1, 1))
	p := Position{Rows: 3, Cols: 4, Row: 2, Col: 1}
	assert.Equal(t, "3.4.2.1", p.String())
}

func TestCenter(t *testing.T) {
	rect := image.Rect(100, 100, 300, 300)

	tests := []struct {
		name string
		pos  *Position
		want image.Point
	}{
		{name: "2x2 (1,1)", pos: &Position{Rows: 2, Cols: 2, Row: 1, Col: 1}, want: image.Pt(150, 150)},
		{name: "2x2 (1,2)", pos: &Position{Rows: 2, Cols: 2, Row: 1, Col: 2}, want: image.Pt(250, 150)},
		{name: "nil", pos: nil, want: image.Pt(200, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Center(rect, tt.pos))
		})
	}
}

func TestCenterOf(t *testing.T) {
	rect := image.Rect(100, 100, 300, 300)

	pos, err := CenterOf(rect, "2.2.2.2")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(250, 250), pos)

	pos, err = CenterOf(rect, "")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 200), pos)

	_, err = CenterOf(rect, "invalid")
	assert.Error(t, err)
}

func TestCellRect(t *testing.T) {
	rect := image.Rect(100, 100, 300, 300)

	assert.Equal(t, image.Rect(100, 100, 200, 200), CellRect(rect, 2, 2, 1, 1))
	assert.Equal(t, image.Rect(200, 200, 300, 300), CellRect(rect, 2, 2, 2, 2))
}

func TestIterator(t *testing.T) {
	iter := NewIterator(image.Rect(0, 0, 200, 200), 2, 2)
	require.Equal(t, 4, iter.Count())

	var got []image.Point
	for {
		pt, ok := iter.Next()
		if !ok {
			break
		}
		got = append(got, pt)
	}
	assert.Equal(t, []image.Point{{50, 50}, {150, 50}, {50, 150}, {150, 150}}, got)

	iter.Reset()
	pt, ok := iter.Next()
	assert.True(t, ok)
	assert.Equal(t, image.Pt(50, 50), pt, "Reset 应回到第一个单元格")
}

func TestCells(t *testing.T) {
	cells, err := Cells(image.Rect(0, 0, 100, 40), "2.2")
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{25, 10}, {75, 10}, {25, 30}, {75, 30}}, cells)

	for _, bad := range []string{"2", "0.2", "a.b", "2.2.1.1"} {
		_, err := Cells(image.Rect(0, 0, 10, 10), bad)
		assert.Error(t, err, "Cells(%q)", bad)
	}
	assert.True(t, IsCellsSpec("3.4"))
	assert.False(t, IsCellsSpec("3.4.1.1"))
}

func BenchmarkParse(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Parse("3.3.2.2")
	}
}
