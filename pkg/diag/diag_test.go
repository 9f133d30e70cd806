package diag

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zoeyai/zoeylocate/pkg/locate"
	"github.com/zoeyai/zoeylocate/pkg/locate/tree"
	"github.com/zoeyai/zoeylocate/pkg/locate/visual"
)

func readRecord(t *testing.T, dir string) Record {
	t.Helper()
	metas, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	require.NoError(t, err)
	for _, m := range metas {
		if filepath.Ext(m[:len(m)-len(".yaml")]) == ".tree" {
			continue
		}
		data, err := os.ReadFile(m)
		require.NoError(t, err)
		var rec Record
		require.NoError(t, yaml.Unmarshal(data, &rec))
		return rec
	}
	t.Fatal("没有找到元数据文件")
	return Record{}
}

func TestRecordFrameMiss(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir)

	frame := visual.NewFrame(image.Rect(100, 50, 140, 80), image.NewRGBA(image.Rect(0, 0, 40, 30)), time.Now())
	miss := &locate.NotFoundError{
		Query:    "Pattern[ok.png@0.80]",
		Mode:     locate.ModeAppear,
		Timeout:  time.Second,
		Attempts: 6,
		Snapshot: frame,
		Cause:    errors.New("boom"),
	}
	require.NoError(t, sink.RecordMiss(miss))

	rec := readRecord(t, dir)
	assert.Equal(t, "Pattern[ok.png@0.80]", rec.Query)
	assert.Equal(t, "appear", rec.Mode)
	assert.Equal(t, 6, rec.Attempts)
	assert.Equal(t, "boom", rec.Cause)
	require.NotEmpty(t, rec.Snapshot)

	f, err := os.Open(filepath.Join(dir, rec.Snapshot))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// 截图上方多出说明横幅
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30+bannerHeight, img.Bounds().Dy())
}

func TestRecordTreeMiss(t *testing.T) {
	dir := t.TempDir()
	root := &tree.Node{ID: "root", Props: map[tree.Field]any{tree.FieldName: "桌面"}, Children: []*tree.Node{
		{ID: "a", Props: map[tree.Field]any{tree.FieldName: "确定"}},
	}}
	st, err := tree.NewStaticTree(root, "")
	require.NoError(t, err)

	require.NoError(t, NewSink(dir).RecordMiss(&locate.NotFoundError{
		Query:    "Name=确定",
		Mode:     locate.ModeVanish,
		Snapshot: st,
	}))

	rec := readRecord(t, dir)
	assert.Equal(t, "vanish", rec.Mode)
	data, err := os.ReadFile(filepath.Join(dir, rec.Snapshot))
	require.NoError(t, err)

	var dumped tree.Node
	require.NoError(t, yaml.Unmarshal(data, &dumped))
	assert.Equal(t, tree.NodeRef("root"), dumped.ID)
	require.Len(t, dumped.Children, 1)
	assert.Equal(t, "确定", dumped.Children[0].Props[tree.FieldName])
}

func TestRecordWithoutSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewSink(dir).RecordMiss(&locate.NotFoundError{Query: "q"}))
	rec := readRecord(t, dir)
	assert.Empty(t, rec.Snapshot)
}

// walkerOnly 隐藏 StaticTree 的具体类型，走通用遍历
type walkerOnly struct{ tree.Walker }

func TestDumpTreeDepth(t *testing.T) {
	root := &tree.Node{ID: "r", Children: []*tree.Node{
		{ID: "a", Children: []*tree.Node{{ID: "a1"}}},
		{ID: "b", Props: map[tree.Field]any{tree.FieldClassName: "Edit"}},
	}}
	st, err := tree.NewStaticTree(root, "")
	require.NoError(t, err)

	full := DumpTree(walkerOnly{st}, 5)
	require.Len(t, full.Children, 2)
	assert.Len(t, full.Children[0].Children, 1)
	assert.Equal(t, "Edit", full.Children[1].Props[tree.FieldClassName])

	shallow := DumpTree(walkerOnly{st}, 1)
	require.Len(t, shallow.Children, 2)
	assert.Empty(t, shallow.Children[0].Children)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, WithMaxFiles(2))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		sink.now = func() time.Time { return at }
		require.NoError(t, sink.RecordMiss(&locate.NotFoundError{Query: fmt.Sprintf("q%d", i)}))
	}

	metas, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	require.NoError(t, err)
	assert.Len(t, metas, 2)
	for _, m := range metas {
		assert.Contains(t, filepath.Base(m), "20240101-00000")
		assert.NotContains(t, filepath.Base(m), "20240101-000000-")
		assert.NotContains(t, filepath.Base(m), "20240101-000001-")
	}
}
