package report

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/fsutil"
	"github.com/banshee-data/blokk/internal/geometry"
	"github.com/banshee-data/blokk/internal/monitoring"
	"github.com/banshee-data/blokk/internal/partition"
)

func init() {
	monitoring.SetLogger(nil)
}

// twoBars fills a 2x2x1 slab with two dominoes.
func twoBars(t *testing.T) []Item {
	t.Helper()
	cat := catalog.Default()
	low := geometry.ShapeFromTriples([][3]int{{0, 0, 0}, {1, 0, 0}})
	high := geometry.ShapeFromTriples([][3]int{{0, 1, 0}, {1, 1, 0}})
	items, err := Items(cat, []int{2, 2}, []geometry.Shape{low, high})
	require.NoError(t, err)
	return items
}

func TestItems(t *testing.T) {
	items := twoBars(t)
	require.Len(t, items, 2)
	assert.Equal(t, "Block 02", items[0].Name)
	assert.Equal(t, "rgb(106, 194, 84)", items[0].Color)

	cat := catalog.Default()
	_, err := Items(cat, []int{1}, nil)
	assert.Error(t, err)
	_, err = Items(cat, []int{999}, []geometry.Shape{items[0].Shape})
	assert.ErrorIs(t, err, catalog.ErrUnknownPiece)
}

func TestCSSColor(t *testing.T) {
	assert.Equal(t, "#abcdef", cssColor("#abcdef", 3))
	assert.Equal(t, "rgb(1, 2, 3)", cssColor("rgb(1, 2, 3)", 3))
	assert.Equal(t, palette[1], cssColor("purple-blue", 1))
	assert.Equal(t, palette[0], cssColor("", len(palette)))
}

func TestWriteBuildHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBuildHTML(&buf, "2x2 slab", twoBars(t), 2))
	html := buf.String()
	assert.Contains(t, html, "echarts-gl")
	assert.Contains(t, html, "scatter3D")
	assert.Contains(t, html, "Block 02")
	assert.Contains(t, html, "2x2 slab")
}

func TestWritePartitionPNG(t *testing.T) {
	counts, err := partition.NewSampler(catalog.Default()).PartitionCounts(context.Background(), 8, 4)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WritePartitionPNG(&buf, 8, counts))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "output is not a PNG")

	assert.Error(t, WritePartitionPNG(&buf, 8, nil))
}

func TestPartitionHistogram_Overflow(t *testing.T) {
	var counts []partition.PartitionCount
	for i := 0; i < maxBars+5; i++ {
		counts = append(counts, partition.PartitionCount{
			IndexedPartition: partition.IndexedPartition{Index: i, Parts: []int{i + 1}},
			Samples:          1,
		})
	}
	p, err := PartitionHistogram(50, counts)
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "total 45")
	assert.Equal(t, "5+3+1", partitionLabel([]int{5, 3, 1}))
}

func TestWriteSTL(t *testing.T) {
	build := []geometry.Shape{twoBars(t)[0].Shape}
	var buf bytes.Buffer
	require.NoError(t, WriteSTL(&buf, build, 1, 16))

	data := buf.Bytes()
	require.Greater(t, len(data), 84)
	assert.True(t, strings.HasPrefix(string(data[:80]), "blokk build"))
	n := binary.LittleEndian.Uint32(data[80:84])
	assert.Positive(t, n)
	assert.Equal(t, 84+int(n)*50, len(data))
}

func TestBuildSolid(t *testing.T) {
	_, err := BuildSolid(nil, 1)
	assert.True(t, errors.Is(err, geometry.ErrEmptyShape))

	_, err = BuildSolid([]geometry.Shape{twoBars(t)[0].Shape}, 0)
	assert.Error(t, err)

	s, err := BuildSolid([]geometry.Shape{twoBars(t)[0].Shape}, 2)
	require.NoError(t, err)
	bb := s.BoundingBox()
	assert.InDelta(t, 4.0, bb.Max.X-bb.Min.X, 1e-9)
	assert.InDelta(t, 2.0, bb.Max.Z-bb.Min.Z, 1e-9)
}

func TestExporter(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	e := &Exporter{FS: mem, Dir: filepath.Join("out", "run")}
	items := twoBars(t)

	html, err := e.BuildHTML("build.html", "slab", items, 2)
	require.NoError(t, err)
	stl, err := e.BuildSTL("build.stl", items, 8)
	require.NoError(t, err)
	counts, err := partition.NewSampler(catalog.Default()).PartitionCounts(context.Background(), 8, 0)
	require.NoError(t, err)
	png, err := e.PartitionPNG("partitions.png", 8, counts)
	require.NoError(t, err)

	assert.Equal(t, []string{html, stl, png}, mem.Files("out"))
	assert.True(t, mem.Exists(filepath.Join("out", "run")))

	_, err = e.Save("broken.txt", func(w io.Writer) error { return errors.New("boom") })
	assert.ErrorContains(t, err, "boom")
}
