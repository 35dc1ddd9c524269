package report

import (
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/banshee-data/blokk/internal/fsutil"
	"github.com/banshee-data/blokk/internal/geometry"
	"github.com/banshee-data/blokk/internal/monitoring"
	"github.com/banshee-data/blokk/internal/partition"
)

// Exporter writes report files into Dir on FS.
type Exporter struct {
	FS  fsutil.FileSystem
	Dir string
}

// NewExporter returns an Exporter writing to dir on the local disk.
func NewExporter(dir string) *Exporter {
	return &Exporter{FS: fsutil.OSFileSystem{}, Dir: dir}
}

// Save creates Dir/name and fills it with write. It returns the path.
func (e *Exporter) Save(name string, write func(io.Writer) error) (path string, err error) {
	if err := e.FS.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", e.Dir, err)
	}
	path = filepath.Join(e.Dir, name)
	f, err := e.FS.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if err := write(f); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	monitoring.Logf("[report] wrote %s", path)
	return path, nil
}

// BuildHTML saves the 3D view of a build as name.
func (e *Exporter) BuildHTML(name, title string, items []Item, cubeSize int) (string, error) {
	return e.Save(name, func(w io.Writer) error {
		return WriteBuildHTML(w, title, items, cubeSize)
	})
}

// BuildSTL saves a mesh of a build with unit voxels as name.
func (e *Exporter) BuildSTL(name string, items []Item, cells int) (string, error) {
	build := make([]geometry.Shape, len(items))
	for i, it := range items {
		build[i] = it.Shape
	}
	return e.Save(name, func(w io.Writer) error {
		return WriteSTL(w, build, 1, cells)
	})
}

// PartitionPNG saves the partition histogram as name.
func (e *Exporter) PartitionPNG(name string, target int, counts []partition.PartitionCount) (string, error) {
	return e.Save(name, func(w io.Writer) error {
		return WritePartitionPNG(w, target, counts)
	})
}
