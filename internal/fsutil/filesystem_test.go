package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"testing"
)

func writeAll(t *testing.T, fsys FileSystem, name, data string) {
	t.Helper()
	w, err := fsys.Create(name)
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestFileSystems(t *testing.T) {
	tests := []struct {
		name string
		fsys FileSystem
		root string
	}{
		{"os", OSFileSystem{}, t.TempDir()},
		{"memory", NewMemoryFileSystem(), "out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(tt.root, "reports", "run")
			if err := tt.fsys.MkdirAll(dir, 0o755); err != nil {
				t.Fatalf("MkdirAll: %v", err)
			}
			if !tt.fsys.Exists(dir) {
				t.Error("directory should exist")
			}
			info, err := tt.fsys.Stat(dir)
			if err != nil || !info.IsDir() {
				t.Errorf("Stat(dir) = %v, %v", info, err)
			}

			name := filepath.Join(dir, "build.html")
			writeAll(t, tt.fsys, name, "<html></html>")
			data, err := tt.fsys.ReadFile(name)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(data) != "<html></html>" {
				t.Errorf("ReadFile = %q", data)
			}
			info, err = tt.fsys.Stat(name)
			if err != nil || info.Size() != 13 || info.IsDir() {
				t.Errorf("Stat(file) = %v, %v", info, err)
			}

			// Create truncates
			writeAll(t, tt.fsys, name, "x")
			if data, _ := tt.fsys.ReadFile(name); string(data) != "x" {
				t.Errorf("after truncate ReadFile = %q", data)
			}

			missing := filepath.Join(dir, "missing.stl")
			if tt.fsys.Exists(missing) {
				t.Error("missing file reported as existing")
			}
			if _, err := tt.fsys.ReadFile(missing); !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("ReadFile(missing) err = %v", err)
			}
			if _, err := tt.fsys.Stat(missing); !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("Stat(missing) err = %v", err)
			}
		})
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	m := NewMemoryFileSystem()
	writeAll(t, m, "out/b.png", "b")
	writeAll(t, m, "out/a.html", "a")
	writeAll(t, m, "other/c.stl", "c")

	if got := m.Files("out"); !slices.Equal(got, []string{"out/a.html", "out/b.png"}) {
		t.Errorf("Files(out) = %v", got)
	}
	if got := m.Files("."); len(got) != 3 {
		t.Errorf("Files(.) = %v", got)
	}
}

func TestMemoryFileSystem_WriterLifecycle(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := m.Create("a.stl")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Write([]byte("solid"))
	if data, _ := m.ReadFile("a.stl"); len(data) != 0 {
		t.Errorf("data visible before Close: %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := w.Write([]byte("more")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Write after Close err = %v", err)
	}
	if err := w.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("second Close err = %v", err)
	}

	m.MkdirAll("dir", 0o755)
	if _, err := m.Create("dir"); err == nil {
		t.Error("Create over a directory should fail")
	}
}
