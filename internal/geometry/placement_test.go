package geometry

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

var (
	monocube = NewShape(Voxel{0, 0, 0})
	domino   = NewShape(Voxel{0, 0, 0}, Voxel{1, 0, 0})
	tromino  = NewShape(Voxel{0, 0, 0}, Voxel{1, 0, 0}, Voxel{2, 0, 0})
	skew     = NewShape(Voxel{0, 0, 0}, Voxel{1, 0, 0}, Voxel{1, 1, 0}, Voxel{2, 1, 0})
	ell      = NewShape(Voxel{0, 0, 0}, Voxel{1, 0, 0}, Voxel{1, 1, 0}, Voxel{1, 2, 0})
	vee      = NewShape(Voxel{0, 0, 0}, Voxel{1, 0, 0}, Voxel{2, 0, 0}, Voxel{2, 1, 0}, Voxel{2, 2, 0})
)

func TestRotations(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"monocube", monocube, 1},
		{"domino", domino, 3},
		{"straight tromino", tromino, 3},
		{"skew tetromino", skew, 12},
		{"L tetromino", ell, 24},
		{"V pentomino", vee, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Rotations(tt.shape)
			if err != nil {
				t.Fatalf("Rotations: %v", err)
			}
			if len(rs) != tt.want {
				t.Errorf("Rotations() returned %d, want %d", len(rs), tt.want)
			}
			for _, r := range rs {
				lo, _ := r.Bounds()
				if lo != (Voxel{}) {
					t.Errorf("rotation %v not normalized", r)
				}
				if r.Len() != tt.shape.Len() {
					t.Errorf("rotation %v has %d voxels, want %d", r, r.Len(), tt.shape.Len())
				}
			}
		})
	}
}

func TestRotations_Empty(t *testing.T) {
	if _, err := Rotations(Shape{}); !errors.Is(err, ErrEmptyShape) {
		t.Errorf("Rotations(empty) error = %v, want ErrEmptyShape", err)
	}
}

func TestPlacements_Counts(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  []int // indexed by cube size - 1
	}{
		{"monocube", monocube, []int{1, 8, 27}},
		{"domino", domino, []int{0, 12, 54, 144, 300}},
		{"straight tromino", tromino, []int{0, 0, 27, 96}},
		{"skew tetromino", skew, []int{0, 0, 72}},
		{"L tetromino", ell, []int{0, 0, 144}},
		{"V pentomino", vee, []int{0, 0, 36, 192, 540}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				n := i + 1
				ps, err := Placements(tt.shape, n)
				if err != nil {
					t.Fatalf("Placements(n=%d): %v", n, err)
				}
				if len(ps) != want {
					t.Errorf("Placements(n=%d) returned %d, want %d", n, len(ps), want)
				}
			}
		})
	}
}

func TestPlacements_InsideGridAndDistinct(t *testing.T) {
	const n = 4
	ps, err := Placements(ell, n)
	if err != nil {
		t.Fatalf("Placements: %v", err)
	}
	keys := make(map[string]bool, len(ps))
	for _, p := range ps {
		for _, v := range p.Voxels() {
			if !v.Within(n) {
				t.Fatalf("placement %v leaves the grid", p)
			}
		}
		if keys[p.Key()] {
			t.Errorf("duplicate placement %v", p)
		}
		keys[p.Key()] = true
	}
	if !slices.IsSortedFunc(ps, compareShapes) {
		t.Error("placements not sorted")
	}
}

func TestPlacements_TranslationInvariant(t *testing.T) {
	a, err := Placements(vee, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Placements(Translate(vee, Voxel{-5, 2, 9}), 3)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.EqualFunc(a, b, Shape.Equal) {
		t.Error("placements differ for a translated shape")
	}
}

func TestPlacements_InvalidCubeSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := Placements(domino, n); !errors.Is(err, ErrInvalidCubeSize) {
			t.Errorf("Placements(n=%d) error = %v, want ErrInvalidCubeSize", n, err)
		}
	}
}

func TestPlacementCache(t *testing.T) {
	c := NewPlacementCache()
	direct, _ := Placements(vee, 4)

	got, err := c.Placements(Translate(vee, Voxel{1, 1, 1}), 4)
	if err != nil {
		t.Fatalf("cache Placements: %v", err)
	}
	if !slices.EqualFunc(got, direct, Shape.Equal) {
		t.Error("cached placements differ from direct generation")
	}
	if _, err := c.Placements(vee, 4); err != nil {
		t.Fatal(err)
	}
	st := c.Stats()
	if st.Entries != 1 || st.Misses != 1 || st.Hits != 1 {
		t.Errorf("Stats() = %+v, want 1 entry, 1 miss, 1 hit", st)
	}

	if _, err := c.Placements(vee, 0); !errors.Is(err, ErrInvalidCubeSize) {
		t.Errorf("error = %v, want ErrInvalidCubeSize", err)
	}
	if _, err := c.Placements(Shape{}, 3); !errors.Is(err, ErrEmptyShape) {
		t.Errorf("error = %v, want ErrEmptyShape", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after failed lookups, want 1", c.Len())
	}
}

func TestPlacementCache_ConcurrentComputesOnce(t *testing.T) {
	c := NewPlacementCache()
	var wg sync.WaitGroup
	results := make([][]Shape, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ps, err := c.Placements(ell, 5)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = ps
		}(i)
	}
	wg.Wait()

	if got := c.Stats().Misses; got != 1 {
		t.Errorf("computed %d times, want 1", got)
	}
	for i, ps := range results {
		if len(ps) != len(results[0]) {
			t.Errorf("caller %d got %d placements, want %d", i, len(ps), len(results[0]))
		}
	}
}
