package geometry

import (
	"errors"
	"testing"
)

func TestOccupancy(t *testing.T) {
	o, err := NewOccupancy(5)
	if err != nil {
		t.Fatalf("NewOccupancy: %v", err)
	}
	a, err := o.Mask(NewShape(Voxel{0, 0, 0}, Voxel{4, 4, 4}))
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	b, _ := o.Mask(NewShape(Voxel{4, 4, 4}, Voxel{4, 4, 3}))
	c, _ := o.Mask(NewShape(Voxel{1, 0, 0}))

	o.Add(a)
	if o.Count() != 2 {
		t.Errorf("Count() = %d, want 2", o.Count())
	}
	if !o.Overlaps(b) {
		t.Error("Overlaps(b) = false, want true")
	}
	if o.Overlaps(c) {
		t.Error("Overlaps(c) = true, want false")
	}
	o.Remove(a)
	if o.Count() != 0 || o.Overlaps(b) {
		t.Error("Remove did not clear cells")
	}
	o.Add(c)
	o.Reset()
	if o.Count() != 0 {
		t.Errorf("Count() after Reset = %d", o.Count())
	}
}

func TestOccupancy_Errors(t *testing.T) {
	if _, err := NewOccupancy(0); !errors.Is(err, ErrInvalidCubeSize) {
		t.Errorf("NewOccupancy(0) error = %v, want ErrInvalidCubeSize", err)
	}
	o, _ := NewOccupancy(2)
	if _, err := o.Mask(NewShape(Voxel{2, 0, 0})); err == nil {
		t.Error("Mask outside grid succeeded, want error")
	}
}

func TestBoard(t *testing.T) {
	shapes := []Shape{
		NewShape(Voxel{0, 0, 0}, Voxel{1, 0, 0}),
		NewShape(Voxel{1, 1, 1}),
	}
	board, err := Board(shapes, 2)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if board[0][0][0] != 1 || board[1][0][0] != 1 || board[1][1][1] != 2 || board[0][1][0] != 0 {
		t.Errorf("Board() = %v", board)
	}

	flat := Flatten(board)
	want := []int{1, 0, 0, 0, 1, 0, 0, 2}
	if len(flat) != len(want) {
		t.Fatalf("Flatten() len = %d, want %d", len(flat), len(want))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Errorf("Flatten()[%d] = %d, want %d", i, flat[i], want[i])
		}
	}

	if _, err := Board(shapes, 1); err == nil {
		t.Error("Board with out-of-grid voxel succeeded, want error")
	}
	if _, err := Board(nil, 0); !errors.Is(err, ErrInvalidCubeSize) {
		t.Errorf("Board(n=0) error = %v, want ErrInvalidCubeSize", err)
	}
}
