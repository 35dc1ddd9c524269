package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func toDense(m Matrix) *mat.Dense {
	data := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data = append(data, float64(m[i][j]))
		}
	}
	return mat.NewDense(3, 3, data)
}

func TestRotationMatrices_Count(t *testing.T) {
	rs := RotationMatrices()
	if len(rs) != 24 {
		t.Fatalf("RotationMatrices() returned %d matrices, want 24", len(rs))
	}
	if rs[0] != Identity {
		t.Errorf("first rotation = %v, want identity", rs[0])
	}
	seen := make(map[Matrix]bool)
	for _, m := range rs {
		if seen[m] {
			t.Errorf("duplicate rotation %v", m)
		}
		seen[m] = true
	}
}

func TestRotationMatrices_ProperOrthogonal(t *testing.T) {
	for i, m := range RotationMatrices() {
		if got := m.Det(); got != 1 {
			t.Errorf("rotation %d: Det() = %d, want 1", i, got)
		}
		if got := mat.Det(toDense(m)); math.Abs(got-1) > 1e-12 {
			t.Errorf("rotation %d: mat.Det = %v, want 1", i, got)
		}
		if got := m.Mul(m.Transpose()); got != Identity {
			t.Errorf("rotation %d: m·mᵀ = %v, want identity", i, got)
		}
	}
}

func TestRotationMatrices_Closed(t *testing.T) {
	rs := RotationMatrices()
	set := make(map[Matrix]bool, len(rs))
	for _, m := range rs {
		set[m] = true
	}
	for _, a := range rs {
		for _, b := range rs {
			if !set[a.Mul(b)] {
				t.Fatalf("product %v·%v not in group", a, b)
			}
		}
	}
}

func TestRotationMatrices_ReturnsCopy(t *testing.T) {
	rs := RotationMatrices()
	rs[0] = quarterX
	if RotationMatrices()[0] != Identity {
		t.Error("mutating the returned slice changed the table")
	}
}

func TestMatrix_Apply(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   Voxel
		want Voxel
	}{
		{"identity", Identity, Voxel{1, 2, 3}, Voxel{1, 2, 3}},
		{"quarter x", quarterX, Voxel{0, 1, 0}, Voxel{0, 0, 1}},
		{"quarter y", quarterY, Voxel{0, 0, 1}, Voxel{1, 0, 0}},
		{"quarter z", quarterZ, Voxel{1, 0, 0}, Voxel{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Apply(tt.in); got != tt.want {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuarterTurn_Order(t *testing.T) {
	for _, g := range []Matrix{quarterX, quarterY, quarterZ} {
		m := Identity
		for i := 0; i < 4; i++ {
			m = g.Mul(m)
		}
		if m != Identity {
			t.Errorf("fourth power of %v = %v, want identity", g, m)
		}
	}
}
