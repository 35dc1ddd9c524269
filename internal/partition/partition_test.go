package partition

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/geometry"
)

func mustFeasible(t *testing.T, s *Sampler, target, maxPieceVolume int) []IndexedPartition {
	t.Helper()
	ips, err := s.FeasiblePartitions(context.Background(), target, maxPieceVolume)
	if err != nil {
		t.Fatalf("FeasiblePartitions(%d, %d): %v", target, maxPieceVolume, err)
	}
	return ips
}

func mustCount(t *testing.T, s *Sampler, target, maxPieceVolume int) int {
	t.Helper()
	n, err := s.Count(context.Background(), target, maxPieceVolume)
	if err != nil {
		t.Fatalf("Count(%d, %d): %v", target, maxPieceVolume, err)
	}
	return n
}

func TestPartitions_Order(t *testing.T) {
	got := slices.Collect(Partitions(4))
	want := [][]int{{4}, {3, 1}, {2, 2}, {2, 1, 1}, {1, 1, 1, 1}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Partitions(4) mismatch (-got +want):\n%s", diff)
	}

	first := slices.Collect(Partitions(8))[:8]
	want = [][]int{{8}, {7, 1}, {6, 2}, {6, 1, 1}, {5, 3}, {5, 2, 1}, {5, 1, 1, 1}, {4, 4}}
	if diff := cmp.Diff(first, want); diff != "" {
		t.Errorf("Partitions(8) prefix mismatch (-got +want):\n%s", diff)
	}
}

func TestPartitions_Counts(t *testing.T) {
	// Number of partitions p(n).
	want := map[int]int{-1: 0, 0: 1, 1: 1, 2: 2, 3: 3, 4: 5, 5: 7, 6: 11, 8: 22, 10: 42, 27: 3010}
	for n, w := range want {
		got := 0
		for p := range Partitions(n) {
			sum := 0
			for i, part := range p {
				sum += part
				if i > 0 && part > p[i-1] {
					t.Fatalf("Partitions(%d) yielded increasing parts %v", n, p)
				}
			}
			if sum != n {
				t.Fatalf("Partitions(%d) yielded %v summing to %d", n, p, sum)
			}
			got++
		}
		if got != w {
			t.Errorf("Partitions(%d) yielded %d partitions, want %d", n, got, w)
		}
	}
}

func TestPartitions_Zero(t *testing.T) {
	got := slices.Collect(Partitions(0))
	if len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("Partitions(0) = %v, want one empty partition", got)
	}
}

func TestPartitions_EarlyStop(t *testing.T) {
	n := 0
	for range Partitions(10) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterated %d times, want 3", n)
	}
}

func TestCountBounded(t *testing.T) {
	tests := []struct {
		n, k, want int
	}{
		{-1, 3, 0},
		{0, 0, 1},
		{5, 0, 0},
		{8, 8, 22},
		{8, 4, 15},
		{8, 1, 1},
		{27, 27, 3010},
		{10, 20, 42},
		{125, 125, 3163127352},
	}
	for _, tt := range tests {
		if got := CountBounded(tt.n, tt.k); got != tt.want {
			t.Errorf("CountBounded(%d, %d) = %d, want %d", tt.n, tt.k, got, tt.want)
		}
	}
}

func TestCapped(t *testing.T) {
	for _, n := range []int{0, 1, 6, 8, 12} {
		for _, maxPart := range []int{0, 1, 2, 3, 5, n, n + 1} {
			var want, got []IndexedPartition
			idx := 0
			for p := range Partitions(n) {
				if maxPart <= 0 || len(p) == 0 || p[0] <= maxPart {
					want = append(want, IndexedPartition{Index: idx, Parts: p})
				}
				idx++
			}
			for i, p := range Capped(n, maxPart) {
				got = append(got, IndexedPartition{Index: i, Parts: p})
			}
			if diff := cmp.Diff(got, want); diff != "" {
				t.Errorf("Capped(%d, %d) mismatch (-got +want):\n%s", n, maxPart, diff)
			}
		}
	}
}

func TestFeasible(t *testing.T) {
	v2ids := map[int][]int{1: {1}, 2: {2}, 3: {3, 4}}
	tests := []struct {
		parts []int
		want  bool
	}{
		{[]int{3, 3, 2}, true},
		{[]int{3, 3, 1, 1}, false},
		{[]int{4, 4}, false},
		{[]int{3, 2, 1}, true},
		{[]int{}, true},
	}
	for _, tt := range tests {
		if got := Feasible(tt.parts, v2ids); got != tt.want {
			t.Errorf("Feasible(%v) = %v, want %v", tt.parts, got, tt.want)
		}
	}
}

func TestFeasiblePartitions(t *testing.T) {
	s := NewSampler(catalog.Default())

	var got [][]int
	for _, ip := range mustFeasible(t, s, 9, 5) {
		got = append(got, ip.Parts)
	}
	want := [][]int{{5, 4}, {5, 3, 1}, {4, 4, 1}, {4, 3, 2}, {3, 3, 2, 1}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("FeasiblePartitions(9, 5) mismatch (-got +want):\n%s", diff)
	}

	got = nil
	for _, ip := range mustFeasible(t, s, 27, 5) {
		got = append(got, ip.Parts)
	}
	want = [][]int{
		{5, 5, 5, 5, 5, 2}, {5, 5, 5, 5, 4, 3}, {5, 5, 5, 5, 4, 2, 1}, {5, 5, 5, 5, 3, 3, 1},
		{5, 5, 5, 4, 4, 4}, {5, 5, 5, 4, 4, 3, 1}, {5, 5, 5, 4, 3, 3, 2}, {5, 5, 4, 4, 4, 4, 1},
		{5, 5, 4, 4, 4, 3, 2}, {5, 5, 4, 4, 3, 3, 2, 1}, {5, 4, 4, 4, 4, 4, 2}, {5, 4, 4, 4, 4, 3, 3},
		{5, 4, 4, 4, 4, 3, 2, 1}, {4, 4, 4, 4, 4, 4, 3}, {4, 4, 4, 4, 4, 4, 2, 1}, {4, 4, 4, 4, 4, 3, 3, 1},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("FeasiblePartitions(27, 5) mismatch (-got +want):\n%s", diff)
	}

	idx := mustFeasible(t, s, 8, 4)
	if len(idx) != 3 || idx[0].Index != 7 || idx[1].Index != 8 || idx[2].Index != 12 {
		t.Errorf("FeasiblePartitions(8, 4) = %+v, want indices 7, 8, 12", idx)
	}
}

func TestSamples_Counts(t *testing.T) {
	s := NewSampler(catalog.Default())
	tests := []struct {
		cap  int
		want int
	}{
		{1, 0},
		{2, 0},
		{3, 1},
		{4, 36},
		{0, 111},
	}
	for _, tt := range tests {
		got := 0
		for range s.Samples(context.Background(), 8, tt.cap) {
			got++
		}
		if got != tt.want {
			t.Errorf("Samples(8, %d) yielded %d, want %d", tt.cap, got, tt.want)
		}
		if c := mustCount(t, s, 8, tt.cap); c != tt.want {
			t.Errorf("Count(8, %d) = %d, want %d", tt.cap, c, tt.want)
		}
	}
}

func TestSamples_OrderAndContent(t *testing.T) {
	cat := catalog.Default()
	s := NewSampler(cat)
	samples := slices.Collect(s.Samples(context.Background(), 8, 4))
	if len(samples) != 36 {
		t.Fatalf("got %d samples, want 36", len(samples))
	}

	first := Sample{PartitionIndex: 7, Partition: []int{4, 4}, IDs: []int{5, 6}}
	if diff := cmp.Diff(samples[0], first); diff != "" {
		t.Errorf("first sample mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(samples[20].IDs, []int{10, 11}); diff != "" {
		t.Errorf("sample 20 mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(samples[21].IDs, []int{1, 3, 5}); diff != "" {
		t.Errorf("sample 21 mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(samples[28].IDs, []int{1, 4, 5}); diff != "" {
		t.Errorf("sample 28 mismatch (-got +want):\n%s", diff)
	}
	last := Sample{PartitionIndex: 12, Partition: []int{3, 3, 2}, IDs: []int{2, 3, 4}}
	if diff := cmp.Diff(samples[35], last); diff != "" {
		t.Errorf("last sample mismatch (-got +want):\n%s", diff)
	}

	for _, smp := range samples {
		sum := 0
		for i, id := range smp.IDs {
			v, err := cat.Volume(id)
			if err != nil {
				t.Fatal(err)
			}
			sum += v
			if i > 0 && id <= smp.IDs[i-1] {
				t.Errorf("sample %v not strictly ascending", smp.IDs)
			}
		}
		if sum != 8 {
			t.Errorf("sample %v has volume %d, want 8", smp.IDs, sum)
		}
	}

	again := slices.Collect(s.Samples(context.Background(), 8, 4))
	if diff := cmp.Diff(again, samples); diff != "" {
		t.Errorf("second run differs (-got +want):\n%s", diff)
	}
}

func TestSamples_Edges(t *testing.T) {
	s := NewSampler(catalog.Default())
	zero := slices.Collect(s.Samples(context.Background(), 0, 5))
	if len(zero) != 1 || len(zero[0].IDs) != 0 {
		t.Errorf("Samples(0) = %v, want one empty sample", zero)
	}
	if got := slices.Collect(s.Samples(context.Background(), -3, 5)); len(got) != 0 {
		t.Errorf("Samples(-3) = %v, want none", got)
	}
	if mustCount(t, s, 0, 5) != 1 || mustCount(t, s, -3, 5) != 0 {
		t.Error("Count disagrees with Samples on edge targets")
	}
}

func TestSamples_SinglePiece(t *testing.T) {
	monocube, err := catalog.Default().Subset(1)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSampler(monocube)
	got := slices.Collect(s.Samples(context.Background(), 1, 0))
	want := []Sample{{PartitionIndex: 0, Partition: []int{1}, IDs: []int{1}}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Samples(1) mismatch (-got +want):\n%s", diff)
	}
	if c := mustCount(t, s, 1, 0); c != 1 {
		t.Errorf("Count(1) = %d, want 1", c)
	}

	domino, err := catalog.Default().Subset(2)
	if err != nil {
		t.Fatal(err)
	}
	s = NewSampler(domino)
	if got := slices.Collect(s.Samples(context.Background(), 1, 0)); len(got) != 0 {
		t.Errorf("Samples(1) from a lone domino = %v, want none", got)
	}
	if c := mustCount(t, s, 1, 0); c != 0 {
		t.Errorf("Count(1) from a lone domino = %d, want 0", c)
	}
}

// rodCatalog holds a unit cube and a straight rod of 60, so the sampler
// walks nearly every partition of large targets.
func rodCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	rod := make([][3]int, 60)
	for i := range rod {
		rod[i] = [3]int{i, 0, 0}
	}
	cat, err := catalog.New([]catalog.Piece{
		{ID: 1, Name: "Unit", Volume: 1, Shape: geometry.ShapeFromTriples([][3]int{{0, 0, 0}})},
		{ID: 2, Name: "Rod", Volume: 60, Shape: geometry.ShapeFromTriples(rod)},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestSampler_CancelledDuringWalk(t *testing.T) {
	s := NewSampler(rodCatalog(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := s.Count(ctx, 125, 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Count err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Count took %v after its deadline", elapsed)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start = time.Now()
	for range s.Samples(ctx, 125, 0) {
	}
	if ctx.Err() == nil {
		t.Error("Samples finished before its deadline")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Samples took %v after its deadline", elapsed)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if _, err := s.FeasiblePartitions(cancelled, 8, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("FeasiblePartitions err = %v, want context.Canceled", err)
	}
}

func TestSamples_ExtentFilter(t *testing.T) {
	s := &Sampler{Catalog: catalog.Default(), Filter: catalog.Filter{CubeSize: 2}}
	// Only the monocube and the domino fit a 2-grid.
	got := slices.Collect(s.Samples(context.Background(), 3, 0))
	if len(got) != 1 || !slices.Equal(got[0].IDs, []int{1, 2}) {
		t.Errorf("Samples(3) with extent filter = %v, want [[1 2]]", got)
	}
}

func TestPartitionCounts(t *testing.T) {
	s := NewSampler(catalog.Default())
	got, err := s.PartitionCounts(context.Background(), 8, 4)
	if err != nil {
		t.Fatalf("PartitionCounts: %v", err)
	}
	want := []PartitionCount{
		{IndexedPartition{Index: 7, Parts: []int{4, 4}}, 21},
		{IndexedPartition{Index: 8, Parts: []int{4, 3, 1}}, 14},
		{IndexedPartition{Index: 12, Parts: []int{3, 3, 2}}, 1},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("PartitionCounts(8, 4) mismatch (-got +want):\n%s", diff)
	}
}

func TestCountMatchesSamples(t *testing.T) {
	s := NewSampler(catalog.Default())
	for _, target := range []int{5, 9, 12} {
		n := 0
		for range s.Samples(context.Background(), target, 5) {
			n++
		}
		if c := mustCount(t, s, target, 5); c != n {
			t.Errorf("Count(%d) = %d, Samples yielded %d", target, c, n)
		}
	}
}

func TestKey(t *testing.T) {
	k := Key(27, []int{3, 1, 2})
	if k != `{"n":27,"ids":[1,2,3]}` {
		t.Errorf("Key() = %s", k)
	}
	n, ids, err := ParseKey(k)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if n != 27 || !slices.Equal(ids, []int{1, 2, 3}) {
		t.Errorf("ParseKey() = %d, %v", n, ids)
	}
	if Key(0, nil) != `{"n":0,"ids":[]}` {
		t.Errorf("Key(0, nil) = %s", Key(0, nil))
	}
	if _, _, err := ParseKey("not json"); err == nil {
		t.Error("ParseKey(garbage) succeeded, want error")
	}
}
