package partition

import (
	"context"
	"iter"
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/banshee-data/blokk/internal/catalog"
)

// Sample is one candidate piece set. IDs are distinct, ascending, and their
// volumes sum to the target.
type Sample struct {
	// PartitionIndex is the position of Partition in Partitions(target).
	PartitionIndex int   `json:"integer_partition_idx"`
	Partition      []int `json:"integer_partition"`
	IDs            []int `json:"blokks"`
}

// Sampler expands partitions into samples drawn from a catalog, without
// replacement.
type Sampler struct {
	Catalog *catalog.Catalog
	// Filter restricts which pieces are eligible. Its MaxVolume is replaced
	// by the cap passed to each call.
	Filter catalog.Filter
}

// NewSampler returns a sampler over every piece of cat.
func NewSampler(cat *catalog.Catalog) *Sampler {
	return &Sampler{Catalog: cat}
}

func (s *Sampler) volumeToIDs(maxPieceVolume int) map[int][]int {
	f := s.Filter
	f.MaxVolume = max(maxPieceVolume, 0)
	return s.Catalog.VolumeToIDs(f)
}

// partCap is the largest part worth walking: the cap when set, and never
// more than the largest eligible piece volume. It is 0 when no piece is
// eligible.
func partCap(v2ids map[int][]int, maxPieceVolume int) int {
	largest := 0
	for v := range v2ids {
		largest = max(largest, v)
	}
	if maxPieceVolume > 0 {
		return min(largest, maxPieceVolume)
	}
	return largest
}

// checkEvery is how many partitions are walked between context checks.
const checkEvery = 1 << 10

// feasible calls fn with each feasible partition of target in Partitions
// order until fn returns false. It returns ctx.Err() if ctx ends first.
func (s *Sampler) feasible(ctx context.Context, target, maxPieceVolume int, v2ids map[int][]int, fn func(IndexedPartition) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if target < 0 {
		return nil
	}
	if target == 0 {
		fn(IndexedPartition{Index: 0, Parts: []int{}})
		return nil
	}
	limit := partCap(v2ids, maxPieceVolume)
	if limit == 0 {
		return nil
	}
	walked := 0
	for idx, p := range Capped(target, limit) {
		walked++
		if walked%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !Feasible(p, v2ids) {
			continue
		}
		if !fn(IndexedPartition{Index: idx, Parts: p}) {
			return nil
		}
	}
	return nil
}

// FeasiblePartitions lists the partitions of target whose parts are at most
// maxPieceVolume and which can be realised with distinct pieces.
// maxPieceVolume <= 0 means no cap.
func (s *Sampler) FeasiblePartitions(ctx context.Context, target, maxPieceVolume int) ([]IndexedPartition, error) {
	var out []IndexedPartition
	err := s.feasible(ctx, target, maxPieceVolume, s.volumeToIDs(maxPieceVolume), func(ip IndexedPartition) bool {
		out = append(out, ip)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// bucket is one distinct part size with the k-subsets of its IDs.
type bucket struct {
	combos [][]int
}

func buckets(parts []int, v2ids map[int][]int) []bucket {
	mult := multiplicity(parts)
	sizes := slices.Sorted(maps.Keys(mult))
	out := make([]bucket, len(sizes))
	for i, v := range sizes {
		ids := v2ids[v]
		k := mult[v]
		gen := combin.NewCombinationGenerator(len(ids), k)
		var combos [][]int
		for gen.Next() {
			c := gen.Combination(nil)
			for j := range c {
				c[j] = ids[c[j]]
			}
			combos = append(combos, c)
		}
		out[i] = bucket{combos: combos}
	}
	return out
}

// Samples lazily yields every sample for target: for each feasible partition
// in Partitions order, the cartesian product across ascending part sizes of
// the ascending k-combinations of that size's IDs. The sequence is
// deterministic. maxPieceVolume <= 0 means no cap.
//
// The sequence stops early once ctx is done; callers check ctx.Err().
func (s *Sampler) Samples(ctx context.Context, target, maxPieceVolume int) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		v2ids := s.volumeToIDs(maxPieceVolume)
		_ = s.feasible(ctx, target, maxPieceVolume, v2ids, func(ip IndexedPartition) bool {
			if len(ip.Parts) == 0 {
				return yield(Sample{PartitionIndex: 0, Partition: []int{}, IDs: []int{}})
			}
			bs := buckets(ip.Parts, v2ids)
			lens := make([]int, len(bs))
			for i, b := range bs {
				lens[i] = len(b.combos)
			}
			gen := combin.NewCartesianGenerator(lens)
			sub := make([]int, len(lens))
			for gen.Next() {
				if ctx.Err() != nil {
					return false
				}
				gen.Product(sub)
				ids := make([]int, 0, len(ip.Parts))
				for i, b := range bs {
					ids = append(ids, b.combos[sub[i]]...)
				}
				slices.Sort(ids)
				if !yield(Sample{PartitionIndex: ip.Index, Partition: slices.Clone(ip.Parts), IDs: ids}) {
					return false
				}
			}
			return true
		})
	}
}

// PartitionCount is the number of samples one feasible partition expands to.
type PartitionCount struct {
	IndexedPartition
	Samples int
}

// PartitionCounts returns the sample count of each feasible partition, in
// Partitions order.
func (s *Sampler) PartitionCounts(ctx context.Context, target, maxPieceVolume int) ([]PartitionCount, error) {
	v2ids := s.volumeToIDs(maxPieceVolume)
	var out []PartitionCount
	err := s.feasible(ctx, target, maxPieceVolume, v2ids, func(ip IndexedPartition) bool {
		n := 1
		for v, k := range multiplicity(ip.Parts) {
			n *= combin.Binomial(len(v2ids[v]), k)
		}
		out = append(out, PartitionCount{IndexedPartition: ip, Samples: n})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of samples Samples(ctx, target, maxPieceVolume)
// yields, without enumerating them.
func (s *Sampler) Count(ctx context.Context, target, maxPieceVolume int) (int, error) {
	pcs, err := s.PartitionCounts(ctx, target, maxPieceVolume)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, pc := range pcs {
		total += pc.Samples
	}
	return total, nil
}
