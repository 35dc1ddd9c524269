// Package partition enumerates integer partitions of a target volume and
// expands them into candidate sets of distinct catalog pieces.
package partition

import (
	"iter"
	"math"
	"slices"
)

// Partitions yields every partition of n with parts in non-increasing order,
// in reverse-lexicographic order: [n], [n-1 1], [n-2 2], [n-2 1 1], ...
// n == 0 yields a single empty partition and n < 0 yields nothing.
//
// Each yielded slice is a fresh copy owned by the caller.
func Partitions(n int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if n < 0 {
			return
		}
		if n == 0 {
			yield([]int{})
			return
		}
		walk([]int{n}, func(parts []int) bool {
			return yield(slices.Clone(parts))
		})
	}
}

// Capped yields the partitions of n whose parts are all at most maxPart,
// each with its index in Partitions(n). Partitions with a larger part come
// first in that order; they are counted, not generated. maxPart <= 0 means
// no cap.
func Capped(n, maxPart int) iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		if n < 0 {
			return
		}
		if maxPart <= 0 || maxPart >= n {
			idx := 0
			for p := range Partitions(n) {
				if !yield(idx, p) {
					return
				}
				idx++
			}
			return
		}
		idx := CountBounded(n, n) - CountBounded(n, maxPart)
		first := make([]int, 0, n/maxPart+1)
		for rem := n; rem > 0; rem -= min(rem, maxPart) {
			first = append(first, min(rem, maxPart))
		}
		walk(first, func(parts []int) bool {
			if !yield(idx, slices.Clone(parts)) {
				return false
			}
			idx++
			return true
		})
	}
}

// walk calls fn with parts and each of its successors until fn returns
// false or the sequence ends at all ones. parts is reused between calls.
func walk(parts []int, fn func([]int) bool) {
	for {
		if !fn(parts) {
			return
		}
		// Strip trailing ones; their sum is redistributed below.
		rem := 0
		for len(parts) > 0 && parts[len(parts)-1] == 1 {
			parts = parts[:len(parts)-1]
			rem++
		}
		if len(parts) == 0 {
			return
		}
		last := len(parts) - 1
		parts[last]--
		rem++
		size := parts[last]
		for rem > size {
			parts = append(parts, size)
			rem -= size
		}
		parts = append(parts, rem)
	}
}

// CountBounded returns the number of partitions of n with every part at
// most k. CountBounded(n, n) is the number of partitions of n. The result
// saturates at math.MaxInt.
func CountBounded(n, k int) int {
	if n < 0 {
		return 0
	}
	k = min(k, n)
	c := make([]int, n+1)
	c[0] = 1
	for part := 1; part <= k; part++ {
		for m := part; m <= n; m++ {
			if c[m] > math.MaxInt-c[m-part] {
				c[m] = math.MaxInt
			} else {
				c[m] += c[m-part]
			}
		}
	}
	return c[n]
}

// IndexedPartition is a partition with its position in the Partitions
// sequence of its total.
type IndexedPartition struct {
	Index int
	Parts []int
}

// multiplicity counts how often each part size occurs.
func multiplicity(parts []int) map[int]int {
	m := make(map[int]int, len(parts))
	for _, p := range parts {
		m[p]++
	}
	return m
}

// Feasible reports whether a partition can be realised with distinct pieces:
// for each part size v occurring k times there are at least k IDs of volume v.
func Feasible(parts []int, volumeToIDs map[int][]int) bool {
	for v, k := range multiplicity(parts) {
		if len(volumeToIDs[v]) < k {
			return false
		}
	}
	return true
}
