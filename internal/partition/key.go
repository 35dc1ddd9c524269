package partition

import (
	"encoding/json"
	"fmt"
	"slices"
)

type sampleKey struct {
	N   int   `json:"n"`
	IDs []int `json:"ids"`
}

// Key returns a canonical string for a target and piece set, for example
// {"n":27,"ids":[1,2,3]}. The IDs are sorted first.
func Key(target int, ids []int) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	if sorted == nil {
		sorted = []int{}
	}
	data, err := json.Marshal(sampleKey{N: target, IDs: sorted})
	if err != nil {
		// Marshalling ints cannot fail.
		panic(err)
	}
	return string(data)
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (target int, ids []int, err error) {
	var k sampleKey
	if err := json.Unmarshal([]byte(key), &k); err != nil {
		return 0, nil, fmt.Errorf("parse sample key %q: %w", key, err)
	}
	if k.IDs == nil {
		k.IDs = []int{}
	}
	return k.N, k.IDs, nil
}
