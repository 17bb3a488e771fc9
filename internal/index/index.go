// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"slices"
	"sort"
)

// Index is a generic sorted array index. Keys and values are held in two
// aligned slices such that values[i] is the value stored under keys[i].
type Index[V any] struct {
	// keys are sorted by cmp. Equal keys keep their insertion order.
	keys   []string
	values []V

	cmp func(string, string) int
}

// NewIndex creates an index from the given keys and values and comparison
// function. keys and values must be the same length. cmp(a, b) should return a
// negative number when a < b, a positive number when a > b and zero when a == b
// or a and b are incomparable in the sense of a strict weak ordering.
//
// The sort is stable so values with equal keys stay in the order they were
// given.
func NewIndex[V any](keys []string, values []V, cmp func(string, string) int) *Index[V] {
	if len(keys) != len(values) {
		panic("index: keys and values length mismatch")
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp(keys[a], keys[b])
	})

	idx := &Index[V]{
		keys:   make([]string, len(keys)),
		values: make([]V, len(values)),
		cmp:    cmp,
	}
	for i, j := range order {
		idx.keys[i] = keys[j]
		idx.values[i] = values[j]
	}
	return idx
}

// Len returns the number of entries in the index.
func (idx *Index[V]) Len() int {
	return len(idx.keys)
}

// Key returns the i-th key in sorted order.
func (idx *Index[V]) Key(i int) string {
	return idx.keys[i]
}

// Value returns the value aligned with the i-th key.
func (idx *Index[V]) Value(i int) V {
	return idx.values[i]
}

// Find performs a binary search over the index and returns the position of the
// first key equal to query. found is false if no key matches.
func (idx *Index[V]) Find(query string) (int, bool) {
	return sort.Find(len(idx.keys), func(i int) int {
		return idx.cmp(query, idx.keys[i])
	})
}

// Search performs a binary search over the index and returns the values of all
// matching keys.
func (idx *Index[V]) Search(query string) []V {
	i, found := idx.Find(query)
	if !found {
		return nil
	}

	j := i
	//nolint:revive // This block increments j.
	for ; j < len(idx.keys) && idx.cmp(query, idx.keys[j]) == 0; j++ {
	}
	return idx.values[i:j]
}
