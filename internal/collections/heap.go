// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collections

import (
	"container/heap"
	"iter"
)

// Heap is a binary min-heap ordered by a less function.
type Heap[T any] struct {
	items heapItems[T]
}

type heapItems[T any] struct {
	values []T
	less   func(a, b T) bool
}

func (h heapItems[T]) Len() int           { return len(h.values) }
func (h heapItems[T]) Less(i, j int) bool { return h.less(h.values[i], h.values[j]) }
func (h heapItems[T]) Swap(i, j int)      { h.values[i], h.values[j] = h.values[j], h.values[i] }
func (h *heapItems[T]) Push(x any)        { h.values = append(h.values, x.(T)) }
func (h *heapItems[T]) Pop() any {
	last := h.values[len(h.values)-1]
	h.values = h.values[:len(h.values)-1]
	return last
}

func NewHeap[T any](less func(a, b T) bool) *Heap[T] {
	return &Heap[T]{items: heapItems[T]{less: less}}
}

func (h *Heap[T]) Len() int { return h.items.Len() }

func (h *Heap[T]) Push(v T) { heap.Push(&h.items, v) }

// Pop removes and returns the smallest element. It panics on an empty heap.
func (h *Heap[T]) Pop() T { return heap.Pop(&h.items).(T) }

// Smallest returns up to n elements of seq in ascending order.
func Smallest[T any](seq iter.Seq[T], n int, less func(a, b T) bool) []T {
	h := NewHeap(less)
	for v := range seq {
		h.Push(v)
	}
	result := make([]T, 0, min(max(n, 0), h.Len()))
	for len(result) < n && h.Len() > 0 {
		result = append(result, h.Pop())
	}
	return result
}
