package citation

import "sync"

// Allocator hands out contiguous blocks of reference numbers. It is shared by
// every branch of a run; Allocate is atomic and the next caller always sees
// the counter advanced by the previous one.
type Allocator struct {
	mu   sync.Mutex
	next int
}

// NewAllocator returns an allocator whose first block starts at 1.
func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

// Allocate reserves n numbers and returns the first one. The counter advances
// by exactly n whether or not the caller ends up citing every number. n <= 0
// returns the current value without advancing.
func (a *Allocator) Allocate(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := a.next
	if n > 0 {
		a.next += n
	}
	return start
}

// Reserve is Allocate returning the reserved range as a Block.
func (a *Allocator) Reserve(n int) Block {
	if n < 0 {
		n = 0
	}
	return Block{Start: a.Allocate(n), Size: n}
}

// Next returns the number the next allocation would start at.
func (a *Allocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// Block is a reserved range [Start, Start+Size).
type Block struct {
	Start int
	Size  int
}

// Contains reports whether n lies inside the block.
func (b Block) Contains(n int) bool {
	return n >= b.Start && n < b.Start+b.Size
}

// Number maps a zero-based local index to its global reference number.
func (b Block) Number(i int) int {
	return b.Start + i
}

// Local maps a global number back to its zero-based index, or -1 when the
// number lies outside the block.
func (b Block) Local(n int) int {
	if !b.Contains(n) {
		return -1
	}
	return n - b.Start
}

// End returns the first number after the block.
func (b Block) End() int {
	return b.Start + b.Size
}
