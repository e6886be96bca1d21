// Package bitset provides a fixed-capacity set of small non-negative
// integers backed by 64-bit words.
//
// It is the storage used by the precedence graph (one successor set and one
// predecessor set per activity) and by sparse integer domains. Indices are
// 0-based; out-of-range indices are treated as absent and mutations on them
// are no-ops, so callers never need to bounds-check before a query.
//
// Sets are mutable and not safe for concurrent writers.
package bitset

import (
	"math/bits"
	"strconv"
	"strings"
)

// Set is a fixed-capacity bitset over [0, Cap()).
type Set struct {
	n     int
	words []uint64
	count int
}

// New returns an empty set able to hold indices in [0, n).
func New(n int) *Set {
	if n < 0 {
		n = 0
	}
	return &Set{n: n, words: make([]uint64, (n+63)/64)}
}

// Full returns a set holding every index in [0, n).
func Full(n int) *Set {
	s := New(n)
	for i := range s.words {
		s.words[i] = ^uint64(0)
	}
	if r := n % 64; r != 0 {
		s.words[len(s.words)-1] = (uint64(1) << uint(r)) - 1
	}
	s.count = n
	return s
}

// Cap returns the exclusive upper bound on indices.
func (s *Set) Cap() int { return s.n }

// Len returns the number of indices in the set.
func (s *Set) Len() int { return s.count }

// IsEmpty reports whether the set holds no index.
func (s *Set) IsEmpty() bool { return s.count == 0 }

// Contains reports whether i is in the set.
func (s *Set) Contains(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	return s.words[i>>6]&(uint64(1)<<uint(i&63)) != 0
}

// Add inserts i and reports whether the set changed.
func (s *Set) Add(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	w, m := i>>6, uint64(1)<<uint(i&63)
	if s.words[w]&m != 0 {
		return false
	}
	s.words[w] |= m
	s.count++
	return true
}

// Remove deletes i and reports whether the set changed.
func (s *Set) Remove(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	w, m := i>>6, uint64(1)<<uint(i&63)
	if s.words[w]&m == 0 {
		return false
	}
	s.words[w] &^= m
	s.count--
	return true
}

// Clear removes every index, keeping capacity.
func (s *Set) Clear() {
	for i := range s.words {
		s.words[i] = 0
	}
	s.count = 0
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return &Set{n: s.n, words: words, count: s.count}
}

// NextSetBit returns the smallest index >= from that is in the set, or -1.
func (s *Set) NextSetBit(from int) int {
	if from < 0 {
		from = 0
	}
	if from >= s.n {
		return -1
	}
	w := from >> 6
	word := s.words[w] & (^uint64(0) << uint(from&63))
	for {
		if word != 0 {
			return w<<6 + bits.TrailingZeros64(word)
		}
		w++
		if w >= len(s.words) {
			return -1
		}
		word = s.words[w]
	}
}

// PrevSetBit returns the largest index <= from that is in the set, or -1.
func (s *Set) PrevSetBit(from int) int {
	if from >= s.n {
		from = s.n - 1
	}
	if from < 0 {
		return -1
	}
	w := from >> 6
	word := s.words[w] & (^uint64(0) >> uint(63-from&63))
	for {
		if word != 0 {
			return w<<6 + 63 - bits.LeadingZeros64(word)
		}
		w--
		if w < 0 {
			return -1
		}
		word = s.words[w]
	}
}

// CountRange returns the number of indices in [lo, hi].
func (s *Set) CountRange(lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi >= s.n {
		hi = s.n - 1
	}
	if lo > hi {
		return 0
	}
	lw, hw := lo>>6, hi>>6
	lmask := ^uint64(0) << uint(lo&63)
	hmask := ^uint64(0) >> uint(63-hi&63)
	if lw == hw {
		return bits.OnesCount64(s.words[lw] & lmask & hmask)
	}
	cnt := bits.OnesCount64(s.words[lw] & lmask)
	for w := lw + 1; w < hw; w++ {
		cnt += bits.OnesCount64(s.words[w])
	}
	return cnt + bits.OnesCount64(s.words[hw]&hmask)
}

// ForEach calls f for each index in ascending order. Iteration stops early
// when f returns false.
func (s *Set) ForEach(f func(i int) bool) {
	for w, word := range s.words {
		for word != 0 {
			i := w<<6 + bits.TrailingZeros64(word)
			if !f(i) {
				return
			}
			word &= word - 1
		}
	}
}

// Slice returns the indices in ascending order.
func (s *Set) Slice() []int {
	out := make([]int, 0, s.count)
	s.ForEach(func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

// String renders the set as {a, b, c}.
func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	s.ForEach(func(i int) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(strconv.Itoa(i))
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}
