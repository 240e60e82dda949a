package util

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
)

// Round2 rounds a value half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FirstArtist returns the first name of a comma-separated artist list, trimmed.
func FirstArtist(artists string) string {
	first, _, _ := strings.Cut(artists, ",")
	return strings.TrimSpace(first)
}

// RankByCount returns the keys ordered by descending count, ties alphabetically.
func RankByCount(counts map[string]int) []string {
	sorted := maps.Keys(counts)
	sort.Slice(sorted, func(i, j int) bool {
		if counts[sorted[i]] != counts[sorted[j]] {
			return counts[sorted[i]] > counts[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// Lazy initialises a value on first use and caches it for the life of the process.
// A failed initialisation is not cached, and concurrent first callers block on
// the same attempt.
type Lazy[T any] struct {
	mu    sync.Mutex
	done  bool
	value T
	init  func() (T, error)
}

// NewLazy returns a Lazy that runs init on first Get.
func NewLazy[T any](init func() (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the cached value, initialising it if needed.
func (l *Lazy[T]) Get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return l.value, nil
	}
	v, err := l.init()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = v
	l.done = true
	return v, nil
}

// Loaded reports whether the value has been initialised.
func (l *Lazy[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
