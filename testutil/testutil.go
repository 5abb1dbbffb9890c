package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/hupe1980/recgo/value"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, s=1.5 gives a heavy tail.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// Word is the fixture record: an entry of a categorized word list.
type Word struct {
	ID       int64
	Word     string
	Category string
	Length   int
	Score    float64
	// Note is optional. Empty means the field is absent.
	Note string
}

// Categories used by the generator. Zipf-distributed, so "animals"
// dominates and "tools" is rare.
var Categories = []string{"animals", "food", "colors", "places", "tools"}

var syllables = []string{"ka", "lo", "mi", "ne", "ru", "sa", "to", "vi", "ze", "qu"}

// Words generates n words with IDs 1..n.
// About a third of the words carry a note.
func (r *RNG) Words(n int) []Word {
	r.mu.Lock()
	defer r.mu.Unlock()

	words := make([]Word, n)
	for i := range n {
		var sb strings.Builder
		for range 1 + r.rand.Intn(4) {
			sb.WriteString(syllables[r.rand.Intn(len(syllables))])
		}
		w := sb.String()

		words[i] = Word{
			ID:       int64(i + 1),
			Word:     w,
			Category: Categories[r.zipfLocked(len(Categories), 1.2)],
			Length:   len(w),
			Score:    math.Round(r.rand.Float64()*1000) / 100,
		}
		if r.rand.Intn(3) == 0 {
			words[i].Note = fmt.Sprintf("note %s %d", w, i)
		}
	}

	return words
}

// WordFields maps field names to Word accessors.
var WordFields = map[string]value.Accessor[Word]{
	"id":       func(w *Word) value.Value { return value.Int(w.ID) },
	"word":     func(w *Word) value.Value { return value.String(w.Word) },
	"category": func(w *Word) value.Value { return value.String(w.Category) },
	"length":   func(w *Word) value.Value { return value.Int(int64(w.Length)) },
	"score":    func(w *Word) value.Value { return value.Float(w.Score) },
	"note": func(w *Word) value.Value {
		if w.Note == "" {
			return value.Value{}
		}
		return value.String(w.Note)
	},
}

// ResolveWord returns the accessor for a Word field.
func ResolveWord(field string) (value.Accessor[Word], bool) {
	acc, ok := WordFields[field]
	return acc, ok
}

// BruteForceFilter returns the words matching every filter pair, in input
// order. It is the reference the indexed path is checked against.
func BruteForceFilter(words []Word, filter map[string]value.Value) []Word {
	out := []Word{}
	for i := range words {
		if matches(&words[i], filter) {
			out = append(out, words[i])
		}
	}
	return out
}

func matches(w *Word, filter map[string]value.Value) bool {
	for field, want := range filter {
		acc, ok := WordFields[field]
		if !ok || !want.IsValid() {
			return false
		}
		if !value.Equal(acc(w), want) {
			return false
		}
	}
	return true
}

// BruteForceSearch returns the words where every lower-cased word of term
// occurs in at least one of fields. ASCII only.
func BruteForceSearch(words []Word, fields []string, term string) []Word {
	terms := strings.Fields(strings.ToLower(term))
	out := []Word{}
	for i := range words {
		ok := true
		for _, t := range terms {
			found := false
			for _, f := range fields {
				acc, known := WordFields[f]
				if known && strings.Contains(strings.ToLower(acc(&words[i]).Text()), t) {
					found = true
					break
				}
			}
			if !found {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, words[i])
		}
	}
	return out
}

// IDs returns the IDs of words in order.
func IDs(words []Word) []int64 {
	ids := make([]int64, len(words))
	for i, w := range words {
		ids[i] = w.ID
	}
	return ids
}
