package superdense

import (
	"fmt"
	"sort"
	"strings"
)

// Counts maps a classical register value, e.g. "01", to how often it was observed.
type Counts map[string]int

// Total is the number of shots recorded.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

/*
Merge adds other into c. Merging is associative and commutative, so batches
sampled in parallel can be reduced in any order.
*/
func (c Counts) Merge(other Counts) {
	for k, n := range other {
		c[k] += n
	}
}

// Keys returns the observed bitstrings in lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Probability is the observed frequency of key, zero for an empty table.
func (c Counts) Probability(key string) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c[key]) / float64(total)
}

// MostFrequent returns the key with the highest count, breaking ties lexically.
func (c Counts) MostFrequent() (string, bool) {
	best, bestN := "", -1
	for _, k := range c.Keys() {
		if c[k] > bestN {
			best, bestN = k, c[k]
		}
	}
	return best, bestN >= 0
}

func (c Counts) String() string {
	parts := make([]string, 0, len(c))
	for _, k := range c.Keys() {
		parts = append(parts, fmt.Sprintf("%q: %d", k, c[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
