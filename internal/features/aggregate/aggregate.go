// Package aggregate computes the grouped summaries the charts are drawn from.
// Nothing here mutates the input table.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"vizboard/internal/table"
)

// Group is one key of a grouped summary
type Group struct {
	Key   string
	Value float64
}

// GroupSummary is an ordered list of groups
type GroupSummary []Group

// Keys returns the group keys in order
func (s GroupSummary) Keys() []string {
	keys := make([]string, len(s))
	for i, g := range s {
		keys[i] = g.Key
	}
	return keys
}

// Total sums every non-NaN value
func (s GroupSummary) Total() float64 {
	total := 0.0
	for _, g := range s {
		if !math.IsNaN(g.Value) {
			total += g.Value
		}
	}
	return total
}

// CategoryCounts counts rows per distinct value of col.
// Ordered by count descending, ties keep first appearance.
func CategoryCounts(t *table.Table, col string) (GroupSummary, error) {
	keys, err := t.Strings(col)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}

	index := make(map[string]int)
	var out GroupSummary
	for _, k := range keys {
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group{Key: k})
		}
		out[i].Value++
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out, nil
}

// MeanByCategory averages valueCol per distinct keyCol, skipping NaN values.
// Ordered by mean descending, ties keep first appearance; keys without any value get NaN and go last.
func MeanByCategory(t *table.Table, keyCol, valueCol string) (GroupSummary, error) {
	keys, err := t.Strings(keyCol)
	if err != nil {
		return nil, fmt.Errorf("mean by category: %w", err)
	}
	values, err := t.Floats(valueCol)
	if err != nil {
		return nil, fmt.Errorf("mean by category: %w", err)
	}

	index := make(map[string]int)
	var order []string
	var acc []mean
	for i, k := range keys {
		j, ok := index[k]
		if !ok {
			j = len(order)
			index[k] = j
			order = append(order, k)
			acc = append(acc, mean{})
		}
		acc[j].add(values[i])
	}

	out := make(GroupSummary, len(order))
	for i, k := range order {
		out[i] = Group{Key: k, Value: acc[i].value()}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Value, out[j].Value
		if math.IsNaN(a) || math.IsNaN(b) {
			return !math.IsNaN(a) && math.IsNaN(b)
		}
		return a > b
	})
	return out, nil
}

type mean struct {
	sum   float64
	count int
}

func (m *mean) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	m.sum += v
	m.count++
}

func (m mean) value() float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.count)
}
