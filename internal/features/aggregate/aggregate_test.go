package aggregate_test

import (
	"math"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizboard/internal/features/aggregate"
	"vizboard/internal/table"
)

func fruitTable(t *testing.T, fruits, forms []string, prices []float64) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns("test",
		series.New(fruits, series.String, "Fruit"),
		series.New(forms, series.String, "Form"),
		series.New(prices, series.Float, "CupEquivalentPrice"),
	)
	require.NoError(t, err)
	return tbl
}

func exampleTable(t *testing.T) *table.Table {
	return fruitTable(t,
		[]string{"Apple", "Apple", "Banana"},
		[]string{"Fresh", "Fresh", "Frozen"},
		[]float64{1.0, 3.0, 2.0},
	)
}

func TestSummaries_Example(t *testing.T) {
	tbl := exampleTable(t)

	counts, err := aggregate.CategoryCounts(tbl, "Form")
	require.NoError(t, err)
	assert.Equal(t, aggregate.GroupSummary{{Key: "Fresh", Value: 2}, {Key: "Frozen", Value: 1}}, counts)

	means, err := aggregate.MeanByCategory(tbl, "Form", "CupEquivalentPrice")
	require.NoError(t, err)
	assert.Equal(t, aggregate.GroupSummary{{Key: "Fresh", Value: 2}, {Key: "Frozen", Value: 2}}, means)

	pivot, err := aggregate.PivotMean(tbl, "Fruit", "Form", "CupEquivalentPrice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Banana"}, pivot.Rows)
	assert.Equal(t, []string{"Fresh", "Frozen"}, pivot.Columns)
	assert.Equal(t, 2.0, pivot.Value("Apple", "Fresh"))
	assert.Equal(t, 0.0, pivot.Value("Apple", "Frozen"))
	assert.Equal(t, 2.0, pivot.Value("Banana", "Frozen"))
	assert.Equal(t, 0.0, pivot.Value("Banana", "Fresh"))

	// absent zeros do not widen the observed range
	lo, hi, ok := pivot.Range()
	require.True(t, ok)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 2.0, hi)
}

func TestCategoryCounts_SumsToRowCount(t *testing.T) {
	forms := []string{"Fresh", "Canned", "Fresh", "Juice", "Canned", "Fresh", "Dried", ""}
	tbl := fruitTable(t, make([]string, len(forms)), forms, make([]float64, len(forms)))

	counts, err := aggregate.CategoryCounts(tbl, "Form")
	require.NoError(t, err)

	assert.Equal(t, float64(tbl.Len()), counts.Total())
	assert.Equal(t, []string{"Fresh", "Canned", "Juice", "Dried", ""}, counts.Keys())
	for i, want := range []float64{3, 2, 1, 1, 1} {
		assert.Equal(t, want, counts[i].Value)
	}
}

func TestMeanByCategory_SortedAndSkipsNaN(t *testing.T) {
	nan := math.NaN()
	tbl := fruitTable(t,
		[]string{"a", "b", "c", "d", "e", "f"},
		[]string{"Juice", "Fresh", "Juice", "Dried", "Fresh", "Canned"},
		[]float64{0.5, 1.0, nan, 4.0, 3.0, nan},
	)

	means, err := aggregate.MeanByCategory(tbl, "Form", "CupEquivalentPrice")
	require.NoError(t, err)
	require.Len(t, means, 4)

	assert.Equal(t, []string{"Dried", "Fresh", "Juice", "Canned"}, means.Keys())
	assert.Equal(t, 2.0, means[1].Value)
	assert.Equal(t, 0.5, means[2].Value)
	assert.True(t, math.IsNaN(means[3].Value))

	for i := 1; i < len(means)-1; i++ {
		assert.GreaterOrEqual(t, means[i-1].Value, means[i].Value)
	}
}

func TestPivotMean_AbsentCellsAreZero(t *testing.T) {
	tbl := fruitTable(t,
		[]string{"Pear", "Apple", "Pear", "Apple", "Kiwi"},
		[]string{"Fresh", "Juice", "Canned", "Juice", "Fresh"},
		[]float64{1.5, 0.4, 1.1, 0.6, 2.0},
	)

	pivot, err := aggregate.PivotMean(tbl, "Fruit", "Form", "CupEquivalentPrice")
	require.NoError(t, err)

	assert.Equal(t, []string{"Apple", "Kiwi", "Pear"}, pivot.Rows)
	assert.Equal(t, []string{"Canned", "Fresh", "Juice"}, pivot.Columns)
	assert.InDelta(t, 0.5, pivot.Value("Apple", "Juice"), 1e-9)

	for _, row := range pivot.Cells {
		require.Len(t, row, len(pivot.Columns))
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
	}
	assert.Equal(t, 0.0, pivot.Value("Kiwi", "Canned"))
	assert.Equal(t, 0.0, pivot.Value("Mango", "Fresh"))

	lo, hi, ok := pivot.Range()
	require.True(t, ok)
	assert.InDelta(t, 0.5, lo, 1e-9)
	assert.Equal(t, 2.0, hi)
}

func TestSummaries_MissingColumn(t *testing.T) {
	tbl := exampleTable(t)

	_, err := aggregate.CategoryCounts(tbl, "Category")
	assert.Error(t, err)
	_, err = aggregate.MeanByCategory(tbl, "Form", "Price")
	assert.Error(t, err)
	_, err = aggregate.PivotMean(tbl, "Fruit", "Category", "CupEquivalentPrice")
	assert.Error(t, err)
}
