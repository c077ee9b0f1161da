// Package charts turns summaries into chart specs and rasterises them with gg.
package charts

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"vizboard/internal/features/aggregate"
	"vizboard/internal/table"

	"github.com/lucasb-eyer/go-colorful"
)

// Kind of chart
type Kind string

const (
	KindPie     Kind = "pie"
	KindBar     Kind = "bar"
	KindHeatmap Kind = "heatmap"
	KindScatter Kind = "scatter"
)

// Point is one slice of a pie or one bar
type Point struct {
	Label string
	Value float64
	Color colorful.Color
}

// HeatmapSpec is a dense grid coloured on Scale between Min and Max
type HeatmapSpec struct {
	Rows        []string
	Columns     []string
	Cells       [][]float64
	Scale       Colorscale
	Min, Max    float64
	LabelFormat string // fmt verb for cell labels
	Gap         float64
	ColumnsTop  bool
}

// ScatterPoint is one entity in one frame
type ScatterPoint struct {
	Entity string
	X, Y   float64
	Size   float64 // raw value of the size column
	Extra  map[string]float64
}

// ScatterFrame is one animation step
type ScatterFrame struct {
	Label  string
	Points []ScatterPoint
}

// ScatterSpec holds every frame plus the axis ranges shared by all of them
type ScatterSpec struct {
	Frames      []ScatterFrame
	Entities    []string
	Colors      map[string]colorful.Color
	XRange      [2]float64
	YRange      [2]float64
	SizeMax     float64 // largest marker diameter in px
	SizeRef     float64 // sqrt(size) value that maps to SizeMax
	LegendTitle string
	ExtraOrder  []string
}

// ChartSpec is everything a Renderer needs for one chart
type ChartSpec struct {
	Kind    Kind
	Title   string
	XLabel  string
	YLabel  string
	Width   int
	Height  int
	Points  []Point
	Heatmap *HeatmapSpec
	Scatter *ScatterSpec
}

// BuildPie makes a pie chart from category counts
func BuildPie(counts aggregate.GroupSummary, palette *Palette, title string) (*ChartSpec, error) {
	points, err := colouredPoints(counts, palette)
	if err != nil {
		return nil, fmt.Errorf("pie chart: %w", err)
	}
	return &ChartSpec{Kind: KindPie, Title: title, Width: 900, Height: 700, Points: points}, nil
}

// BuildBar makes a bar chart from per-category means, keeping their order
func BuildBar(means aggregate.GroupSummary, palette *Palette, title, xLabel, yLabel string) (*ChartSpec, error) {
	points, err := colouredPoints(means, palette)
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	return &ChartSpec{
		Kind:   KindBar,
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		Width:  900,
		Height: 700,
		Points: points,
	}, nil
}

func colouredPoints(summary aggregate.GroupSummary, palette *Palette) ([]Point, error) {
	if len(summary) == 0 {
		return nil, fmt.Errorf("nothing to plot")
	}
	points := make([]Point, 0, len(summary))
	for _, g := range summary {
		c, err := palette.Lookup(g.Key)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Label: g.Key, Value: g.Value, Color: c})
	}
	return points, nil
}

// HeatmapOptions controls BuildHeatmap
type HeatmapOptions struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
}

// BuildHeatmap makes a heatmap straight from the pivot grid
func BuildHeatmap(p *aggregate.PivotSummary, opts HeatmapOptions) (*ChartSpec, error) {
	if len(p.Rows) == 0 || len(p.Columns) == 0 {
		return nil, fmt.Errorf("heatmap: empty pivot")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	cells := make([][]float64, len(p.Cells))
	for r, row := range p.Cells {
		cells[r] = append([]float64(nil), row...)
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1500
	}
	if height <= 0 {
		height = 1000
	}

	return &ChartSpec{
		Kind:   KindHeatmap,
		Title:  opts.Title,
		XLabel: opts.XLabel,
		YLabel: opts.YLabel,
		Width:  width,
		Height: height,
		Heatmap: &HeatmapSpec{
			Rows:        append([]string(nil), p.Rows...),
			Columns:     append([]string(nil), p.Columns...),
			Cells:       cells,
			Scale:       OrRd,
			Min:         lo,
			Max:         hi,
			LabelFormat: "%.2f USD",
			Gap:         1,
			ColumnsTop:  true,
		},
	}, nil
}

// ScatterOptions names the columns BuildScatter reads
type ScatterOptions struct {
	EntityColumn string
	FrameColumn  string
	X, Y, Size   string
	Extra        []string // shown in hover tables only
	Title        string
	XLabel       string
	YLabel       string
	LegendTitle  string
	Width        int
	Height       int
	SizeMax      float64
}

// BuildScatter makes one frame per distinct FrameColumn value.
// Axis ranges are computed over all frames: x [0, max*1.1], y [min*0.9, max*1.05].
func BuildScatter(t *table.Table, opts ScatterOptions) (*ChartSpec, error) {
	entities, err := t.Strings(opts.EntityColumn)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	frames, err := t.Floats(opts.FrameColumn)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	xs, err := t.Floats(opts.X)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	ys, err := t.Floats(opts.Y)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	sizes, err := t.Floats(opts.Size)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	extras := make(map[string][]float64, len(opts.Extra))
	var extraOrder []string
	for _, col := range opts.Extra {
		if !t.Has(col) {
			continue
		}
		v, err := t.Floats(col)
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		extras[col] = v
		extraOrder = append(extraOrder, col)
	}

	byFrame := make(map[float64]*ScatterFrame)
	var frameKeys []float64
	var entityOrder []string
	seenEntity := make(map[string]bool)
	xMax, yMin, yMax, sizeRef := math.Inf(-1), math.Inf(1), math.Inf(-1), 0.0

	for i := range entities {
		if math.IsNaN(frames[i]) || math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		f, ok := byFrame[frames[i]]
		if !ok {
			f = &ScatterFrame{Label: strconv.FormatFloat(frames[i], 'f', -1, 64)}
			byFrame[frames[i]] = f
			frameKeys = append(frameKeys, frames[i])
		}
		pt := ScatterPoint{Entity: entities[i], X: xs[i], Y: ys[i], Size: sizes[i]}
		if len(extraOrder) > 0 {
			pt.Extra = make(map[string]float64, len(extraOrder))
			for _, col := range extraOrder {
				pt.Extra[col] = extras[col][i]
			}
		}
		f.Points = append(f.Points, pt)

		if !seenEntity[entities[i]] {
			seenEntity[entities[i]] = true
			entityOrder = append(entityOrder, entities[i])
		}
		xMax = math.Max(xMax, xs[i])
		yMin = math.Min(yMin, ys[i])
		yMax = math.Max(yMax, ys[i])
		if s := sizes[i]; !math.IsNaN(s) && s > 0 {
			sizeRef = math.Max(sizeRef, math.Sqrt(s))
		}
	}
	if len(frameKeys) == 0 {
		return nil, fmt.Errorf("scatter: no plottable rows")
	}

	sort.Float64s(frameKeys)
	spec := &ScatterSpec{
		Frames:      make([]ScatterFrame, len(frameKeys)),
		Entities:    entityOrder,
		Colors:      make(map[string]colorful.Color, len(entityOrder)),
		XRange:      [2]float64{0, xMax * 1.1},
		YRange:      [2]float64{yMin * 0.9, yMax * 1.05},
		SizeMax:     opts.SizeMax,
		SizeRef:     sizeRef,
		LegendTitle: opts.LegendTitle,
		ExtraOrder:  extraOrder,
	}
	if spec.SizeMax <= 0 {
		spec.SizeMax = 50
	}
	for i, k := range frameKeys {
		spec.Frames[i] = *byFrame[k]
	}
	for i, e := range entityOrder {
		spec.Colors[e] = SeriesColor(i)
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1200
	}
	if height <= 0 {
		height = 800
	}

	return &ChartSpec{
		Kind:    KindScatter,
		Title:   opts.Title,
		XLabel:  opts.XLabel,
		YLabel:  opts.YLabel,
		Width:   width,
		Height:  height,
		Scatter: spec,
	}, nil
}

// MarkerDiameter scales a raw size value so marker area follows sqrt(size)
// and the largest value gets SizeMax.
func (s *ScatterSpec) MarkerDiameter(size float64) float64 {
	const minDiameter = 4
	if s.SizeRef <= 0 || math.IsNaN(size) || size <= 0 {
		return minDiameter
	}
	d := s.SizeMax * math.Sqrt(math.Sqrt(size)/s.SizeRef)
	return math.Max(d, minDiameter)
}
