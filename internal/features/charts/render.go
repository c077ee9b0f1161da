package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"vizboard/internal/infra/log"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	titleFontSize  = 26.0
	labelFontSize  = 18.0
	tickFontSize   = 15.0
	legendFontSize = 16.0
	cellFontSize   = 12.0
)

var (
	background = color.White
	inkColor   = color.RGBA{42, 63, 95, 255}
	gridColor  = color.RGBA{211, 211, 211, 255}
	printer    = message.NewPrinter(language.English)
)

// Renderer rasterises ChartSpecs to PNG
type Renderer struct {
	fonts *fontSet
}

// NewRenderer probes fontPaths (or DefaultFontPaths when empty) for a TrueType font
func NewRenderer(fontPaths []string) *Renderer {
	return &Renderer{fonts: loadFontSet(fontPaths)}
}

// Draw renders a pie, bar or heatmap spec. Scatter specs go through DrawFrame.
func (r *Renderer) Draw(spec *ChartSpec) (image.Image, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas %dx%d", spec.Width, spec.Height)
	}

	dc := gg.NewContext(spec.Width, spec.Height)
	dc.SetColor(background)
	dc.Clear()
	r.drawTitle(dc, spec.Title)

	switch spec.Kind {
	case KindPie:
		r.drawPie(dc, spec)
	case KindBar:
		r.drawBar(dc, spec)
	case KindHeatmap:
		if spec.Heatmap == nil {
			return nil, fmt.Errorf("heatmap spec without grid")
		}
		r.drawHeatmap(dc, spec)
	case KindScatter:
		return r.DrawFrame(spec, 0)
	default:
		return nil, fmt.Errorf("unknown chart kind %q", spec.Kind)
	}
	return dc.Image(), nil
}

// EncodePNG renders spec into memory
func (r *Renderer) EncodePNG(spec *ChartSpec) ([]byte, error) {
	img, err := r.Draw(spec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func writePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create charts directory: %w", err)
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat chart file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		log.LogError("Chart file is empty after rendering", zap.String("filename", path))
		return fmt.Errorf("chart file is empty after rendering")
	}
	return nil
}

func (r *Renderer) drawTitle(dc *gg.Context, title string) {
	if title == "" {
		return
	}
	dc.SetFontFace(r.fonts.face(titleFontSize))
	dc.SetColor(inkColor)
	dc.DrawStringAnchored(title, 24, 36, 0, 0.5)
}

func (r *Renderer) drawPie(dc *gg.Context, spec *ChartSpec) {
	w, h := float64(spec.Width), float64(spec.Height)
	legendWidth := 180.0
	cx := (w - legendWidth) / 2
	cy := h/2 + 20
	radius := math.Min(w-legendWidth, h-100) / 2 * 0.85

	total := 0.0
	for _, p := range spec.Points {
		if p.Value > 0 {
			total += p.Value
		}
	}
	if total == 0 {
		return
	}

	// slices start at 12 o'clock and run clockwise
	angle := -math.Pi / 2
	dc.SetFontFace(r.fonts.face(legendFontSize))
	for _, p := range spec.Points {
		if p.Value <= 0 {
			continue
		}
		sweep := p.Value / total * 2 * math.Pi
		dc.NewSubPath()
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, angle, angle+sweep)
		dc.ClosePath()
		dc.SetColor(p.Color)
		dc.FillPreserve()
		dc.SetColor(color.White)
		dc.SetLineWidth(2)
		dc.Stroke()

		if share := p.Value / total; share >= 0.03 {
			mid := angle + sweep/2
			lx := cx + math.Cos(mid)*radius*0.65
			ly := cy + math.Sin(mid)*radius*0.65
			dc.SetColor(textColorOn(p.Color))
			dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", share*100), lx, ly, 0.5, 0.5)
		}
		angle += sweep
	}

	r.drawLegend(dc, "", legendEntries(spec.Points), w-legendWidth+10, 90)
}

type legendEntry struct {
	label string
	color colorful.Color
}

func legendEntries(points []Point) []legendEntry {
	entries := make([]legendEntry, len(points))
	for i, p := range points {
		entries[i] = legendEntry{label: p.Label, color: p.Color}
	}
	return entries
}

func (r *Renderer) drawLegend(dc *gg.Context, title string, entries []legendEntry, x, y float64) {
	dc.SetFontFace(r.fonts.face(legendFontSize))
	dc.SetColor(inkColor)
	if title != "" {
		dc.DrawStringAnchored(title, x, y, 0, 0.5)
		y += 28
	}
	for _, e := range entries {
		dc.SetColor(e.color)
		dc.DrawRectangle(x, y-8, 16, 16)
		dc.Fill()
		dc.SetColor(inkColor)
		dc.DrawStringAnchored(e.label, x+24, y, 0, 0.5)
		y += 26
	}
}

func (r *Renderer) drawBar(dc *gg.Context, spec *ChartSpec) {
	w, h := float64(spec.Width), float64(spec.Height)
	left, right, top, bottom := 110.0, 30.0, 90.0, h-90

	maxValue := 0.0
	for _, p := range spec.Points {
		if !math.IsNaN(p.Value) {
			maxValue = math.Max(maxValue, p.Value)
		}
	}
	ticks := niceTicks(0, maxValue, 5)
	yMax := ticks[len(ticks)-1]
	scaleY := func(v float64) float64 { return bottom - v/yMax*(bottom-top) }

	dc.SetFontFace(r.fonts.face(tickFontSize))
	dc.SetLineWidth(1)
	for _, t := range ticks {
		y := scaleY(t)
		dc.SetColor(gridColor)
		dc.DrawLine(left, y, w-right, y)
		dc.Stroke()
		dc.SetColor(inkColor)
		dc.DrawStringAnchored(formatTick(t), left-10, y, 1, 0.5)
	}

	slot := (w - right - left) / float64(len(spec.Points))
	barWidth := slot * 0.7
	for i, p := range spec.Points {
		x := left + slot*float64(i) + (slot-barWidth)/2
		dc.SetFontFace(r.fonts.face(tickFontSize))
		dc.SetColor(inkColor)
		dc.DrawStringAnchored(p.Label, x+barWidth/2, bottom+20, 0.5, 0.5)

		if math.IsNaN(p.Value) {
			dc.DrawStringAnchored("n/a", x+barWidth/2, bottom-14, 0.5, 0.5)
			continue
		}
		y := scaleY(p.Value)
		dc.SetColor(p.Color)
		dc.DrawRectangle(x, y, barWidth, bottom-y)
		dc.Fill()
		dc.SetColor(inkColor)
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", p.Value), x+barWidth/2, y-14, 0.5, 0.5)
	}

	r.drawAxisTitles(dc, spec, left, top, w-right, bottom)
}

func (r *Renderer) drawAxisTitles(dc *gg.Context, spec *ChartSpec, left, top, right, bottom float64) {
	dc.SetFontFace(r.fonts.face(labelFontSize))
	dc.SetColor(inkColor)
	if spec.XLabel != "" {
		dc.DrawStringAnchored(spec.XLabel, (left+right)/2, bottom+55, 0.5, 0.5)
	}
	if spec.YLabel != "" {
		cx, cy := left-80, (top+bottom)/2
		dc.Push()
		dc.RotateAbout(-math.Pi/2, cx, cy)
		dc.DrawStringAnchored(spec.YLabel, cx, cy, 0.5, 0.5)
		dc.Pop()
	}
}

func (r *Renderer) drawHeatmap(dc *gg.Context, spec *ChartSpec) {
	hm := spec.Heatmap
	w, h := float64(spec.Width), float64(spec.Height)
	left, right, top, bottom := 200.0, w-150, 150.0, h-30

	cellW := (right - left) / float64(len(hm.Columns))
	cellH := (bottom - top) / float64(len(hm.Rows))

	labelSize := math.Min(cellFontSize, cellH*0.6)
	showLabels := (r.fonts.scalable() && labelSize >= 6) || (!r.fonts.scalable() && cellH >= 14)
	labelFace := r.fonts.face(labelSize)

	for ri, row := range hm.Cells {
		for ci, v := range row {
			x := left + float64(ci)*cellW
			y := top + float64(ri)*cellH
			c := hm.Scale.At(Normalize(v, hm.Min, hm.Max))
			dc.SetColor(c)
			dc.DrawRectangle(x+hm.Gap/2, y+hm.Gap/2, cellW-hm.Gap, cellH-hm.Gap)
			dc.Fill()

			if showLabels {
				dc.SetFontFace(labelFace)
				dc.SetColor(textColorOn(c))
				dc.DrawStringAnchored(fmt.Sprintf(hm.LabelFormat, v), x+cellW/2, y+cellH/2, 0.5, 0.5)
			}
		}
	}

	tickFace := r.fonts.face(math.Min(tickFontSize, math.Max(cellH*0.8, 6)))
	dc.SetColor(inkColor)
	for ri, name := range hm.Rows {
		dc.SetFontFace(tickFace)
		dc.DrawStringAnchored(name, left-8, top+(float64(ri)+0.5)*cellH, 1, 0.5)
	}
	dc.SetFontFace(r.fonts.face(tickFontSize))
	columnY := bottom + 18
	if hm.ColumnsTop {
		columnY = top - 14
	}
	for ci, name := range hm.Columns {
		dc.DrawStringAnchored(name, left+(float64(ci)+0.5)*cellW, columnY, 0.5, 0.5)
	}

	dc.SetFontFace(r.fonts.face(labelFontSize))
	if spec.XLabel != "" {
		titleY := bottom + 24
		if hm.ColumnsTop {
			titleY = top - 48
		}
		dc.DrawStringAnchored(spec.XLabel, (left+right)/2, titleY, 0.5, 0.5)
	}
	if spec.YLabel != "" {
		cx, cy := 30.0, (top+bottom)/2
		dc.Push()
		dc.RotateAbout(-math.Pi/2, cx, cy)
		dc.DrawStringAnchored(spec.YLabel, cx, cy, 0.5, 0.5)
		dc.Pop()
	}

	r.drawColorbar(dc, hm, right+30, top, bottom)
}

func (r *Renderer) drawColorbar(dc *gg.Context, hm *HeatmapSpec, x, top, bottom float64) {
	const barWidth = 24.0
	height := bottom - top
	for y := 0.0; y < height; y++ {
		dc.SetColor(hm.Scale.At(1 - y/height))
		dc.DrawRectangle(x, top+y, barWidth, 1)
		dc.Fill()
	}

	dc.SetFontFace(r.fonts.face(tickFontSize))
	dc.SetColor(inkColor)
	for _, t := range niceTicks(hm.Min, hm.Max, 5) {
		if t < hm.Min || t > hm.Max {
			continue
		}
		y := bottom - Normalize(t, hm.Min, hm.Max)*height
		dc.DrawLine(x+barWidth, y, x+barWidth+5, y)
		dc.Stroke()
		dc.DrawStringAnchored(formatTick(t), x+barWidth+9, y, 0, 0.5)
	}
}

// niceTicks returns evenly spaced round values covering [lo, hi]
func niceTicks(lo, hi float64, n int) []float64 {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return []float64{0, 1}
	}
	if hi <= lo {
		hi = lo + 1
	}
	step := niceStep((hi - lo) / float64(n))
	start := math.Floor(lo/step) * step
	var ticks []float64
	for v := start; v < hi+step*0.999; v += step {
		ticks = append(ticks, math.Round(v/step)*step)
	}
	return ticks
}

func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch norm := raw / mag; {
	case norm <= 1:
		return mag
	case norm <= 2:
		return 2 * mag
	case norm <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func formatTick(v float64) string {
	switch {
	case math.Abs(v) >= 1000:
		return printer.Sprintf("%.0f", v)
	case v == math.Trunc(v):
		return printer.Sprintf("%.0f", v)
	case math.Abs(v) >= 1:
		return printer.Sprintf("%.1f", v)
	default:
		return printer.Sprintf("%.2f", v)
	}
}
