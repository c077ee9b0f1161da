package charts

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"vizboard/internal/infra/log"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// Animation lists what SaveAnimation wrote
type Animation struct {
	Frames []string // one PNG per frame, in order
	Labels []string
	GIF    string
}

// DrawFrame renders frame i of a scatter spec
func (r *Renderer) DrawFrame(spec *ChartSpec, i int) (image.Image, error) {
	sc := spec.Scatter
	if spec.Kind != KindScatter || sc == nil {
		return nil, fmt.Errorf("not a scatter spec")
	}
	if i < 0 || i >= len(sc.Frames) {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", i, len(sc.Frames))
	}
	frame := sc.Frames[i]

	w, h := float64(spec.Width), float64(spec.Height)
	left, right, top, bottom := 110.0, w-190, 70.0, h-120

	dc := gg.NewContext(spec.Width, spec.Height)
	dc.SetColor(background)
	dc.Clear()
	r.drawTitle(dc, spec.Title)

	scaleX := func(v float64) float64 {
		return left + Normalize(v, sc.XRange[0], sc.XRange[1])*(right-left)
	}
	scaleY := func(v float64) float64 {
		return bottom - Normalize(v, sc.YRange[0], sc.YRange[1])*(bottom-top)
	}

	dc.SetFontFace(r.fonts.face(tickFontSize))
	dc.SetLineWidth(1)
	for _, t := range niceTicks(sc.XRange[0], sc.XRange[1], 6) {
		if t < sc.XRange[0] || t > sc.XRange[1] {
			continue
		}
		x := scaleX(t)
		dc.SetColor(gridColor)
		dc.DrawLine(x, top, x, bottom)
		dc.Stroke()
		dc.SetColor(inkColor)
		dc.DrawStringAnchored(formatTick(t), x, bottom+18, 0.5, 0.5)
	}
	for _, t := range niceTicks(sc.YRange[0], sc.YRange[1], 6) {
		if t < sc.YRange[0] || t > sc.YRange[1] {
			continue
		}
		y := scaleY(t)
		dc.SetColor(gridColor)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()
		dc.SetColor(inkColor)
		dc.DrawStringAnchored(formatTick(t), left-10, y, 1, 0.5)
	}

	// big markers first so small ones stay visible
	points := append([]ScatterPoint(nil), frame.Points...)
	sort.SliceStable(points, func(a, b int) bool { return points[a].Size > points[b].Size })

	dc.Push()
	dc.DrawRectangle(left, top, right-left, bottom-top)
	dc.Clip()
	for _, p := range points {
		c := sc.Colors[p.Entity]
		d := sc.MarkerDiameter(p.Size)
		x, y := scaleX(p.X), scaleY(p.Y)
		dc.DrawCircle(x, y, d/2)
		dc.SetRGBA(c.R, c.G, c.B, 0.8)
		dc.FillPreserve()
		dc.SetColor(background)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
	dc.Pop()

	r.drawAxisTitles(dc, spec, left, top, right, bottom-10)

	legend := make([]legendEntry, len(sc.Entities))
	for j, e := range sc.Entities {
		legend[j] = legendEntry{label: e, color: sc.Colors[e]}
	}
	r.drawLegend(dc, sc.LegendTitle, legend, right+30, top+10)
	r.drawScrubber(dc, sc, i, left, right, h-40)

	return dc.Image(), nil
}

// drawScrubber draws the static counterpart of the year slider
func (r *Renderer) drawScrubber(dc *gg.Context, sc *ScatterSpec, i int, left, right, y float64) {
	dc.SetColor(gridColor)
	dc.SetLineWidth(4)
	dc.DrawLine(left, y, right, y)
	dc.Stroke()

	pos := 0.0
	if n := len(sc.Frames); n > 1 {
		pos = float64(i) / float64(n-1)
	}
	dc.SetColor(inkColor)
	dc.DrawCircle(left+pos*(right-left), y, 8)
	dc.Fill()

	dc.SetFontFace(r.fonts.face(labelFontSize))
	dc.DrawStringAnchored("Year: "+sc.Frames[i].Label, right, y-24, 1, 0.5)
}

// SaveAnimation writes every frame as <base>_<label>.png under dir plus an
// animated <base>.gif with frameDelay per frame.
func (r *Renderer) SaveAnimation(spec *ChartSpec, dir, base string, frameDelay time.Duration) (*Animation, error) {
	if spec.Kind != KindScatter || spec.Scatter == nil {
		return nil, fmt.Errorf("not a scatter spec")
	}

	anim := &Animation{}
	out := &gif.GIF{}
	delay := int(math.Round(frameDelay.Seconds() * 100))
	if delay <= 0 {
		delay = 50
	}

	for i, frame := range spec.Scatter.Frames {
		img, err := r.DrawFrame(spec, i)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", base, frame.Label))
		if err := writePNG(img, path); err != nil {
			return nil, fmt.Errorf("frame %s: %w", frame.Label, err)
		}
		anim.Frames = append(anim.Frames, path)
		anim.Labels = append(anim.Labels, frame.Label)

		out.Image = append(out.Image, quantize(img))
		out.Delay = append(out.Delay, delay)
	}

	gifPath := filepath.Join(dir, base+".gif")
	if err := writeGIF(out, gifPath); err != nil {
		return nil, err
	}
	anim.GIF = gifPath

	log.LogInfo("Animation rendered",
		zap.String("gif", gifPath),
		zap.Int("frames", len(anim.Frames)))
	return anim, nil
}

func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.Draw(p, b, img, b.Min, draw.Src)
	return p
}

func writeGIF(g *gif.GIF, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gif: %w", err)
	}
	if err := gif.EncodeAll(f, g); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return f.Close()
}

// EntityColor exposes the legend colour of an entity as hex, for pages
func (s *ScatterSpec) EntityColor(entity string) string {
	c, ok := s.Colors[entity]
	if !ok {
		return colorful.Color{R: 0.5, G: 0.5, B: 0.5}.Hex()
	}
	return c.Hex()
}
