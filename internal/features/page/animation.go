package page

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"vizboard/internal/features/charts"
)

// Animation is the scatter player page
type Animation struct {
	Title         string
	FrameDuration time.Duration
	Columns       []string // hover table header after the entity column
	Frames        []AnimationFrame
}

// AnimationFrame is one rendered frame plus its hover table
type AnimationFrame struct {
	Label string
	PNG   []byte
	Rows  []HoverRow
}

// HoverRow is one entity's formatted values in a frame
type HoverRow struct {
	Entity string
	Color  string
	Values []string
}

// NewAnimation pairs rendered frames with the scatter data behind them.
// X values use ",.2f", Y values ",.1f", extra columns ",.2f".
func NewAnimation(spec *charts.ChartSpec, frames [][]byte, frameDuration time.Duration) (*Animation, error) {
	sc := spec.Scatter
	if sc == nil {
		return nil, fmt.Errorf("not a scatter spec")
	}
	if len(frames) != len(sc.Frames) {
		return nil, fmt.Errorf("got %d images for %d frames", len(frames), len(sc.Frames))
	}

	a := &Animation{
		Title:         spec.Title,
		FrameDuration: frameDuration,
		Columns:       append([]string{spec.XLabel, spec.YLabel}, sc.ExtraOrder...),
	}
	for i, f := range sc.Frames {
		frame := AnimationFrame{Label: f.Label, PNG: frames[i]}
		for _, p := range f.Points {
			values := []string{FormatNumber(p.X, 2), FormatNumber(p.Y, 1)}
			for _, col := range sc.ExtraOrder {
				values = append(values, FormatNumber(p.Extra[col], 2))
			}
			frame.Rows = append(frame.Rows, HoverRow{
				Entity: p.Entity,
				Color:  sc.EntityColor(p.Entity),
				Values: values,
			})
		}
		a.Frames = append(a.Frames, frame)
	}
	return a, nil
}

// FormatNumber groups thousands and rounds to decimals; NaN prints as "n/a"
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

var animationTmpl = template.Must(template.New("animation").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>` + baseStyle + `
.controls { display: flex; align-items: center; gap: 0.75rem; margin: 0.5rem 0; }
.controls input[type=range] { flex: 1; }
.frame[hidden], .hover[hidden] { display: none; }
.hover { border-collapse: collapse; margin-top: 0.5rem; }
.hover td, .hover th { border: 1px solid lightgrey; padding: 0.2rem 0.6rem; text-align: right; }
.hover td:first-child { text-align: left; }
.swatch { display: inline-block; width: 0.8rem; height: 0.8rem; margin-right: 0.4rem; }
</style>
</head>
<body data-frame-ms="{{.FrameMS}}">
<h1>{{.Title}}</h1>
<div id="frames">
{{- range $i, $f := .Frames}}
<img class="frame" data-year="{{$f.Label}}" alt="{{$.Title}} {{$f.Label}}" src="{{$f.URI}}"{{if $i}} hidden{{end}}>
{{- end}}
</div>
<div class="controls">
<button id="play" type="button">Play</button>
<button id="pause" type="button">Pause</button>
<input id="scrubber" type="range" min="0" max="{{.Last}}" value="0" step="1">
<span id="year">Year: {{.FirstLabel}}</span>
</div>
{{- range $i, $f := .Frames}}
<table class="hover" data-year="{{$f.Label}}"{{if $i}} hidden{{end}}>
<thead><tr><th>Country</th>{{range $.Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range $f.Rows}}
<tr><td><span class="swatch" style="background: {{.Color}}"></span>{{.Entity}}</td>{{range .Values}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- end}}
<script>
(function () {
  var frames = document.querySelectorAll(".frame");
  var tables = document.querySelectorAll(".hover");
  var scrubber = document.getElementById("scrubber");
  var year = document.getElementById("year");
  var delay = parseInt(document.body.dataset.frameMs, 10) || 500;
  var timer = null;

  function show(i) {
    frames.forEach(function (f, j) { f.hidden = j !== i; });
    tables.forEach(function (t, j) { t.hidden = j !== i; });
    scrubber.value = i;
    year.textContent = "Year: " + frames[i].dataset.year;
  }
  function pause() {
    if (timer !== null) { clearInterval(timer); timer = null; }
  }
  document.getElementById("play").addEventListener("click", function () {
    pause();
    timer = setInterval(function () {
      var next = parseInt(scrubber.value, 10) + 1;
      if (next >= frames.length) { pause(); return; }
      show(next);
    }, delay);
  });
  document.getElementById("pause").addEventListener("click", pause);
  scrubber.addEventListener("input", function () { pause(); show(parseInt(scrubber.value, 10)); });
})();
</script>
</body>
</html>
`))

type animationFrameView struct {
	Label string
	URI   template.URL
	Rows  []HoverRow
}

type animationView struct {
	Title      string
	FrameMS    int64
	Last       int
	FirstLabel string
	Columns    []string
	Frames     []animationFrameView
}

// Render writes the page to w
func (a *Animation) Render(w io.Writer) error {
	if len(a.Frames) == 0 {
		return fmt.Errorf("animation has no frames")
	}

	ms := a.FrameDuration.Milliseconds()
	if ms <= 0 {
		ms = 500
	}
	view := animationView{
		Title:      a.Title,
		FrameMS:    ms,
		Last:       len(a.Frames) - 1,
		FirstLabel: a.Frames[0].Label,
		Columns:    a.Columns,
	}
	for _, f := range a.Frames {
		view.Frames = append(view.Frames, animationFrameView{Label: f.Label, URI: DataURI(f.PNG), Rows: f.Rows})
	}
	return animationTmpl.Execute(w, view)
}

// Write renders the page into path
func (a *Animation) Write(path string) error {
	return write(path, a.Render)
}
