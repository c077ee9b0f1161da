package page

import (
	"fmt"
	"html/template"
	"io"
)

// Dashboard is the fruit-price page: pie and bar side by side, heatmap below
type Dashboard struct {
	Title   string // markdown, inline
	Caption string // markdown
	Pie     []byte // PNG
	Bar     []byte
	Heatmap []byte
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.PlainTitle}}</title>
<style>` + baseStyle + `
.row { display: flex; gap: 1rem; }
.row > figure { flex: 1; margin: 0; }
.wide { margin: 1rem 0 0; }
</style>
</head>
<body>
<header class="title">{{.Title}}</header>
<section class="row">
<figure id="pie"><img alt="Most common form of fruit" src="{{.Pie}}"></figure>
<figure id="bar"><img alt="Average price by form" src="{{.Bar}}"></figure>
</section>
<figure id="heatmap" class="wide"><img alt="Average price by fruit and form" src="{{.Heatmap}}"></figure>
<footer class="caption">{{.Caption}}</footer>
</body>
</html>
`))

type dashboardView struct {
	PlainTitle string
	Title      template.HTML
	Caption    template.HTML
	Pie        template.URL
	Bar        template.URL
	Heatmap    template.URL
}

// Render writes the page to w
func (d *Dashboard) Render(w io.Writer) error {
	if len(d.Pie) == 0 || len(d.Bar) == 0 || len(d.Heatmap) == 0 {
		return fmt.Errorf("dashboard needs all three charts")
	}

	title, err := Markdown("# " + d.Title)
	if err != nil {
		return err
	}
	caption, err := Markdown(d.Caption)
	if err != nil {
		return err
	}

	return dashboardTmpl.Execute(w, dashboardView{
		PlainTitle: d.Title,
		Title:      title,
		Caption:    caption,
		Pie:        DataURI(d.Pie),
		Bar:        DataURI(d.Bar),
		Heatmap:    DataURI(d.Heatmap),
	})
}

// Write renders the page into path
func (d *Dashboard) Write(path string) error {
	return write(path, d.Render)
}
