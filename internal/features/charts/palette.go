package charts

import (
	"errors"
	"fmt"

	"vizboard/internal/infra/log"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// ErrUnknownCategory is wrapped by every palette miss
var ErrUnknownCategory = errors.New("unknown category")

// UnknownCategoryError names the category that has no colour
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("no palette colour for category %q", e.Category)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// PaletteEntry binds one category to a hex colour
type PaletteEntry struct {
	Category string
	Color    string
}

// qualitative colours, cycled for open-ended series such as countries
var qualitative = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// Palette is a closed category -> colour table
type Palette struct {
	colors   map[string]colorful.Color
	fallback *colorful.Color
}

// NewPalette parses the entries. fallback may be empty, in which case
// Lookup fails for categories outside the table.
func NewPalette(entries []PaletteEntry, fallback string) (*Palette, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}

	p := &Palette{colors: make(map[string]colorful.Color, len(entries))}
	for _, e := range entries {
		if e.Category == "" {
			return nil, fmt.Errorf("palette entry with empty category")
		}
		if _, dup := p.colors[e.Category]; dup {
			return nil, fmt.Errorf("duplicate palette category %q", e.Category)
		}
		c, err := colorful.Hex(e.Color)
		if err != nil {
			return nil, fmt.Errorf("palette colour for %q: %w", e.Category, err)
		}
		p.colors[e.Category] = c
	}

	if fallback != "" {
		c, err := colorful.Hex(fallback)
		if err != nil {
			return nil, fmt.Errorf("palette fallback colour: %w", err)
		}
		p.fallback = &c
	}
	return p, nil
}

// Lookup returns the colour for category
func (p *Palette) Lookup(category string) (colorful.Color, error) {
	if c, ok := p.colors[category]; ok {
		return c, nil
	}
	if p.fallback != nil {
		log.LogWarn("Category not in palette, using fallback colour",
			zap.String("category", category),
			zap.String("fallback", p.fallback.Hex()))
		return *p.fallback, nil
	}
	return colorful.Color{}, &UnknownCategoryError{Category: category}
}

// SeriesColor returns the i-th qualitative colour, cycling
func SeriesColor(i int) colorful.Color {
	c, _ := colorful.Hex(qualitative[i%len(qualitative)])
	return c
}
