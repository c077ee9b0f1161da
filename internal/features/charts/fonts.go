package charts

import (
	"os"
	"path/filepath"

	"vizboard/internal/infra/log"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// DefaultFontPaths are probed when no font path is configured.
// Only single-face TrueType files are usable.
var DefaultFontPaths = []string{
	"etc/fonts/InterVariable.ttf",
	"etc/fonts/Inter-Regular.ttf",
	"~/Library/Fonts/Inter-Regular.ttf",
	"/Library/Fonts/Inter-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/inter/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// fontSet hands out faces by point size, parsing the font file once
type fontSet struct {
	font  *truetype.Font
	path  string
	faces map[float64]font.Face
}

func loadFontSet(paths []string) *fontSet {
	if len(paths) == 0 {
		paths = DefaultFontPaths
	}

	for _, p := range paths {
		expanded := expandHome(p)
		info, err := os.Stat(expanded)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			log.LogWarn("Font file exists but could not be read", zap.String("path", expanded), zap.Error(err))
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			log.LogWarn("Font file exists but failed to load", zap.String("path", expanded), zap.Error(err))
			continue
		}
		log.LogDebug("Loaded chart font", zap.String("path", expanded), zap.Int64("size", info.Size()))
		return &fontSet{font: f, path: expanded, faces: make(map[float64]font.Face)}
	}

	log.LogWarn("No TrueType font found, falling back to the built-in bitmap font",
		zap.Int("paths_checked", len(paths)))
	return &fontSet{faces: make(map[float64]font.Face)}
}

// face returns a face of the given size; the bitmap fallback ignores size
func (fs *fontSet) face(size float64) font.Face {
	if fs.font == nil {
		return basicfont.Face7x13
	}
	if f, ok := fs.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(fs.font, &truetype.Options{Size: size, Hinting: font.HintingFull})
	fs.faces[size] = f
	return f
}

func (fs *fontSet) scalable() bool { return fs.font != nil }

func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
