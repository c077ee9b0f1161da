// Package page writes the self-contained HTML pages the charts are shown on.
package page

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"vizboard/internal/infra/log"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Markdown renders md to HTML
func Markdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// DataURI embeds a PNG so pages need no sibling files
func DataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// write renders tmpl into path, creating the parent directory
func write(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}

	log.LogInfo("Page written", zap.String("path", path), zap.Int("bytes", buf.Len()))
	return nil
}

const baseStyle = `
body { font-family: -apple-system, "Segoe UI", Inter, sans-serif; margin: 1rem 2rem; color: #2a3f5f; background: #fff; }
h1 { margin: 0 0 1rem; }
img { max-width: 100%; height: auto; }
.caption { margin-top: 1rem; font-size: 0.9rem; }
`
