package terminal_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizboard/internal/infra/terminal"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderTable(t *testing.T) {
	out := terminal.RenderTable(terminal.Table{
		Title:   "Fruit forms",
		Headers: []string{"Form", "Count"},
		Rows:    [][]string{{"Fresh", "12"}, {"Juice", "3"}},
		Numeric: []bool{false, true},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "  Fruit forms", lines[0])
	assert.Equal(t, "╭───────┬───────╮", lines[1])
	assert.Equal(t, "│ Form  │ Count │", lines[2])
	assert.Equal(t, "├───────┼───────┤", lines[3])
	assert.Equal(t, "│ Fresh │    12 │", lines[4])
	assert.Equal(t, "│ Juice │     3 │", lines[5])
	assert.Equal(t, "╰───────┴───────╯", lines[6])
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, terminal.RenderTable(terminal.Table{}))
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, terminal.Print(&buf,
		terminal.Table{Headers: []string{"a"}},
		terminal.Table{Headers: []string{"b"}},
	))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n\n"))
}
