package exec_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vizboard/internal/infra/exec"
)

func TestOpenerCommand(t *testing.T) {
	name, args := exec.OpenerCommand("darwin", "/tmp/a.html")
	assert.Equal(t, "open", name)
	assert.Equal(t, []string{"/tmp/a.html"}, args)

	name, args = exec.OpenerCommand("windows", `C:\a.html`)
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", `C:\a.html`}, args)

	name, _ = exec.OpenerCommand("linux", "/tmp/a.html")
	assert.Equal(t, "xdg-open", name)
}

func TestOpenInBrowser_MissingFile(t *testing.T) {
	_, err := exec.OpenInBrowser(filepath.Join(t.TempDir(), "missing.html"), time.Second)
	assert.ErrorContains(t, err, "page not found")
}
