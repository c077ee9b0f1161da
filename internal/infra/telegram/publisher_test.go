package telegram_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizboard/internal/infra/telegram"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	methods  []string
	chatIDs  []string
	captions []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	f.mu.Lock()
	f.methods = append(f.methods, method)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"viz","username":"viz_bot"}}`)
	default:
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			f.mu.Lock()
			f.chatIDs = append(f.chatIDs, r.FormValue("chat_id"))
			f.captions = append(f.captions, r.FormValue("caption"))
			f.mu.Unlock()
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	}
}

func newPublisher(t *testing.T, fake *fakeBotAPI) *telegram.Publisher {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	p, err := telegram.NewPublisher("123:abc", "42", server.URL+"/bot%s/%s", server.Client())
	require.NoError(t, err)
	return p
}

func TestPublisher_SendsFiles(t *testing.T) {
	fake := &fakeBotAPI{}
	p := newPublisher(t, fake)

	dir := t.TempDir()
	png := filepath.Join(dir, "pie.png")
	gif := filepath.Join(dir, "indicators.gif")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG fake"), 0o644))
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a fake"), 0o644))

	require.NoError(t, p.SendPhoto(png, telegram.BoldCaption("R&D <spending>")))
	require.NoError(t, p.SendAnimation(gif, "Development Indicators"))
	require.NoError(t, p.SendDocument(png, ""))

	assert.Equal(t, []string{"getMe", "sendPhoto", "sendAnimation", "sendDocument"}, fake.methods)
	assert.Equal(t, []string{"42", "42", "42"}, fake.chatIDs)
	assert.Equal(t, []string{"<b>R&amp;D &lt;spending&gt;</b>", "Development Indicators", ""}, fake.captions)
}

func TestBoldCaption(t *testing.T) {
	assert.Equal(t, "<b>Most Common Form of Fruit</b>", telegram.BoldCaption("Most Common Form of Fruit"))
	assert.Equal(t, "<b>Health &amp; Education</b>", telegram.BoldCaption("Health & Education"))
}

func TestPublisher_RejectsMissingFile(t *testing.T) {
	fake := &fakeBotAPI{}
	p := newPublisher(t, fake)

	assert.Error(t, p.SendPhoto(filepath.Join(t.TempDir(), "missing.png"), ""))
	assert.Equal(t, []string{"getMe"}, fake.methods)
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := telegram.NewPublisher("", "42", "", nil)
	assert.Error(t, err)

	_, err = telegram.NewPublisher("123:abc", "not-a-number", "", nil)
	assert.Error(t, err)
}
