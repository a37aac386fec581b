package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeReportHTML = `<!doctype html><html><body>
<div aria-labelledby="%s_tab">
	<div class="lh-exp-gauge__percentage">%s</div>
	<div id="folded" style="display:none">hidden</div>
	<div id="late"></div>
</div>
<script>
	// Network stays busy for a moment after load; the idle wait must outlast it.
	setTimeout(() => fetch('/late').then(r => r.text()).then(t => {
		document.getElementById('late').textContent = t;
	}), 50);
</script>
</body></html>`

func lookChrome() string {
	for _, name := range []string{
		"headless-shell", "chromium", "chromium-browser",
		"google-chrome", "google-chrome-stable",
	} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func newReportServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/late", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "loaded")
	})
	mux.HandleFunc("/analysis", func(w http.ResponseWriter, r *http.Request) {
		score := "58"
		if r.URL.Query().Get("form_factor") == "desktop" {
			score = "91"
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, chromeReportHTML, r.URL.Query().Get("form_factor"), score)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// This test is real: it starts a local Chrome through chromedp.
func TestChromePage_Report(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping chrome test in short mode")
	}
	if lookChrome() == "" {
		t.Skip("no chrome binary found, skipping chrome test")
	}

	srv := newReportServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	p, err := NewChromePage(ctx, Options{Backend: BackendChromedp, Headless: true, NavigationTimeout: 30 * time.Second})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Goto(ctx, srv.URL+"/analysis?url=x&form_factor=mobile"))

	score := `[aria-labelledby="mobile_tab"] .lh-exp-gauge__percentage`
	require.NoError(t, p.WaitVisible(ctx, score))

	ok, err := p.Exists(ctx, score)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Exists(ctx, ".missing")
	require.NoError(t, err)
	assert.False(t, ok)

	visible, err := p.IsVisible(ctx, score)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = p.IsVisible(ctx, "#folded")
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = p.IsVisible(ctx, ".missing")
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, p.ScrollIntoView(ctx, score))
	text, err := p.TextContent(ctx, score)
	require.NoError(t, err)
	assert.Equal(t, "58", text)

	text, err = p.TextContent(ctx, "#late")
	require.NoError(t, err)
	assert.Equal(t, "loaded", text)

	// A second navigation must wait for the new document, not the old one's idle event.
	require.NoError(t, p.Goto(ctx, srv.URL+"/analysis?url=x&form_factor=desktop"))
	text, err = p.TextContent(ctx, `[aria-labelledby="desktop_tab"] .lh-exp-gauge__percentage`)
	require.NoError(t, err)
	assert.Equal(t, "91", text)

	html, err := p.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "desktop_tab")
}

func TestChromePage_NavigationErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping chrome test in short mode")
	}
	if lookChrome() == "" {
		t.Skip("no chrome binary found, skipping chrome test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	p, err := NewChromePage(ctx, Options{Backend: BackendChromedp, Headless: true, NavigationTimeout: 20 * time.Second})
	require.NoError(t, err)
	defer p.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	assert.ErrorIs(t, p.Goto(ctx, dead.URL+"/analysis"), ErrNavigation)

	cancelled, stop := context.WithCancel(ctx)
	stop()
	assert.ErrorIs(t, p.Goto(cancelled, newReportServer(t).URL+"/analysis"), ErrNavigation)
}
