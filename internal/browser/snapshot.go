package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"
)

// Snapshotter is implemented by pages that can hand back their current
// document. The saved file is what the static backend reads.
type Snapshotter interface {
	HTML(ctx context.Context) (string, error)
}

// SaveSnapshot writes the rendered document of page to path.
func SaveSnapshot(ctx context.Context, page Page, path string) error {
	s, ok := page.(Snapshotter)
	if !ok {
		return fmt.Errorf("snapshot: %T cannot export its document", page)
	}

	html, err := s.HTML(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

func (m *Manager) HTML(ctx context.Context) (string, error) {
	if m == nil || m.Page == nil {
		return "", fmt.Errorf("page is not initialized")
	}
	return m.Page.Content()
}

func (p *ChromePage) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := p.scoped(ctx, 0)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *StaticPage) HTML(ctx context.Context) (string, error) {
	return p.doc.Html()
}
