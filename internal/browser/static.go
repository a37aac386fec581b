package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StaticPage serves a saved report page from memory. Nothing is rendered,
// so visibility is judged from markup alone.
type StaticPage struct {
	doc *goquery.Document
	url string
}

func NewStaticPage(r io.Reader) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &StaticPage{doc: doc}, nil
}

func LoadStaticPage(path string) (*StaticPage, error) {
	if path == "" {
		return nil, fmt.Errorf("static backend needs a snapshot file")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return NewStaticPage(f)
}

// URL is the last address passed to Goto.
func (p *StaticPage) URL() string {
	return p.url
}

func (p *StaticPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	p.url = url
	return nil
}

func (p *StaticPage) WaitVisible(ctx context.Context, selector string) error {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return fmt.Errorf("waiting for %q: %w", selector, ErrNoMatch)
	}
	if !visible(sel) {
		return fmt.Errorf("waiting for %q: element is hidden", selector)
	}
	return ctx.Err()
}

func (p *StaticPage) Exists(ctx context.Context, selector string) (bool, error) {
	return p.doc.Find(selector).Length() > 0, ctx.Err()
}

func (p *StaticPage) ScrollIntoView(ctx context.Context, selector string) error {
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("scroll to %q: %w", selector, ErrNoMatch)
	}
	return ctx.Err()
}

func (p *StaticPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return false, ctx.Err()
	}
	return visible(sel), ctx.Err()
}

func (p *StaticPage) TextContent(ctx context.Context, selector string) (string, error) {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("text of %q: %w", selector, ErrNoMatch)
	}
	return sel.Text(), ctx.Err()
}

func (p *StaticPage) Close() error {
	return nil
}

// visible walks up from sel; any hidden ancestor hides the element.
func visible(sel *goquery.Selection) bool {
	for s := sel; s.Length() > 0; s = s.Parent() {
		if hidden(s) {
			return false
		}
	}
	return true
}

func hidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, _ := s.Attr("aria-hidden"); v == "true" {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}
