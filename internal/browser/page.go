package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	BackendPlaywright = "playwright"
	BackendChromedp   = "chromedp"
	BackendStatic     = "static"
)

var (
	ErrNavigation     = errors.New("navigation failed")
	ErrNoMatch        = errors.New("no element matches selector")
	ErrUnknownBackend = errors.New("unknown browser backend")
)

// Page is the subset of a browser tab the report extractor needs.
// Every call is bounded by the deadline of ctx.
type Page interface {
	Goto(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	Exists(ctx context.Context, selector string) (bool, error)
	ScrollIntoView(ctx context.Context, selector string) error
	IsVisible(ctx context.Context, selector string) (bool, error)
	TextContent(ctx context.Context, selector string) (string, error)
	Close() error
}

type Options struct {
	Backend           string
	Headless          bool
	NavigationTimeout time.Duration
	// SnapshotPath is the saved report HTML read by the static backend.
	SnapshotPath string
}

// Open starts the backend named in opts. An empty name means playwright.
func Open(ctx context.Context, opts Options) (Page, error) {
	var (
		p   Page
		err error
	)
	switch opts.Backend {
	case BackendPlaywright, "":
		var m *Manager
		m, err = NewManager(opts)
		p = m
	case BackendChromedp:
		var c *ChromePage
		c, err = NewChromePage(ctx, opts)
		p = c
	case BackendStatic:
		var s *StaticPage
		s, err = LoadStaticPage(opts.SnapshotPath)
		p = s
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// navDeadline bounds one whole navigation, load and idle wait together,
// by timeout. A shorter deadline already on ctx is kept.
func navDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// millis converts the time left on ctx into a playwright timeout.
// Without a deadline the fallback is used; zero means no explicit timeout.
func millis(ctx context.Context, fallback time.Duration) *float64 {
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline).Milliseconds()
		if left < 1 {
			left = 1
		}
		return playwright.Float(float64(left))
	}
	if fallback <= 0 {
		return nil
	}
	return playwright.Float(float64(fallback.Milliseconds()))
}
