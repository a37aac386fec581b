package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromePage is the chromedp backend. It talks CDP directly and does not
// need the playwright driver.
type ChromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration
}

func NewChromePage(ctx context.Context, opts Options) (*ChromePage, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
		// Chrome refuses to start sandboxed as root, as in most containers.
		chromedp.Flag("no-sandbox", os.Geteuid() == 0),
		chromedp.WindowSize(1350, 940),
	)

	// The browser outlives any single call, so it hangs off Background
	// and is torn down in Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	if err := ctx.Err(); err != nil {
		cancel()
		allocCancel()
		return nil, err
	}

	// First Run starts the browser and binds it to browserCtx, so it must
	// not carry a deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome failed: %w", err)
	}

	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}

	return &ChromePage{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		navTimeout:  navTimeout,
	}, nil
}

// scoped derives a context from the browser tab that honours the caller's
// deadline and cancellation.
func (p *ChromePage) scoped(ctx context.Context, fallback time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(p.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		prev := cancel
		cancel = func() { cancelDeadline(); prev() }
	} else if fallback > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, fallback)
		prev := cancel
		cancel = func() { cancelTimeout(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *ChromePage) Goto(ctx context.Context, url string) error {
	ctx, cancelNav := navDeadline(ctx, p.navTimeout)
	defer cancelNav()
	runCtx, cancel := p.scoped(ctx, 0)
	defer cancel()

	// Lifecycle events of the previous document can still be in flight,
	// so networkIdle only counts after the new document's init.
	var started atomic.Bool
	idle := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(runCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			started.Store(true)
		case "networkIdle":
			if started.Load() {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}
	})

	err := chromedp.Run(runCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return nil
}

func (p *ChromePage) WaitVisible(ctx context.Context, selector string) error {
	runCtx, cancel := p.scoped(ctx, 0)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *ChromePage) Exists(ctx context.Context, selector string) (bool, error) {
	runCtx, cancel := p.scoped(ctx, 0)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (p *ChromePage) ScrollIntoView(ctx context.Context, selector string) error {
	runCtx, cancel := p.scoped(ctx, 0)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

func (p *ChromePage) IsVisible(ctx context.Context, selector string) (bool, error) {
	runCtx, cancel := p.scoped(ctx, 0)
	defer cancel()

	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el || !el.getBoundingClientRect) return false;
		if (el.getAttribute('aria-hidden') === 'true') return false;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 &&
			style.visibility !== 'hidden' &&
			style.display !== 'none' &&
			style.opacity !== '0';
	})()`, quoted)

	var visible bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (p *ChromePage) TextContent(ctx context.Context, selector string) (string, error) {
	runCtx, cancel := p.scoped(ctx, 0)
	defer cancel()

	var text string
	if err := chromedp.Run(runCtx, chromedp.TextContent(selector, &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return text, nil
}

func (p *ChromePage) Close() error {
	p.cancel()
	p.allocCancel()
	return nil
}
