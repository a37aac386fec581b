package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	LoadStateLoad             = "load"
	LoadStateDomcontentloaded = "domcontentloaded"
	LoadStateNetworkidle      = "networkidle"
)

const defaultNavigationTimeout = 90 * time.Second

// Manager drives a headless Chromium through playwright.
type Manager struct {
	pw         *playwright.Playwright
	Browser    playwright.Browser
	Page       playwright.Page
	navTimeout time.Duration
}

func NewManager(opts Options) (*Manager, error) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return nil, fmt.Errorf("install pw failed: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start pw failed: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium failed: %w", err)
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: 1350, Height: 940},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}

	page.SetDefaultTimeout(60000)
	page.SetDefaultNavigationTimeout(float64(navTimeout.Milliseconds()))

	return &Manager{
		pw:         pw,
		Browser:    browser,
		Page:       page,
		navTimeout: navTimeout,
	}, nil
}

func (m *Manager) Goto(ctx context.Context, url string) error {
	ctx, cancel := navDeadline(ctx, m.navTimeout)
	defer cancel()

	if _, err := m.Page.Goto(url, playwright.PageGotoOptions{
		Timeout: millis(ctx, m.navTimeout),
	}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	state := playwright.LoadState(LoadStateNetworkidle)
	if err := m.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &state,
		Timeout: millis(ctx, m.navTimeout),
	}); err != nil {
		return fmt.Errorf("%w: %s never went idle: %w", ErrNavigation, url, err)
	}
	return nil
}

func (m *Manager) WaitVisible(ctx context.Context, selector string) error {
	return m.Page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(ctx, 0),
	})
}

func (m *Manager) Exists(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n, err := m.Page.Locator(selector).Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *Manager) ScrollIntoView(ctx context.Context, selector string) error {
	return m.Page.Locator(selector).First().ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: millis(ctx, 0),
	})
}

func (m *Manager) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return m.Page.Locator(selector).First().IsVisible()
}

func (m *Manager) TextContent(ctx context.Context, selector string) (string, error) {
	return m.Page.Locator(selector).First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: millis(ctx, 0),
	})
}

func (m *Manager) Close() error {
	var firstErr error
	if m.Browser != nil {
		if err := m.Browser.Close(); err != nil {
			firstErr = err
		}
	}
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
