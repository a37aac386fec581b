package audit

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nbenliogludev/pagespeed-advisor/internal/browser"
	"github.com/nbenliogludev/pagespeed-advisor/internal/llm"
	"github.com/nbenliogludev/pagespeed-advisor/internal/report"
)

var ErrAdvice = errors.New("advice request failed")

// Opener acquires the page both extraction passes share.
type Opener func(ctx context.Context) (browser.Page, error)

type Orchestrator struct {
	Open       Opener
	Extractor  *report.Extractor
	Advisor    llm.Client
	ReportBase string
	// SaveSnapshot, when set, receives the rendered report page after the
	// desktop pass so the run can be replayed with the static backend.
	SaveSnapshot string
	Logger       *log.Logger
}

// NewOrchestrator wires a run. A nil advisor makes Run stop after
// extraction.
func NewOrchestrator(open Opener, advisor llm.Client, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{
		Open:       open,
		Extractor:  report.NewExtractor(logger),
		Advisor:    advisor,
		ReportBase: report.DefaultReportBase,
		Logger:     logger,
	}
}

// Run scrapes both form factors, then asks for advice on each.
// Navigation and advice failures abort the run; metric failures are
// carried inside the returned data.
func (o *Orchestrator) Run(ctx context.Context, target string) (*report.CombinedResult, error) {
	mobile, desktop, err := o.Collect(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &report.CombinedResult{
		URL:     target,
		Mobile:  mobile,
		Desktop: desktop,
	}
	if o.Advisor == nil {
		return result, nil
	}

	// The two requests share nothing, so they go out together.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		advice, err := o.advise(gctx, report.MobileMode.Name, mobile, target)
		result.MobileAdvice = advice
		return err
	})
	g.Go(func() error {
		advice, err := o.advise(gctx, report.DesktopMode.Name, desktop, target)
		result.DesktopAdvice = advice
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// Collect runs both extraction passes on one page. The page is closed
// before Collect returns, whatever happened.
func (o *Orchestrator) Collect(ctx context.Context, target string) (mobile, desktop report.Data, err error) {
	logger := o.logger()

	page, err := o.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			logger.Warn("closing browser failed", "error", cerr)
		}
	}()

	mobileURL := report.ReportURL(o.ReportBase, target)
	if err := o.navigate(ctx, page, report.MobileMode, mobileURL); err != nil {
		return nil, nil, err
	}
	mobile = o.extractor().Extract(ctx, page, report.MobileMode)

	desktopURL := report.DesktopURL(mobileURL)
	if err := o.navigate(ctx, page, report.DesktopMode, desktopURL); err != nil {
		return nil, nil, err
	}
	desktop = o.extractor().Extract(ctx, page, report.DesktopMode)

	if o.SaveSnapshot != "" {
		if err := browser.SaveSnapshot(ctx, page, o.SaveSnapshot); err != nil {
			logger.Warn("saving snapshot failed", "error", err)
		} else {
			logger.Info("snapshot saved", "path", o.SaveSnapshot)
		}
	}

	return mobile, desktop, nil
}

func (o *Orchestrator) navigate(ctx context.Context, page browser.Page, mode report.Mode, url string) error {
	o.logger().Info("scraping report", "mode", mode.Name, "url", url)
	if err := page.Goto(ctx, url); err != nil {
		if errors.Is(err, browser.ErrNavigation) {
			return fmt.Errorf("%s report: %w", mode.Name, err)
		}
		return fmt.Errorf("%s report: %w: %w", mode.Name, browser.ErrNavigation, err)
	}
	return nil
}

func (o *Orchestrator) advise(ctx context.Context, device string, data report.Data, target string) (string, error) {
	prompt := llm.BuildPrompt(device, data, target)
	o.logger().Info("requesting advice", "mode", device, "prompt_chars", len(prompt))

	advice, err := o.Advisor.Advise(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w (%s): %w", ErrAdvice, device, err)
	}

	o.logger().Info("advice received", "mode", device, "chars", len(advice))
	return advice, nil
}

func (o *Orchestrator) extractor() *report.Extractor {
	if o.Extractor == nil {
		o.Extractor = report.NewExtractor(o.logger())
	}
	return o.Extractor
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}
