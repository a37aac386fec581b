package report

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nbenliogludev/pagespeed-advisor/internal/browser"
)

const (
	DefaultElementTimeout = 60 * time.Second
	DefaultScrollTimeout  = 60 * time.Second
)

// Extractor reads the metric table out of a loaded report page.
type Extractor struct {
	ElementTimeout time.Duration
	ScrollTimeout  time.Duration
	Logger         *log.Logger
}

// NewExtractor returns an extractor with the default timeouts. A nil
// logger discards output.
func NewExtractor(logger *log.Logger) *Extractor {
	return &Extractor{
		ElementTimeout: DefaultElementTimeout,
		ScrollTimeout:  DefaultScrollTimeout,
		Logger:         logger,
	}
}

// Extract returns a value for every entry of Metrics. Failures are
// recorded as "Error: ..." values and never returned.
func (e *Extractor) Extract(ctx context.Context, page browser.Page, mode Mode) Data {
	logger := e.logger()
	data := make(Data, len(Metrics))

	for _, m := range Metrics {
		selector := mode.Selector(m)

		value, err := e.extractOne(ctx, page, selector)
		if err != nil {
			value = ErrorPrefix + ": " + err.Error()
		}
		if IsError(value) {
			logger.Warn("metric extraction failed",
				"mode", mode.Name, "key", m.Key, "selector", selector, "reason", value)
		}

		data[m.Key] = value
	}

	logger.Info("extracted report", "mode", mode.Name,
		"metrics", len(data), "failed", len(data.Failed()))
	return data
}

func (e *Extractor) extractOne(ctx context.Context, page browser.Page, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// A failed wait is not final: the element may exist but be hidden,
	// and that is reported more precisely below.
	waitCtx, cancel := context.WithTimeout(ctx, orDefault(e.ElementTimeout, DefaultElementTimeout))
	waitErr := page.WaitVisible(waitCtx, selector)
	cancel()
	if waitErr != nil {
		e.logger().Debug("element did not become visible", "selector", selector, "error", waitErr)
	}

	readCtx, cancel := context.WithTimeout(ctx, orDefault(e.ElementTimeout, DefaultElementTimeout))
	defer cancel()

	found, err := page.Exists(readCtx, selector)
	if err != nil {
		return "", err
	}
	if !found {
		return ErrNotFound, nil
	}

	scrollCtx, cancelScroll := context.WithTimeout(ctx, orDefault(e.ScrollTimeout, DefaultScrollTimeout))
	err = page.ScrollIntoView(scrollCtx, selector)
	cancelScroll()
	if err != nil {
		return "", err
	}

	visible, err := page.IsVisible(readCtx, selector)
	if err != nil {
		return "", err
	}
	if !visible {
		return ErrNotVisible, nil
	}

	text, err := page.TextContent(readCtx, selector)
	if err != nil {
		return "", err
	}
	if text = strings.TrimSpace(text); text == "" {
		return NoContent, nil
	}
	return text, nil
}

func (e *Extractor) logger() *log.Logger {
	if e.Logger == nil {
		return log.New(io.Discard)
	}
	return e.Logger
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
