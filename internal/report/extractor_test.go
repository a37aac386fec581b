package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/pagespeed-advisor/internal/browser"
)

func staticPage(t *testing.T, html string) *browser.StaticPage {
	t.Helper()
	page, err := browser.NewStaticPage(strings.NewReader(html))
	require.NoError(t, err)
	return page
}

func TestExtract_OnlyScoreVisible(t *testing.T) {
	page := staticPage(t, `<html><body>
		<div aria-labelledby="mobile_tab">
			<div class="lh-exp-gauge__percentage"> 92 </div>
		</div>
	</body></html>`)

	data := NewExtractor(nil).Extract(context.Background(), page, MobileMode)

	require.Len(t, data, len(Metrics))
	assert.Equal(t, "92", data["perf_mob"])
	for _, key := range Keys() {
		if key == "perf_mob" {
			continue
		}
		assert.Equal(t, ErrNotFound, data[key], key)
	}
	assert.Len(t, data.Failed(), len(Metrics)-1)
}

func TestExtract_KeySetIsExact(t *testing.T) {
	page := staticPage(t, `<html><body></body></html>`)

	data := NewExtractor(nil).Extract(context.Background(), page, DesktopMode)

	require.Len(t, data, 25)
	for _, key := range Keys() {
		v, ok := data[key]
		require.True(t, ok, "missing key %s", key)
		assert.NotEmpty(t, v)
	}
}

func TestExtract_EmptyAndHidden(t *testing.T) {
	page := staticPage(t, `<html><body>
		<div aria-labelledby="mobile_tab">
			<div class="lh-metric" id="largest-contentful-paint">   </div>
			<div style="display: none">
				<div class="lh-metric" id="cumulative-layout-shift">0.01</div>
			</div>
			<div class="lh-metric" id="speed-index" hidden>1.2 s</div>
			<div class="lh-metric" id="total-blocking-time">Total Blocking Time 30 ms</div>
		</div>
	</body></html>`)

	data := NewExtractor(nil).Extract(context.Background(), page, MobileMode)

	assert.Equal(t, NoContent, data["lcp"])
	assert.Equal(t, ErrNotVisible, data["cls"])
	assert.Equal(t, ErrNotVisible, data["si"])
	assert.Equal(t, "Total Blocking Time 30 ms", data["tbt"])
}

func TestExtract_ModePrefixScopesSelectors(t *testing.T) {
	page := staticPage(t, `<html><body>
		<div aria-labelledby="mobile_tab">
			<div class="lh-exp-gauge__percentage">41</div>
			<div class="lh-category" id="seo"><span class="lh-gauge__percentage">83</span></div>
		</div>
		<div aria-labelledby="desktop_tab">
			<div class="lh-exp-gauge__percentage">97</div>
			<div class="lh-category" id="seo"><span class="lh-gauge__percentage">100</span></div>
		</div>
	</body></html>`)
	ex := NewExtractor(nil)

	mobile := ex.Extract(context.Background(), page, MobileMode)
	desktop := ex.Extract(context.Background(), page, DesktopMode)

	assert.Equal(t, "41", mobile["perf_mob"])
	assert.Equal(t, "83", mobile["seo_score"])
	assert.Equal(t, "97", desktop["perf_mob"])
	assert.Equal(t, "100", desktop["seo_score"])
}

// fakePage answers from a selector->text table. Selectors listed in
// timeouts block until the caller's deadline.
type fakePage struct {
	texts    map[string]string
	timeouts map[string]bool
	textErrs map[string]error
}

func (p *fakePage) Goto(ctx context.Context, url string) error { return nil }

func (p *fakePage) WaitVisible(ctx context.Context, selector string) error {
	if p.timeouts[selector] {
		<-ctx.Done()
		return ctx.Err()
	}
	if _, ok := p.texts[selector]; !ok {
		return browser.ErrNoMatch
	}
	return nil
}

func (p *fakePage) Exists(ctx context.Context, selector string) (bool, error) {
	if p.timeouts[selector] {
		return false, fmt.Errorf("locating %s: %w", selector, context.DeadlineExceeded)
	}
	_, ok := p.texts[selector]
	return ok, nil
}

func (p *fakePage) ScrollIntoView(ctx context.Context, selector string) error { return nil }

func (p *fakePage) IsVisible(ctx context.Context, selector string) (bool, error) { return true, nil }

func (p *fakePage) TextContent(ctx context.Context, selector string) (string, error) {
	if err := p.textErrs[selector]; err != nil {
		return "", err
	}
	return p.texts[selector], nil
}

func (p *fakePage) Close() error { return nil }

func TestExtract_TimeoutDoesNotStopOtherKeys(t *testing.T) {
	page := &fakePage{
		texts:    map[string]string{},
		timeouts: map[string]bool{MobileMode.Selector(Metrics[1]): true},
	}
	for i, m := range Metrics {
		if i != 1 {
			page.texts[MobileMode.Selector(m)] = "value-" + m.Key
		}
	}

	var buf bytes.Buffer
	ex := NewExtractor(log.New(&buf))
	ex.ElementTimeout = 20 * time.Millisecond

	data := ex.Extract(context.Background(), page, MobileMode)

	require.Len(t, data, len(Metrics))
	assert.True(t, strings.HasPrefix(data["lcp"], "Error: "), data["lcp"])
	assert.Contains(t, data["lcp"], context.DeadlineExceeded.Error())
	for i, m := range Metrics {
		if i != 1 {
			assert.Equal(t, "value-"+m.Key, data[m.Key])
		}
	}
	assert.Equal(t, []string{"lcp"}, data.Failed())
	assert.Contains(t, buf.String(), "lcp")
}

func TestExtract_ReadErrorIsRecorded(t *testing.T) {
	sel := DesktopMode.Selector(Metrics[0])
	page := &fakePage{
		texts:    map[string]string{sel: "x"},
		textErrs: map[string]error{sel: errors.New("node detached")},
	}

	data := NewExtractor(nil).Extract(context.Background(), page, DesktopMode)

	assert.Equal(t, "Error: node detached", data["perf_mob"])
}

func TestExtract_CancelledContextStillFillsKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := NewExtractor(nil).Extract(ctx, staticPage(t, `<html></html>`), MobileMode)

	require.Len(t, data, len(Metrics))
	for _, v := range data {
		assert.Equal(t, "Error: "+context.Canceled.Error(), v)
	}
}
