package report

// Report categories, in the order they are printed.
const (
	CategoryPerformance   = "performance"
	CategoryAccessibility = "accessibility"
	CategoryBestPractices = "best-practices"
	CategorySEO           = "seo"
)

// Metric is one scraped field of the Lighthouse report. Selector is a
// suffix; it is scoped under a Mode prefix at extraction time.
type Metric struct {
	Key      string
	Category string
	Selector string
}

// Mode scopes selectors to the mobile or desktop tab of the report.
type Mode struct {
	Name   string
	Prefix string
}

var (
	MobileMode  = Mode{Name: "mobile", Prefix: `[aria-labelledby="mobile_tab"]`}
	DesktopMode = Mode{Name: "desktop", Prefix: `[aria-labelledby="desktop_tab"]`}
)

// Selector returns the full CSS selector for m under mode.
func (mode Mode) Selector(m Metric) string {
	return mode.Prefix + " " + m.Selector
}

// Metrics is extracted in order. perf_mob is the performance score for
// both modes; the key name predates desktop support.
var Metrics = []Metric{
	{"perf_mob", CategoryPerformance, ".lh-exp-gauge__percentage"},
	{"lcp", CategoryPerformance, ".lh-metric#largest-contentful-paint"},
	{"cls", CategoryPerformance, ".lh-metric#cumulative-layout-shift"},
	{"si", CategoryPerformance, ".lh-metric#speed-index"},
	{"tbt", CategoryPerformance, ".lh-metric#total-blocking-time"},
	{"fcp", CategoryPerformance, ".lh-metric#first-contentful-paint"},
	{"perf_insights", CategoryPerformance, ".lh-audit-group--insights"},
	{"diag", CategoryPerformance, ".lh-audit-group--diagnostics"},
	{"perf_passed", CategoryPerformance, ".lh-category#performance .lh-clump--passed"},

	{"access_score", CategoryAccessibility, ".lh-category#accessibility .lh-gauge__percentage"},
	{"namesNlabel", CategoryAccessibility, ".lh-audit-group--a11y-names-labels"},
	{"best_prac", CategoryAccessibility, ".lh-audit-group--a11y-best-practices"},
	{"color_cont", CategoryAccessibility, ".lh-audit-group--a11y-color-contrast"},
	{"aria", CategoryAccessibility, ".lh-audit-group--a11y-aria"},
	{"navigation", CategoryAccessibility, ".lh-audit-group--a11y-navigation"},
	{"access_passed", CategoryAccessibility, ".lh-category#accessibility .lh-clump--passed"},

	{"bp_score", CategoryBestPractices, ".lh-category#best-practices .lh-gauge__percentage"},
	{"bp_gen", CategoryBestPractices, ".lh-audit-group--best-practices-general"},
	{"bp_ux", CategoryBestPractices, ".lh-audit-group--best-practices-ux"},
	{"bp_ts", CategoryBestPractices, ".lh-audit-group--best-practices-trust-safety"},
	{"bp_passed", CategoryBestPractices, ".lh-category#best-practices .lh-clump--passed"},

	{"seo_score", CategorySEO, ".lh-category#seo .lh-gauge__percentage"},
	{"seo_crawl", CategorySEO, ".lh-audit-group--seo-crawl"},
	{"seo_bp", CategorySEO, ".lh-audit-group--seo-content"},
	{"seo_passed", CategorySEO, ".lh-category#seo .lh-clump--passed"},
}

// Keys lists the metric keys in table order.
func Keys() []string {
	keys := make([]string, len(Metrics))
	for i, m := range Metrics {
		keys[i] = m.Key
	}
	return keys
}
