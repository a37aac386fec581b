package report

import (
	"net/url"
	"strings"
)

// Values recorded in place of a metric that could not be read.
const (
	NoContent     = "No content"
	ErrorPrefix   = "Error"
	ErrNotFound   = "Error: Element not found"
	ErrNotVisible = "Error: Element is not visible"

	// NotAvailable stands in for missing or failed values in prompts.
	NotAvailable = "N/A"
)

const DefaultReportBase = "https://pagespeed.web.dev/analysis"

// Data maps metric keys to the text scraped for one form factor.
type Data map[string]string

// Value returns the recorded value for key, or NotAvailable when the key
// is absent or holds an error marker.
func (d Data) Value(key string) string {
	v, ok := d[key]
	if !ok || IsError(v) {
		return NotAvailable
	}
	return v
}

// Failed returns the keys holding error markers, in table order.
func (d Data) Failed() []string {
	var failed []string
	for _, key := range Keys() {
		if v, ok := d[key]; ok && IsError(v) {
			failed = append(failed, key)
		}
	}
	return failed
}

// IsError reports whether v is a recorded extraction failure.
func IsError(v string) bool {
	return strings.HasPrefix(v, ErrorPrefix)
}

// CombinedResult is everything one run produces.
type CombinedResult struct {
	URL           string `json:"url" yaml:"url"`
	Mobile        Data   `json:"mobile" yaml:"mobile"`
	Desktop       Data   `json:"desktop" yaml:"desktop"`
	MobileAdvice  string `json:"mobile_advice" yaml:"mobile_advice"`
	DesktopAdvice string `json:"desktop_advice" yaml:"desktop_advice"`
}

// ReportURL builds the mobile report address for target.
func ReportURL(base, target string) string {
	if base == "" {
		base = DefaultReportBase
	}
	return base + "?url=" + url.QueryEscape(target) + "&form_factor=mobile"
}

// DesktopURL flips the form factor of a mobile report URL. Only the last
// form_factor or mode parameter is touched; the rest of the string,
// including an unescaped target, is left as is.
func DesktopURL(mobileURL string) string {
	at, valueAt := -1, -1
	for _, param := range []string{"form_factor=", "mode="} {
		for _, sep := range []string{"?", "&"} {
			needle := sep + param + "mobile"
			i := strings.LastIndex(mobileURL, needle)
			if i < 0 || i < at {
				continue
			}
			end := i + len(needle)
			if end < len(mobileURL) && mobileURL[end] != '&' && mobileURL[end] != '#' {
				continue
			}
			at, valueAt = i, i+len(sep)+len(param)
		}
	}
	if at < 0 {
		return mobileURL
	}
	return mobileURL[:valueAt] + "desktop" + mobileURL[valueAt+len("mobile"):]
}
