package llm

import (
	"strings"
	"text/template"

	"github.com/nbenliogludev/pagespeed-advisor/internal/report"
)

const SystemPrompt = "You are a helpful web performance optimization expert."

var promptTemplate = template.Must(template.New("prompt").Parse(`
Act like an expert web performance consultant. I am running a Shopify website and I'm a beginner developer.

Below is a {{.Device}} Lighthouse report for my site: {{.URL}}

Please give me a step-by-step improvement plan, divided into:
1. Performance
2. Accessibility
3. Best Practices
4. SEO

Explain:
- What each issue means
- Why it matters
- How exactly to fix it (show code examples, settings, etc.)

---

**Performance Report:**
- Score: {{.Data.Value "perf_mob"}}
- LCP: {{.Data.Value "lcp"}}
- CLS: {{.Data.Value "cls"}}
- FCP: {{.Data.Value "fcp"}}
- Speed Index: {{.Data.Value "si"}}
- Total Blocking Time: {{.Data.Value "tbt"}}
- Diagnostics: {{.Data.Value "diag"}}
- Insights: {{.Data.Value "perf_insights"}}
- Passed Audits: {{.Data.Value "perf_passed"}}

---

**Accessibility Report:**
- Score: {{.Data.Value "access_score"}}
- Color Contrast: {{.Data.Value "color_cont"}}
- ARIA: {{.Data.Value "aria"}}
- Navigation: {{.Data.Value "navigation"}}
- Labels & Forms: {{.Data.Value "namesNlabel"}}
- Best Practices: {{.Data.Value "best_prac"}}
- Passed Audits: {{.Data.Value "access_passed"}}

---

**Best Practices Report:**
- Score: {{.Data.Value "bp_score"}}
- General: {{.Data.Value "bp_gen"}}
- UX: {{.Data.Value "bp_ux"}}
- Trust & Safety: {{.Data.Value "bp_ts"}}
- Passed Audits: {{.Data.Value "bp_passed"}}

---

**SEO Report:**
- Score: {{.Data.Value "seo_score"}}
- Crawl Issues: {{.Data.Value "seo_crawl"}}
- Content Issues: {{.Data.Value "seo_bp"}}
- Passed Audits: {{.Data.Value "seo_passed"}}
`))

// BuildPrompt renders the improvement-plan request for one form factor.
// Missing and failed metrics read "N/A".
func BuildPrompt(device string, data report.Data, url string) string {
	if data == nil {
		data = report.Data{}
	}

	var sb strings.Builder
	// Value never fails and strings.Builder never returns a write error.
	_ = promptTemplate.Execute(&sb, struct {
		Device string
		URL    string
		Data   report.Data
	}{device, url, data})
	return sb.String()
}
