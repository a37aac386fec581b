package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/nbenliogludev/pagespeed-advisor/internal/config"
	"github.com/nbenliogludev/pagespeed-advisor/internal/report"
)

const previewLimit = 80

// Reporter renders a CombinedResult for people (text) or tools (json, yaml).
type Reporter struct {
	out      io.Writer
	format   string
	heading  *color.Color
	failure  *color.Color
	markdown *glamour.TermRenderer
}

// NewReporter builds a reporter. styled enables colors and terminal
// markdown; width is the wrap width for advice text.
func NewReporter(out io.Writer, format string, styled bool, width int) (*Reporter, error) {
	switch format {
	case config.FormatText, config.FormatJSON, config.FormatYAML:
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}

	r := &Reporter{
		out:     out,
		format:  format,
		heading: color.New(color.FgCyan, color.Bold),
		failure: color.New(color.FgYellow),
	}
	if !styled {
		r.heading.DisableColor()
		r.failure.DisableColor()
	}

	if format == config.FormatText {
		style := "notty"
		if styled {
			style = "dark"
		}
		if width <= 0 {
			width = 100
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		r.markdown = md
	}

	return r, nil
}

func (r *Reporter) Print(res *report.CombinedResult) error {
	switch r.format {
	case config.FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case config.FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.printText(res)
	}
}

func (r *Reporter) printText(res *report.CombinedResult) error {
	var sb strings.Builder

	sb.WriteString(r.heading.Sprint("===== PAGESPEED REPORT =====") + "\n")
	fmt.Fprintf(&sb, "URL: %s\n", res.URL)

	r.writeMetrics(&sb, "Mobile Metrics", res.Mobile)
	r.writeMetrics(&sb, "Desktop Metrics", res.Desktop)

	if res.MobileAdvice != "" || res.DesktopAdvice != "" {
		if err := r.writeAdvice(&sb, "Mobile Optimization Advice", res.MobileAdvice); err != nil {
			return err
		}
		if err := r.writeAdvice(&sb, "Desktop Optimization Advice", res.DesktopAdvice); err != nil {
			return err
		}
	}

	sb.WriteString(r.heading.Sprint("===== END OF REPORT =====") + "\n")

	_, err := io.WriteString(r.out, sb.String())
	return err
}

func (r *Reporter) writeMetrics(sb *strings.Builder, title string, data report.Data) {
	sb.WriteString("\n" + r.heading.Sprintf("--- %s ---", title) + "\n")

	category := ""
	for _, m := range report.Metrics {
		if m.Category != category {
			category = m.Category
			fmt.Fprintf(sb, "%s:\n", category)
		}
		v, ok := data[m.Key]
		if !ok {
			v = report.NotAvailable
		}
		line := fmt.Sprintf("  %-14s %s", m.Key, preview(v))
		if report.IsError(v) {
			line = r.failure.Sprint(line)
		}
		sb.WriteString(line + "\n")
	}

	if failed := data.Failed(); len(failed) > 0 {
		fmt.Fprintf(sb, "(%d of %d metrics failed: %s)\n",
			len(failed), len(report.Metrics), strings.Join(failed, ", "))
	}
}

func (r *Reporter) writeAdvice(sb *strings.Builder, title, advice string) error {
	sb.WriteString("\n" + r.heading.Sprintf("--- %s ---", title) + "\n\n")

	rendered, err := r.markdown.Render(advice)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	sb.WriteString(rendered)
	return nil
}

// preview collapses whitespace and keeps the first previewLimit runes.
func preview(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	runes := []rune(v)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit]) + "..."
	}
	return v
}
