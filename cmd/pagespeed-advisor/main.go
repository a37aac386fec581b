package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/nbenliogludev/pagespeed-advisor/internal/audit"
	"github.com/nbenliogludev/pagespeed-advisor/internal/browser"
	"github.com/nbenliogludev/pagespeed-advisor/internal/config"
	"github.com/nbenliogludev/pagespeed-advisor/internal/llm"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "pagespeed-advisor [flags] <url>",
		Short: "Scrape a PageSpeed Insights report and ask an LLM for an improvement plan",
		Long: `pagespeed-advisor opens the PageSpeed Insights report for a site in a
headless browser, reads the Lighthouse metrics for mobile and desktop and
asks an OpenAI chat model for a step-by-step improvement plan.

The API key is read from OPENAI_API_KEY.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml)")
	f.String("backend", browser.BackendPlaywright, "browser backend: playwright, chromedp or static")
	f.Bool("headless", true, "run the browser without a window")
	f.String("snapshot", "", "read a saved report page instead of browsing (implies --backend static)")
	f.String("save-snapshot", "", "save the rendered report page for later --snapshot runs")
	f.String("model", llm.DefaultModel, "chat model used for advice")
	f.Int("max-tokens", llm.DefaultMaxTokens, "maximum tokens per advice response")
	f.String("report-base-url", "", "PageSpeed analysis page")
	f.Duration("element-timeout", 60*time.Second, "how long to wait for each metric element")
	f.Duration("navigation-timeout", 90*time.Second, "how long to wait for a report page to load")
	f.Duration("advice-timeout", 3*time.Minute, "how long to wait for each advice response")
	f.Bool("skip-advice", false, "only scrape metrics; no API key needed")
	f.StringP("format", "f", config.FormatText, "output format: text, json or yaml")
	f.StringP("output", "o", "", "write the report to a file instead of stdout")
	f.String("log-level", "info", "log level: debug, info, warn, error")

	for _, name := range []string{
		"backend", "headless", "snapshot", "save-snapshot", "model", "max-tokens", "report-base-url",
		"element-timeout", "navigation-timeout", "advice-timeout", "skip-advice",
		"format", "output", "log-level",
	} {
		bindFlag(v, cmd, name)
	}

	return cmd
}

// bindFlag maps --some-flag to the some_flag config key. Only flags the
// user actually set override file and environment values.
func bindFlag(v *viper.Viper, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(flagKey(name), cmd.Flags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func run(ctx context.Context, cfg *config.Config, target string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "psa",
	})

	signals := audit.NewSignalController()
	defer signals.Close()
	ctx, cancel := signals.WithCancel(ctx)
	defer cancel()

	var advisor llm.Client
	if !cfg.SkipAdvice {
		client, err := llm.NewOpenAIClient(cfg.LLM())
		if err != nil {
			return fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		advisor = client
	}

	opts := cfg.Browser()
	orch := audit.NewOrchestrator(func(ctx context.Context) (browser.Page, error) {
		return browser.Open(ctx, opts)
	}, advisor, logger)
	orch.Extractor.ElementTimeout = cfg.ElementTimeout
	orch.SaveSnapshot = cfg.SaveSnapshot
	if cfg.ReportBaseURL != "" {
		orch.ReportBase = cfg.ReportBaseURL
	}

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	var spin *spinner.Spinner
	if interactive {
		spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = " analysing " + target
		spin.Start()
	}

	logger.Info("starting analysis", "url", target, "backend", opts.Backend)
	result, err := orch.Run(ctx, target)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("interrupted: %w", err)
		}
		return err
	}

	out := io.Writer(os.Stdout)
	styled := cfg.Output == "" && term.IsTerminal(int(os.Stdout.Fd()))
	width := 100
	if styled {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 4 {
			width = min(w-4, 120)
		}
	}
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	reporter, err := audit.NewReporter(out, cfg.Format, styled, width)
	if err != nil {
		return err
	}
	if err := reporter.Print(result); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.Output != "" {
		logger.Info("report written", "path", cfg.Output)
	}
	return nil
}
