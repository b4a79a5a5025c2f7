package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/webgrab/config"
	"github.com/use-agent/webgrab/format"
	"github.com/use-agent/webgrab/models"
	"github.com/use-agent/webgrab/pipeline"
)

var (
	flagURL          string
	flagSelector     string
	flagFormat       string
	flagDelay        int
	flagUserAgent    string
	flagIgnoreRobots bool
	flagRender       bool
	flagImpersonate  bool
	flagLogLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "webgrab -u URL -s SELECTOR [flags]",
	Short: "Fetch a single web page, apply a CSS selector and print the matches.",
	Long: `webgrab fetches one web page, applies a CSS selector to the parsed
document and prints the matched elements as text, JSON or Markdown.

It checks robots.txt before fetching (fail-open when the file cannot be
retrieved) and pauses for a courtesy delay before issuing the request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.SetupLogging(flagLogLevel)
	},
	RunE: runScrape,
}

func init() {
	rootCmd.Flags().StringVarP(&flagURL, "url", "u", "", "the URL to scrape")
	rootCmd.Flags().StringVarP(&flagSelector, "selector", "s", "", "CSS selector to extract elements (e.g. 'h1', '.price', 'a.link')")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", models.FormatText, "output format: 'text', 'json' or 'markdown'")
	rootCmd.Flags().IntVarP(&flagDelay, "delay", "d", config.DefaultDelayMs, "delay before the fetch in milliseconds")
	rootCmd.Flags().StringVar(&flagUserAgent, "user-agent", models.DefaultUserAgent, "custom User-Agent header")
	rootCmd.Flags().BoolVar(&flagIgnoreRobots, "ignore-robots", false, "ignore robots.txt rules")
	rootCmd.Flags().BoolVar(&flagRender, "render", false, "fetch through a headless browser (for JavaScript-heavy pages)")
	rootCmd.Flags().BoolVar(&flagImpersonate, "impersonate", false, "present a Chrome TLS fingerprint on the fetch")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "diagnostic log level: debug, info, warn or error")

	_ = rootCmd.MarkFlagRequired("url")
	_ = rootCmd.MarkFlagRequired("selector")
}

func runScrape(cmd *cobra.Command, _ []string) error {
	req := &models.ScrapeRequest{
		URL:          flagURL,
		Selector:     flagSelector,
		Format:       flagFormat,
		DelayMs:      flagDelay,
		UserAgent:    flagUserAgent,
		IgnoreRobots: flagIgnoreRobots,
		Render:       flagRender,
		Impersonate:  flagImpersonate,
	}

	outcome, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	// Zero matches is a success with an empty result, but worth a note on
	// stderr so nobody mistakes an empty report for a broken page.
	if len(outcome.Result.Results) == 0 {
		fmt.Fprintf(os.Stderr, "warning: no elements matched selector %q on %s\n", req.Selector, req.URL)
	}

	out, err := format.Render(outcome.Result, req.Format, outcome.MatchedHTML)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimRight(out, "\n"))
	return nil
}

// ExecuteContext runs the CLI. Any pipeline failure is printed to stderr and
// mapped to exit code 1; success (including the zero-match case) exits 0.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
