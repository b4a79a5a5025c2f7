package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/webgrab/config"
	"github.com/use-agent/webgrab/extract"
	"github.com/use-agent/webgrab/format"
	"github.com/use-agent/webgrab/models"
	"github.com/use-agent/webgrab/pipeline"
)

var (
	articleURL          string
	articleFormat       string
	articleDelay        int
	articleUserAgent    string
	articleIgnoreRobots bool
	articleRender       bool
)

var articleCmd = &cobra.Command{
	Use:   "article -u URL [flags]",
	Short: "Extract the main article from a page instead of applying a selector.",
	Long: `article fetches a page with the same robots.txt etiquette and courtesy
delay as a normal scrape, then locates the main content with the Mozilla
Readability algorithm and prints it as plain text or Markdown.`,
	RunE: runArticle,
}

func init() {
	articleCmd.Flags().StringVarP(&articleURL, "url", "u", "", "the URL to extract from")
	articleCmd.Flags().StringVarP(&articleFormat, "format", "f", models.FormatText, "output format: 'text' or 'markdown'")
	articleCmd.Flags().IntVarP(&articleDelay, "delay", "d", config.DefaultDelayMs, "delay before the fetch in milliseconds")
	articleCmd.Flags().StringVar(&articleUserAgent, "user-agent", models.DefaultUserAgent, "custom User-Agent header")
	articleCmd.Flags().BoolVar(&articleIgnoreRobots, "ignore-robots", false, "ignore robots.txt rules")
	articleCmd.Flags().BoolVar(&articleRender, "render", false, "fetch through a headless browser")

	_ = articleCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(articleCmd)
}

func runArticle(cmd *cobra.Command, _ []string) error {
	if articleFormat != models.FormatText && articleFormat != models.FormatMarkdown {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown output format: %q (want text or markdown)", articleFormat), nil)
	}

	req := &models.ScrapeRequest{
		URL:          articleURL,
		Format:       articleFormat,
		DelayMs:      articleDelay,
		UserAgent:    articleUserAgent,
		IgnoreRobots: articleIgnoreRobots,
		Render:       articleRender,
	}
	req.Defaults()
	if err := req.Validate(); err != nil {
		return err
	}

	page, _, err := pipeline.FetchPage(cmd.Context(), req)
	if err != nil {
		return err
	}

	article, err := extract.MainContent(string(page.Body), req.URL)
	if err != nil {
		return err
	}

	if articleFormat == models.FormatMarkdown {
		out, err := format.ArticleMarkdown(article.Title, article.Content, req.URL)
		if err != nil {
			return err
		}
		fmt.Println(strings.TrimRight(out, "\n"))
		return nil
	}

	if article.Title != "" {
		fmt.Println(article.Title)
		fmt.Println()
	}
	fmt.Println(strings.TrimSpace(article.TextContent))
	return nil
}
