// webgrab-mcp exposes the scrape pipeline as an MCP tool over stdio, so
// agent runtimes can pull selector-extracted page content without shelling
// out to the CLI. It is not a network endpoint: the only outbound traffic is
// the scrape itself.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/webgrab/config"
	"github.com/use-agent/webgrab/format"
	"github.com/use-agent/webgrab/models"
	"github.com/use-agent/webgrab/pipeline"
)

func main() {
	// Diagnostics go to stderr only; stdout carries the MCP protocol.
	config.SetupLogging("warn")

	s := server.NewMCPServer(
		"webgrab",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_page",
		mcp.WithDescription("Fetch a single web page, apply a CSS selector and return the matched elements. Respects robots.txt unless told otherwise and waits a courtesy delay before fetching."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithString("selector",
			mcp.Required(),
			mcp.Description("CSS selector identifying the elements to extract (e.g. 'h1', '.price', 'a.link')"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: 'text' (default), 'json' (structured results) or 'markdown'"),
			mcp.Enum("text", "json", "markdown"),
		),
		mcp.WithNumber("delay_ms",
			mcp.Description("Courtesy delay in milliseconds before the fetch (default: 1000)"),
		),
		mcp.WithBoolean("ignore_robots",
			mcp.Description("Skip the robots.txt check entirely (default: false)"),
		),
		mcp.WithBoolean("render",
			mcp.Description("Fetch through a headless browser for JavaScript-heavy pages (default: false)"),
		),
	)
	s.AddTool(scrapeTool, handleScrapePage)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	selector, err := request.RequireString("selector")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := &models.ScrapeRequest{
		URL:          targetURL,
		Selector:     selector,
		Format:       request.GetString("output_format", models.FormatText),
		DelayMs:      request.GetInt("delay_ms", config.DefaultDelayMs),
		IgnoreRobots: request.GetBool("ignore_robots", false),
		Render:       request.GetBool("render", false),
	}

	outcome, err := pipeline.Run(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := format.Render(outcome.Result, req.Format, outcome.MatchedHTML)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if outcome.RobotsWarning != "" {
		out = "Warning: " + outcome.RobotsWarning + "\n\n" + out
	}
	return mcp.NewToolResultText(out), nil
}
