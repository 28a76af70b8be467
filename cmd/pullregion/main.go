// CLAUDE:SUMMARY CLI entry point for pullregion: loads a page, registers watches, acts on ajax controls and prints regions or serves MCP.
// Command pullregion loads a page, registers the pull-region watches it
// declares (plus any from the config file), and either acts on an ajax
// control or serves the page tools over MCP on stdio.
//
// Usage:
//
//	pullregion -url https://shop.test/ -act "a[href=/cart/add/tea]" -regions cart,count
//	pullregion -config pullregion.yaml -act "form.ajax" -format html
//	pullregion -url https://shop.test/ -mcp
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pullregion/journal"
	"github.com/hazyhaar/pullregion/pullregion"
)

func main() {
	configPath := flag.String("config", "", "path to pullregion.yaml config file")
	pageURL := flag.String("url", "", "page URL (overrides base_url from config)")
	act := flag.String("act", "", "CSS selector of an ajax link, button or form to activate")
	format := flag.String("format", "markdown", "region output format: html, markdown")
	regions := flag.String("regions", "", "comma-separated regions to print (default: all watched)")
	journalPath := flag.String("journal", "", "SQLite journal path (overrides config)")
	serveMCP := flag.Bool("mcp", false, "serve page tools over MCP on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveConfig(*configPath, *pageURL, *journalPath)
	if err != nil {
		logger.Error("pullregion: config", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, logger, cfg, *act, *format, *regions, *serveMCP); err != nil {
		logger.Error("pullregion: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *pullregion.Config, act, format, regions string, serveMCP bool) error {
	opts := append(pullregion.ConfigOptions(cfg), pullregion.WithLogger(logger))

	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal, journal.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		defer j.Close()
		opts = append(opts, pullregion.WithRecorder(j))
	}

	p, err := pullregion.Load(ctx, cfg.BaseURL, opts...)
	if err != nil {
		return err
	}
	n := p.Bootstrap()
	p.PullRegions(pullregion.ConfigWatches(cfg))
	logger.Info("pullregion: page loaded", "url", p.URL(), "markup_watches", n, "patterns", len(p.Watches()))

	p.Subscribe(pullregion.AllEvents, func(_ context.Context, ev pullregion.Event) {
		if ev.Name == pullregion.StatusMessage {
			if m, err := pullregion.DecodeMessage(ev.Detail); err == nil {
				logger.Info("pullregion: message", "type", m.Type, "content", m.Content)
			}
			return
		}
		logger.Info("pullregion: event", "name", ev.Name, "detail", string(ev.Detail))
	})

	c := pullregion.NewClient(p, &http.Client{Timeout: cfg.Timeout})

	if serveMCP {
		srv := mcp.NewServer(&mcp.Implementation{Name: "pullregion", Version: "1.0.0"}, nil)
		c.RegisterMCP(srv)
		logger.Info("pullregion: serving MCP on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	if act != "" {
		res, err := c.Act(ctx, act)
		if err != nil {
			return fmt.Errorf("act %q: %w", act, err)
		}
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"status_code": res.StatusCode, "report": pullregion.View(res.Report, res.Envelope)}); err != nil {
			return err
		}
	}

	return printRegions(p, wanted(p, regions), format)
}

// wanted returns the regions to print: the -regions list, or every
// watched region in registration order.
func wanted(p *pullregion.Page, list string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(r string) {
		r = strings.TrimSpace(r)
		if r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	if list != "" {
		for _, r := range strings.Split(list, ",") {
			add(r)
		}
		return out
	}
	for _, w := range p.Watches() {
		for _, r := range w.Regions {
			add(r)
		}
	}
	return out
}

func printRegions(p *pullregion.Page, regions []string, format string) error {
	for _, name := range regions {
		var content string
		switch format {
		case "html":
			html, ok := p.RegionHTML(name)
			if !ok {
				fmt.Fprintf(os.Stdout, "## %s\n\n(not in page)\n\n", name)
				continue
			}
			content = html
		case "markdown":
			md, err := p.RegionMarkdown(name)
			if err != nil {
				fmt.Fprintf(os.Stdout, "## %s\n\n(not in page)\n\n", name)
				continue
			}
			content = md
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		fmt.Fprintf(os.Stdout, "## %s\n\n%s\n\n", name, strings.TrimSpace(content))
	}
	return nil
}

func resolveConfig(configPath, pageURL, journalPath string) (*pullregion.Config, error) {
	var cfg *pullregion.Config
	if configPath != "" {
		c, err := pullregion.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		c, err := pullregion.ParseConfig(nil)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if pageURL != "" {
		cfg.BaseURL = pageURL
	}
	if journalPath != "" {
		cfg.Journal = journalPath
	}

	if cfg.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "usage: pullregion -config <file> | -url <page> [-act <selector>] [-regions a,b] [-format html|markdown] [-mcp]")
		os.Exit(1)
	}
	return cfg, nil
}
