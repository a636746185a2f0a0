package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/naozine/nz-html-fetch/pkg/htmlfetch"
)

// HTMLConfig holds headless fetcher options
type HTMLConfig struct {
	BrowserPath string
	Proxy       string
	Stealth     bool
	BlockAds    bool
	BlockImages bool
	// WaitSelector, when set, delays the snapshot until the selector appears
	WaitSelector string
	WaitTimeout  time.Duration
}

// HTMLCapturer snapshots the rendered document of a page through a headless browser
type HTMLCapturer struct {
	mu        sync.Mutex
	fetcher   *htmlfetch.Fetcher
	fetchOpts []htmlfetch.FetchOption
	logger    *slog.Logger
}

// NewHTMLCapturer starts the browser
func NewHTMLCapturer(cfg *HTMLConfig, logger *slog.Logger) (*HTMLCapturer, error) {
	var opts []htmlfetch.Option
	if cfg.BrowserPath != "" {
		opts = append(opts, htmlfetch.WithBrowserPath(cfg.BrowserPath))
	}
	if cfg.Proxy != "" {
		opts = append(opts, htmlfetch.WithProxy(cfg.Proxy))
	}
	opts = append(opts, htmlfetch.WithStealth(cfg.Stealth))

	fetcher := htmlfetch.New(opts...)
	if err := fetcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Info("Headless browser started",
		slog.Bool("stealth", cfg.Stealth),
		slog.Bool("block_ads", cfg.BlockAds),
		slog.Bool("block_images", cfg.BlockImages),
	)

	return &HTMLCapturer{
		fetcher:   fetcher,
		fetchOpts: buildFetchOptions(cfg),
		logger:    logger,
	}, nil
}

func buildFetchOptions(cfg *HTMLConfig) []htmlfetch.FetchOption {
	var fetchOpts []htmlfetch.FetchOption

	if cfg.BlockAds || cfg.BlockImages {
		fetchOpts = append(fetchOpts, htmlfetch.WithBlocking(htmlfetch.BlockingOptions{
			Ads:   cfg.BlockAds,
			Image: cfg.BlockImages,
		}))
	}

	if cfg.WaitSelector != "" {
		timeout := cfg.WaitTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		fetchOpts = append(fetchOpts, htmlfetch.WithSelector(cfg.WaitSelector, timeout))
	}

	return fetchOpts
}

// Capture fetches uri and returns its rendered HTML.
// Fetches are serialised over the single browser instance.
func (c *HTMLCapturer) Capture(ctx context.Context, uri string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.fetcher.Fetch(ctx, uri, c.fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}

	c.logger.Debug("Page captured",
		slog.String("uri", uri),
		slog.String("final_url", result.FinalURL),
		slog.Duration("duration", result.Duration),
		slog.Int("size", len(result.HTML)),
	)

	return &Result{
		Data:        []byte(result.HTML),
		Extension:   "html",
		ContentType: "text/html; charset=utf-8",
	}, nil
}

// Close shuts the browser down
func (c *HTMLCapturer) Close() error {
	return c.fetcher.Close()
}
