// Package pdf renders HTML documents to PDF through a headless
// Chromium driven by Playwright.
package pdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/SadLabib/Spendit/internal/log"
)

// Engine owns one browser instance shared across renders. Each render
// opens its own page, so concurrent renders are safe.
type Engine struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	timeout time.Duration
	logger  *log.Logger

	mu     sync.Mutex
	closed bool
}

// Config configures the render engine.
type Config struct {
	// BrowserPath overrides the Chromium executable. Empty uses the
	// browser bundled by the Playwright driver.
	BrowserPath string
	// Timeout bounds a single render.
	Timeout time.Duration
}

func NewEngine(cfg Config, logger *log.Logger) (*Engine, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{}
	if cfg.BrowserPath != "" {
		opts.ExecutablePath = playwright.String(cfg.BrowserPath)
	}
	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Engine{
		pw:      pw,
		browser: browser,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentPDF),
	}, nil
}

// RenderPDF renders the given HTML to a PDF. The render is bounded by
// the engine timeout and by ctx, whichever fires first.
func (e *Engine) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, fmt.Errorf("render engine is closed")
	}
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	start := time.Now()
	go func() {
		data, err := e.render(html)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		e.logger.Warn("PDF render abandoned",
			log.FieldDuration, time.Since(start),
			log.FieldError, ctx.Err())
		return nil, fmt.Errorf("render pdf: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		e.logger.Debug("PDF rendered",
			log.FieldDuration, time.Since(start))
		return res.data, nil
	}
}

func (e *Engine) render(html string) ([]byte, error) {
	page, err := e.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("set page content: %w", err)
	}

	data, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return data, nil
}

// Close shuts the browser down. Renders in flight fail once the
// browser is gone.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if err := e.browser.Close(); err != nil {
		e.pw.Stop()
		return fmt.Errorf("close browser: %w", err)
	}
	if err := e.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}
