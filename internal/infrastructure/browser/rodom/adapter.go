// Package rodom backs the dom interfaces with a live Chrome page driven
// over the DevTools protocol.
package rodom

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"insight-exporter/internal/application/port/output"
)

var (
	ErrBrowserNotConnected = errors.New("browser not connected")
	ErrInvalidURL          = errors.New("invalid url")
)

type Config struct {
	Headless     bool
	DevTools     bool
	NoSandbox    bool
	SlowMotion   time.Duration
	Timeout      time.Duration
	BinPath      string
	WindowWidth  int
	WindowHeight int
}

func DefaultConfig() Config {
	return Config{
		Headless:     true,
		NoSandbox:    true,
		Timeout:      10 * time.Second,
		WindowWidth:  1600,
		WindowHeight: 1000,
	}
}

// Adapter owns the browser process. Pages opened through it share the
// adapter's lifetime: Close kills the browser and every document with it.
type Adapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
	log      output.LoggerPort
}

func New(ctx context.Context, cfg Config, log output.LoggerPort) (*Adapter, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	log.Info("browser launched", "headless", cfg.Headless)

	return &Adapter{
		browser:  browser,
		launcher: l,
		cfg:      cfg,
		log:      log,
	}, nil
}

func (a *Adapter) IsReady() bool {
	return a != nil && a.browser != nil
}

// Open navigates a fresh page and waits for the initial load to finish.
func (a *Adapter) Open(ctx context.Context, rawURL string) (*Document, error) {
	if a.browser == nil {
		return nil, ErrBrowserNotConnected
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	page, err := a.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Context(ctx)

	if err := page.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("page load failed: %w", err)
	}
	page.WaitIdle(5 * time.Second)

	a.log.Info("page opened", "url", rawURL)

	return &Document{
		page:    page,
		timeout: a.cfg.Timeout,
		log:     a.log,
	}, nil
}

func (a *Adapter) Close() {
	if a.browser != nil {
		_ = a.browser.Close()
	}
	if a.launcher != nil {
		a.launcher.Kill()
		a.launcher.Cleanup()
	}
}
