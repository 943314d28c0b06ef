package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

var ErrTimeout = errors.New("browser operation timed out")

type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// Session is one isolated browsing context. A keyword run owns exactly one.
type Session interface {
	NewPage() (Page, error)
	Close() error
}

// Page is the subset of tab operations the crawler drives.
type Page interface {
	Goto(url string, waitUntil WaitUntil) error
	Fill(selector, value string) error
	Press(key string) error
	WaitForSelector(selector string, timeout time.Duration) error
	Evaluate(script string) (interface{}, error)
	Content() (string, error)
	URL() string
	Close() error
}

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    *Options
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "ru-RU,ru;q=0.9,en;q=0.8",
		TimezoneID:     "Europe/Moscow",
		Locale:         "ru-RU",
		ExtraHeaders: map[string]string{
			"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		},
	}
}

// withDefaults fills zero values from DefaultOptions.
func (o *Options) withDefaults() *Options {
	d := DefaultOptions()
	if o == nil {
		return d
	}

	merged := *o
	if merged.Timeout <= 0 {
		merged.Timeout = d.Timeout
	}
	if merged.UserAgent == "" {
		merged.UserAgent = d.UserAgent
	}
	if merged.ViewportWidth <= 0 || merged.ViewportHeight <= 0 {
		merged.ViewportWidth = d.ViewportWidth
		merged.ViewportHeight = d.ViewportHeight
	}
	if merged.AcceptLanguage == "" {
		merged.AcceptLanguage = d.AcceptLanguage
	}
	if merged.TimezoneID == "" {
		merged.TimezoneID = d.TimezoneID
	}
	if merged.Locale == "" {
		merged.Locale = d.Locale
	}
	if merged.ExtraHeaders == nil {
		merged.ExtraHeaders = d.ExtraHeaders
	}
	return &merged
}

func New(opts *Options, logger *slog.Logger) (*Browser, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
			fmt.Sprintf("--window-size=%d,%d", opts.ViewportWidth, opts.ViewportHeight),
		},
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		opts:    opts,
		logger:  logger.With("component", "browser"),
	}, nil
}

// NewSession opens a fresh browser context.
func (b *Browser) NewSession() (Session, error) {
	headers := make(map[string]string, len(b.opts.ExtraHeaders)+1)
	for k, v := range b.opts.ExtraHeaders {
		headers[k] = v
	}
	headers["Accept-Language"] = b.opts.AcceptLanguage

	context, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &b.opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &b.opts.Locale,
		TimezoneId:        &b.opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  b.opts.ViewportWidth,
			Height: b.opts.ViewportHeight,
		},
		ExtraHttpHeaders: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	b.logger.Debug("browser context opened")

	return &session{context: context, timeout: b.opts.Timeout}, nil
}

func (b *Browser) Close() error {
	var errs []error

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

type session struct {
	context playwright.BrowserContext
	timeout time.Duration
}

func (s *session) NewPage() (Page, error) {
	p, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	p.SetDefaultTimeout(float64(s.timeout.Milliseconds()))

	return &page{page: p}, nil
}

func (s *session) Close() error {
	if err := s.context.Close(); err != nil {
		return fmt.Errorf("failed to close context: %w", err)
	}
	return nil
}

type page struct {
	page playwright.Page
}

func (p *page) Goto(url string, waitUntil WaitUntil) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntilState(waitUntil),
	})
	return translate(err)
}

func (p *page) Fill(selector, value string) error {
	return translate(p.page.Locator(selector).First().Fill(value))
}

func (p *page) Press(key string) error {
	return translate(p.page.Keyboard().Press(key))
}

func (p *page) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return translate(err)
}

func (p *page) Evaluate(script string) (interface{}, error) {
	result, err := p.page.Evaluate(script)
	return result, translate(err)
}

func (p *page) Content() (string, error) {
	html, err := p.page.Content()
	return html, translate(err)
}

func (p *page) URL() string {
	return p.page.URL()
}

func (p *page) Close() error {
	return p.page.Close()
}

func waitUntilState(w WaitUntil) *playwright.WaitUntilState {
	switch w {
	case WaitDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateLoad
	}
}

// translate maps playwright timeouts onto ErrTimeout so callers need not
// import playwright.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
