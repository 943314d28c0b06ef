package scraper

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/stretchr/testify/require"
)

// fakeSite serves canned HTML by URL to every page opened on it.
type fakeSite struct {
	mu             sync.Mutex
	pages          map[string]string
	searchURL      string
	resultsTimeout bool
	failGoto       map[string]bool
	redirects      map[string]string
	gotos          []string
	opened         int
	closed         int
}

func newFakeSite(searchURL string) *fakeSite {
	return &fakeSite{
		pages:     make(map[string]string),
		searchURL: searchURL,
		failGoto:  make(map[string]bool),
	}
}

func (s *fakeSite) gotoCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, u := range s.gotos {
		if u == url {
			n++
		}
	}
	return n
}

type fakeSession struct {
	site   *fakeSite
	closed bool
}

func (s *fakeSession) NewPage() (browser.Page, error) {
	s.site.mu.Lock()
	s.site.opened++
	s.site.mu.Unlock()
	return &fakePage{site: s.site}, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakePage struct {
	site *fakeSite
	url  string
}

func (p *fakePage) Goto(url string, _ browser.WaitUntil) error {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	p.site.gotos = append(p.site.gotos, url)
	if p.site.failGoto[url] {
		p.url = "chrome-error://chromewebdata/"
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	p.url = url
	if target, ok := p.site.redirects[url]; ok {
		p.url = target
	}
	return nil
}

func (p *fakePage) Fill(string, string) error { return nil }

func (p *fakePage) Press(key string) error {
	if key == "Enter" {
		p.url = p.site.searchURL
	}
	return nil
}

func (p *fakePage) WaitForSelector(selector string, timeout time.Duration) error {
	if p.site.resultsTimeout {
		return fmt.Errorf("%w: waiting for %s", browser.ErrTimeout, selector)
	}
	return nil
}

func (p *fakePage) Evaluate(string) (interface{}, error) { return nil, nil }

func (p *fakePage) Content() (string, error) {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	if html, ok := p.site.pages[p.url]; ok {
		return html, nil
	}
	return "<html><body></body></html>", nil
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Close() error {
	p.site.mu.Lock()
	p.site.closed++
	p.site.mu.Unlock()
	return nil
}

type fakeSessionFactory struct {
	site     *fakeSite
	err      error
	sessions []*fakeSession
}

func (f *fakeSessionFactory) NewSession() (browser.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSession{site: f.site}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Site.BaseURL = "https://shop.test"
	cfg.Crawl.MaxPages = 3
	cfg.Crawl.ScrollInterval = 0
	cfg.Crawl.SettleDelay = 0
	cfg.Crawl.SettleMode = config.SettleFixed
	cfg.Crawl.ContinueOnError = false
	cfg.Output.Dir = t.TempDir()
	cfg.Output.FilePattern = "results_%s.csv"

	return cfg
}

func resultsHTML(hrefs ...string) string {
	html := `<html><body><div data-widget="searchResultsV2">`
	for _, href := range hrefs {
		html += `<div class="tile"><a href="` + href + `">item</a></div>`
	}
	return html + `</div></body></html>`
}

func productHTML(name, price, seller string) string {
	return `<html><body>
<h1 class="l6x tsHeadline550Medium">` + name + `</h1>
<a class="zj2" href="/seller/1/">` + seller + `</a>
<span class="tsHeadline500Medium">` + price + `</span>
</body></html>`
}
