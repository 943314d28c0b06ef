package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/metrics"
	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/parser"
	"github.com/maltedev/marketplace-scraper/internal/ratelimit"
)

// SearchCrawler walks the result pages of one keyword and visits every
// product it finds, one tab at a time.
type SearchCrawler struct {
	site    config.SiteConfig
	crawl   config.CrawlConfig
	baseURL *url.URL
	parser  parser.Parser
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewSearchCrawler(cfg *config.Config, p parser.Parser, limiter *ratelimit.Limiter, m *metrics.Metrics, logger *slog.Logger) (*SearchCrawler, error) {
	base, err := url.Parse(cfg.Site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchCrawler{
		site:    cfg.Site,
		crawl:   cfg.Crawl,
		baseURL: base,
		parser:  p,
		limiter: limiter,
		metrics: m,
		logger:  logger.With("component", "search_crawler"),
	}, nil
}

// Crawl returns the records accumulated for keyword. It fails only when the
// search itself cannot be run; product pages that fail to load are skipped.
func (sc *SearchCrawler) Crawl(ctx context.Context, session browser.Session, keyword string) ([]*models.ProductRecord, error) {
	logger := sc.logger.With("keyword", keyword)
	logger.Info("starting search crawl")

	page, err := session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if err := sc.search(page, keyword); err != nil {
		sc.metrics.IncError("search")
		return nil, err
	}

	// Result pages derive from the search URL, not from wherever the tab
	// ended up after a failed navigation.
	searchURL := page.URL()

	visited := models.NewVisitedSet()
	recorded := models.NewVisitedSet()
	var records []*models.ProductRecord

	for n := 1; n <= sc.crawl.MaxPages; n++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		pageURL := ResultPageURL(searchURL, n)
		if !visited.Add(pageURL) {
			continue
		}

		links, err := sc.collectLinks(ctx, page, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			logger.Warn("failed to load result page", "page", n, "url", pageURL, "error", err)
			sc.metrics.IncError("results_page")
			continue
		}

		logger.Debug("found product links", "page", n, "count", len(links))

		for _, link := range links {
			if !visited.Add(sc.productKey(link)) {
				continue
			}

			if err := sc.limiter.Wait(ctx); err != nil {
				return records, err
			}

			record, err := sc.visitProduct(ctx, session, link)
			if err != nil {
				if ctx.Err() != nil {
					return records, ctx.Err()
				}
				logger.Warn("skipping product", "url", link, "error", err)
				sc.metrics.IncError("navigation")
				continue
			}

			// A redirect can land on a product already recorded under another
			// href. Records without a product code are kept as they are.
			if !strings.HasSuffix(record.URL, parser.CodeNotFound) && !recorded.Add(record.URL) {
				logger.Debug("duplicate product after navigation", "url", link, "product", record.URL)
				continue
			}

			records = append(records, record)
			sc.metrics.IncProducts()
		}
	}

	logger.Info("search crawl completed", "products", len(records), "visited", visited.Len())
	return records, nil
}

func (sc *SearchCrawler) search(page browser.Page, keyword string) error {
	if err := page.Goto(sc.site.BaseURL, browser.WaitLoad); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, sc.site.BaseURL, err)
	}
	sc.metrics.IncPage("search")

	if err := page.Fill(sc.site.SearchInputSelector, keyword); err != nil {
		return fmt.Errorf("%w: fill search input: %v", ErrSearch, err)
	}
	if err := page.Press("Enter"); err != nil {
		return fmt.Errorf("%w: submit search: %v", ErrSearch, err)
	}

	if err := page.WaitForSelector(sc.site.ResultsSelector, sc.crawl.ResultsTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return fmt.Errorf("%w after %s", ErrResultsTimeout, sc.crawl.ResultsTimeout)
		}
		return fmt.Errorf("%w: wait for results: %v", ErrSearch, err)
	}

	return nil
}

// collectLinks loads one result page and returns the absolute product URLs
// on it in document order.
func (sc *SearchCrawler) collectLinks(ctx context.Context, page browser.Page, pageURL string) ([]string, error) {
	if err := page.Goto(pageURL, browser.WaitNetworkIdle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	sc.metrics.IncPage("results")

	if err := browser.Scroll(ctx, page, sc.scrollOptions()); err != nil {
		return nil, err
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find(sc.site.ProductLinkSelector).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		link := sc.resolve(href)
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	return links, nil
}

func (sc *SearchCrawler) visitProduct(ctx context.Context, session browser.Session, link string) (*models.ProductRecord, error) {
	page, err := session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if err := page.Goto(link, browser.WaitLoad); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	sc.metrics.IncPage("product")

	if err := browser.Scroll(ctx, page, sc.scrollOptions()); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		sc.logger.Debug("scroll failed, parsing what rendered", "url", link, "error", err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	return sc.parser.ParseProductPage(html, page.URL()), nil
}

// productKey identifies a product link independently of tracking parameters:
// the product code when the URL carries one, otherwise the URL without its
// query and fragment.
func (sc *SearchCrawler) productKey(link string) string {
	if code := sc.parser.ExtractProductCode(link); code != parser.CodeNotFound {
		return "product:" + code
	}

	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func (sc *SearchCrawler) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return sc.baseURL.ResolveReference(ref).String()
}

func (sc *SearchCrawler) scrollOptions() browser.ScrollOptions {
	return browser.ScrollOptions{
		Step:        sc.crawl.ScrollStep,
		Interval:    sc.crawl.ScrollInterval,
		SettleDelay: sc.crawl.SettleDelay,
		Mode:        browser.SettleMode(sc.crawl.SettleMode),
		StablePolls: sc.crawl.StablePolls,
		MaxPolls:    sc.crawl.MaxSettlePolls,
	}
}
