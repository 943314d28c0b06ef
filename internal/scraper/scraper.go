package scraper

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/notify"
)

var (
	ErrResultsTimeout = errors.New("search results did not appear")
	ErrNavigation     = errors.New("navigation failed")
	ErrSearch         = errors.New("search submission failed")
)

// Crawler collects the product records for one keyword inside session.
type Crawler interface {
	Crawl(ctx context.Context, session browser.Session, keyword string) ([]*models.ProductRecord, error)
}

// SessionFactory opens an isolated browser session per keyword.
type SessionFactory interface {
	NewSession() (browser.Session, error)
}

type Publisher interface {
	KeywordCompleted(ctx context.Context, event *notify.KeywordEvent) error
}

// ResultPageURL returns the URL of result page n, derived from the URL the
// results tab is currently on. Any existing page parameter and everything
// after it are dropped.
func ResultPageURL(current string, n int) string {
	base, _, _ := strings.Cut(current, "&page=")
	sep := "&"
	if !strings.Contains(base, "?") {
		sep = "?"
	}
	return base + sep + "page=" + strconv.Itoa(n)
}
