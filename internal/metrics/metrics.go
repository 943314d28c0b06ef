package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a scrape batch. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesVisited    *prometheus.CounterVec
	ProductsScraped prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	KeywordDuration prometheus.Histogram
	KeywordsTotal   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_pages_visited_total",
			Help: "Pages navigated by the scraper, by kind (search, results, product).",
		},
		[]string{"kind"},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_products_scraped_total",
			Help: "Product records accumulated across all keywords.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Scraper errors by type.",
		},
		[]string{"error_type"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_keyword_duration_seconds",
			Help:    "Wall time of one keyword run.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
	)
	keywords := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_keywords_total",
			Help: "Keyword runs by final status.",
		},
		[]string{"status"},
	)

	registry.MustRegister(pages, products, errorsTotal, duration, keywords)

	return &Metrics{
		Registry:        registry,
		PagesVisited:    pages,
		ProductsScraped: products,
		ErrorsTotal:     errorsTotal,
		KeywordDuration: duration,
		KeywordsTotal:   keywords,
	}
}

func (m *Metrics) IncPage(kind string) {
	if m == nil {
		return
	}
	m.PagesVisited.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncProducts() {
	if m == nil {
		return
	}
	m.ProductsScraped.Inc()
}

func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) ObserveKeyword(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.KeywordsTotal.WithLabelValues(status).Inc()
	m.KeywordDuration.Observe(d.Seconds())
}
