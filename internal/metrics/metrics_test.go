package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.IncPage("results")
	m.IncPage("results")
	m.IncPage("product")
	m.IncProducts()
	m.IncError("navigation")
	m.ObserveKeyword("completed", 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesVisited.WithLabelValues("results")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesVisited.WithLabelValues("product")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductsScraped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("navigation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeywordsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.KeywordDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncPage("results")
		m.IncProducts()
		m.IncError("write")
		m.ObserveKeyword("failed", time.Second)
	})
}
