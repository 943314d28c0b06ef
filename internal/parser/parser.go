package parser

import (
	"github.com/maltedev/marketplace-scraper/internal/models"
)

const (
	PriceNotFound = "price not found"
	CodeNotFound  = "code not found"
)

// Parser turns a rendered product page into a record. ExtractProductCode is
// also used to recognise product links before they are visited.
type Parser interface {
	ParseProductPage(html string, pageURL string) *models.ProductRecord
	ExtractProductCode(url string) string
}
