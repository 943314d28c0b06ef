package parser

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/marketplace-scraper/internal/models"
)

// Selector candidates are tried in order; the first non-empty match wins.
var (
	priceSelectors = []string{
		"span.wl5.w3l",
		"span.xl.lx0.x3l",
		"span.xl.lx0.l4x",
		"span.tsHeadline500Medium",
	}
	nameSelectors = []string{
		"h1.l6x.tsHeadline550Medium",
	}
	ratingSelectors = []string{
		".ga10-a2.tsBodyControl500Medium",
	}
)

const (
	sellerSelector = "a.zj2"
	promoSelector  = `div.b9h.bi[data-widget="blackFridayStatus"]`
)

type OzonParser struct {
	baseURL     string
	codePattern *regexp.Regexp
	logger      *slog.Logger
}

func NewOzonParser(baseURL string, logger *slog.Logger) *OzonParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &OzonParser{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		codePattern: regexp.MustCompile(`/product/[^/]+-(\d+)`),
		logger:      logger.With("component", "parser"),
	}
}

// ParseProductPage runs every field extractor over a rendered product page.
// pageURL is the URL the page ended up on after navigation.
func (p *OzonParser) ParseProductPage(html string, pageURL string) *models.ProductRecord {
	code := p.ExtractProductCode(pageURL)
	canonical := p.baseURL + "/product/" + code

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.logger.Error("failed to parse product page", "url", pageURL, "error", err)
		return models.NewProductRecord("", nil, PriceNotFound, canonical)
	}

	record := models.NewProductRecord(
		p.ExtractName(doc),
		p.ExtractSellers(doc),
		p.ExtractPrice(doc),
		canonical,
	)

	if rating, count, ok := p.ExtractRating(doc); ok {
		record.Rating = rating
		record.RatingCount = count
	} else {
		p.logger.Debug("rating not found", "url", pageURL)
	}

	record.Promo = p.ExtractPromo(doc)

	return record
}

func (p *OzonParser) ExtractPrice(doc *goquery.Document) string {
	text, ok := firstText(doc, priceSelectors)
	if !ok {
		return PriceNotFound
	}
	return digitsOnly(text)
}

func (p *OzonParser) ExtractName(doc *goquery.Document) string {
	name, _ := firstText(doc, nameSelectors)
	return name
}

// ExtractSellers returns seller names in first-seen order without duplicates.
func (p *OzonParser) ExtractSellers(doc *goquery.Document) []string {
	var sellers []string
	seen := make(map[string]bool)

	doc.Find(sellerSelector).Each(func(i int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		sellers = append(sellers, name)
	})

	return sellers
}

// ExtractRating reads text like "4.8 • 230 оценок": the first token is the
// rating and the third is the number of ratings.
func (p *OzonParser) ExtractRating(doc *goquery.Document) (string, string, bool) {
	text, ok := firstText(doc, ratingSelectors)
	if !ok {
		return "", "", false
	}
	return ParseRatingText(text)
}

func (p *OzonParser) ExtractPromo(doc *goquery.Document) int {
	if doc.Find(promoSelector).Length() > 0 {
		return 1
	}
	return 0
}

func (p *OzonParser) ExtractProductCode(url string) string {
	matches := p.codePattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return CodeNotFound
	}
	return matches[1]
}

func ParseRatingText(text string) (string, string, bool) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0], parts[2], true
}

func firstText(doc *goquery.Document, selectors []string) (string, bool) {
	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
