package models

import (
	"strconv"
	"strings"
)

// Header is the fixed column order of every output file.
var Header = []string{"product_name", "sellers", "price", "url", "rating", "num_ratings", "black_friday"}

// ProductRecord is one scraped product page. Optional values that could not
// be extracted are left empty.
type ProductRecord struct {
	Name        string `json:"product_name"`
	Sellers     string `json:"sellers"`
	Price       string `json:"price"`
	URL         string `json:"url"`
	Rating      string `json:"rating"`
	RatingCount string `json:"num_ratings"`
	Promo       int    `json:"black_friday"`
}

func NewProductRecord(name string, sellers []string, price, url string) *ProductRecord {
	return &ProductRecord{
		Name:    name,
		Sellers: strings.Join(sellers, ", "),
		Price:   price,
		URL:     url,
	}
}

// Row returns the record fields in Header order.
func (p *ProductRecord) Row() []string {
	return []string{
		p.Name,
		p.Sellers,
		p.Price,
		p.URL,
		p.Rating,
		p.RatingCount,
		strconv.Itoa(p.Promo),
	}
}
