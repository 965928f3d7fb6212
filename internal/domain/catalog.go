package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Catalog is the product taxonomy returned by the catalog API.
type Catalog struct {
	FirstGroups []FirstGroup `json:"first_group"` // Top-level categories, in display order
}

type FirstGroup struct {
	Name   string        `json:"name"`  // "displayName,tagline"
	Groups []SecondGroup `json:"group"` // Regions of this category
}

type SecondGroup struct {
	Name     string    `json:"name"`    // "displayName,tagline,emoji", displayName may be "CC^label" or "hex|label"
	Tagline  string    `json:"tagline"` // Raw markup shown under the region title
	Products []Product `json:"products"`
}

type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       Price  `json:"product_price"`
	Description string `json:"description"` // HTML entity encoded markup
}

// Price keeps the display form of product_price, which the API sends either
// as a string or as a bare number.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode price string: %w", err)
		}
		*p = Price(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to decode price number: %w", err)
	}
	*p = Price(n.String())
	return nil
}

func (p Price) String() string {
	return string(p)
}

// CatalogResponse is the envelope every catalog API response is wrapped in.
type CatalogResponse struct {
	Status int      `json:"status"`
	Msg    string   `json:"msg,omitempty"`
	Data   *Catalog `json:"data"`
}

// HasFirstGroups reports whether the catalog carries at least one category.
func (c *Catalog) HasFirstGroups() bool {
	return c != nil && len(c.FirstGroups) > 0
}

// ProductByID searches the whole catalog for a product.
func (c *Catalog) ProductByID(id int) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	for _, first := range c.FirstGroups {
		for _, second := range first.Groups {
			for _, product := range second.Products {
				if product.ID == id {
					return product, true
				}
			}
		}
	}
	return Product{}, false
}
