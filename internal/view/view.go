// Package view turns the catalog selection into the view model both
// storefront surfaces render. Building a page has no side effects.
package view

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"

	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/selector"
)

// Placeholder copy for the empty states.
const (
	NoProductTypesText = "No product types available"
	NoRegionsText      = "No regions available"
	SelectTypeText     = "Please select a product type"
	NoProductsText     = "No products available"
	NoDescriptionText  = "No description"
)

type Page struct {
	State   string
	Loading bool
	Banner  string // transient load error text

	FirstCards     []FirstCard
	NoFirstCards   string
	Regions        []RegionRow
	NoRegions      string
	Title          string
	Tagline        template.HTML
	TaglineText    string
	Products       []ProductCard
	NoProducts     string
	HasRegion      bool
	SelectedFirst  int
	SelectedSecond int
}

type FirstCard struct {
	Index   int
	Name    string
	Tagline string
	Active  bool
}

type RegionRow struct {
	Index   int
	Name    string
	Tagline string
	Emoji   string
	Icon    string
	Active  bool
}

type ProductCard struct {
	ID          int
	Name        string
	Price       string
	Description template.HTML
	Summary     string
	CheckoutURL string
}

// Builder renders selections into pages.
type Builder struct {
	checkoutURL string
	policy      *bluemonday.Policy
}

func NewBuilder(checkoutURL string) *Builder {
	return &Builder{
		checkoutURL: checkoutURL,
		policy:      bluemonday.UGCPolicy(),
	}
}

// Build derives the page for the current selection of s.
func (b *Builder) Build(s *selector.Selector) Page {
	pos := s.Position()
	page := Page{
		State:          s.State().String(),
		SelectedFirst:  pos.First,
		SelectedSecond: pos.Second,
		Title:          SelectTypeText,
	}

	if s.State() == selector.StateUninitialized {
		page.NoFirstCards = NoProductTypesText
		return page
	}

	catalog := s.Catalog()
	if !catalog.HasFirstGroups() {
		page.NoFirstCards = NoProductTypesText
		return page
	}

	for i, group := range catalog.FirstGroups {
		name, tagline := domain.DecodeGroupLabel(group.Name)
		page.FirstCards = append(page.FirstCards, FirstCard{
			Index:   i,
			Name:    name,
			Tagline: tagline,
			Active:  i == pos.First,
		})
	}

	first, ok := s.FirstGroup()
	if !ok {
		return page
	}

	if len(first.Groups) == 0 {
		page.NoRegions = NoRegionsText
	}
	for i, region := range first.Groups {
		label := domain.DecodeRegionLabel(region.Name)
		page.Regions = append(page.Regions, RegionRow{
			Index:   i,
			Name:    label.Name,
			Tagline: label.Tagline,
			Emoji:   label.Emoji,
			Icon:    label.FlagIcon,
			Active:  i == pos.Second,
		})
	}

	second, ok := s.SecondGroup()
	if !ok {
		return page
	}

	page.HasRegion = true
	page.Title = domain.DecodeRegionLabel(second.Name).Name
	tagline := b.policy.Sanitize(second.Tagline)
	page.Tagline = template.HTML(tagline)
	page.TaglineText = PlainText(tagline)

	if len(second.Products) == 0 {
		page.NoProducts = NoProductsText
	}
	for _, product := range second.Products {
		page.Products = append(page.Products, b.productCard(product))
	}

	return page
}

func (b *Builder) productCard(product domain.Product) ProductCard {
	card := ProductCard{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price.String(),
		CheckoutURL: domain.CheckoutURL(b.checkoutURL, product.ID),
	}

	if product.Description == "" {
		card.Description = template.HTML(NoDescriptionText)
		card.Summary = NoDescriptionText
		return card
	}

	description := b.policy.Sanitize(domain.DecodeDescription(product.Description))
	card.Description = template.HTML(description)
	card.Summary = PlainText(description)
	return card
}

// CheckoutURL returns the checkout address for a product id.
func (b *Builder) CheckoutURL(productID int) string {
	return domain.CheckoutURL(b.checkoutURL, productID)
}
