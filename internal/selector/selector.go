// Package selector holds the drill-down state of a catalog session: which
// category and which region of that category are selected.
package selector

import (
	"errors"
	"fmt"

	"catalog/storefront/internal/domain"
)

type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateFirstSelected
	StateSecondSelected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateFirstSelected:
		return "first_selected"
	case StateSecondSelected:
		return "second_selected"
	default:
		return "unknown"
	}
}

var (
	ErrNotLoaded             = errors.New("catalog not loaded")
	ErrNoFirstGroup          = errors.New("no first group selected")
	ErrFirstGroupOutOfRange  = errors.New("first group index out of range")
	ErrSecondGroupOutOfRange = errors.New("second group index out of range")
)

// Selector is the selection state machine. It never owns catalog data: the
// selection is an index pair into the catalog it was loaded with, and the
// second index always points into the selected first group.
type Selector struct {
	catalog *domain.Catalog
	state   State
	first   int
	second  int
}

func New() *Selector {
	return &Selector{
		state:  StateUninitialized,
		first:  domain.NoSelection,
		second: domain.NoSelection,
	}
}

// Load attaches a catalog and selects its first category, if any. A catalog
// without categories is a valid empty state.
func (s *Selector) Load(catalog *domain.Catalog) {
	s.catalog = catalog
	s.state = StateLoaded
	s.first = domain.NoSelection
	s.second = domain.NoSelection

	if catalog.HasFirstGroups() {
		// index 0 always exists here
		_ = s.SelectFirst(0)
	}
}

// SelectFirst selects a category and resets the region to the category's
// first one, or to none when it has no regions.
func (s *Selector) SelectFirst(index int) error {
	if s.state == StateUninitialized {
		return ErrNotLoaded
	}
	if s.catalog == nil || index < 0 || index >= len(s.catalog.FirstGroups) {
		return fmt.Errorf("%w: %d", ErrFirstGroupOutOfRange, index)
	}

	s.first = index
	s.second = domain.NoSelection
	s.state = StateFirstSelected

	if len(s.catalog.FirstGroups[index].Groups) > 0 {
		return s.SelectSecond(0)
	}
	return nil
}

// SelectSecond selects a region of the current category.
func (s *Selector) SelectSecond(index int) error {
	if s.state == StateUninitialized {
		return ErrNotLoaded
	}
	if s.first == domain.NoSelection {
		return ErrNoFirstGroup
	}

	groups := s.catalog.FirstGroups[s.first].Groups
	if index < 0 || index >= len(groups) {
		return fmt.Errorf("%w: %d", ErrSecondGroupOutOfRange, index)
	}

	s.second = index
	s.state = StateSecondSelected
	return nil
}

// Restore re-applies a stored position. A position that no longer fits the
// catalog resets the selection to the defaults Load would pick.
func (s *Selector) Restore(pos domain.Position) error {
	if s.state == StateUninitialized {
		return ErrNotLoaded
	}
	if pos.IsEmpty() {
		return nil
	}

	if err := s.SelectFirst(pos.First); err != nil {
		s.Load(s.catalog)
		return err
	}
	if pos.Second == domain.NoSelection {
		return nil
	}
	if err := s.SelectSecond(pos.Second); err != nil {
		s.Load(s.catalog)
		return err
	}
	return nil
}

func (s *Selector) State() State {
	return s.state
}

func (s *Selector) Catalog() *domain.Catalog {
	return s.catalog
}

func (s *Selector) Position() domain.Position {
	return domain.Position{First: s.first, Second: s.second}
}

// FirstGroup returns the selected category.
func (s *Selector) FirstGroup() (domain.FirstGroup, bool) {
	if s.first == domain.NoSelection {
		return domain.FirstGroup{}, false
	}
	return s.catalog.FirstGroups[s.first], true
}

// SecondGroup returns the selected region.
func (s *Selector) SecondGroup() (domain.SecondGroup, bool) {
	if s.first == domain.NoSelection || s.second == domain.NoSelection {
		return domain.SecondGroup{}, false
	}
	return s.catalog.FirstGroups[s.first].Groups[s.second], true
}

// Products derives the product list of the selected region.
func (s *Selector) Products() []domain.Product {
	second, ok := s.SecondGroup()
	if !ok {
		return nil
	}
	return second.Products
}
