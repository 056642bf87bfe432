package shop

import (
	"fmt"
	"sort"
	"time"

	"github.com/sahilm/fuzzy"
)

// RestockPolicy controls lazy replenishment of one merchandise line. A
// zero Interval disables restocking.
type RestockPolicy struct {
	Interval time.Duration
	Quantity int64
	MaxStock int64 // zero means uncapped
}

// Merchandise is one stocked line: the item prototype it spawns, its base
// price before market adjustment and the market tag that prices it.
type Merchandise struct {
	Name      string
	Prototype string
	BasePrice int64
	Tag       string
	Stock     int64
	Policy    RestockPolicy

	lastRestocked time.Time
}

// AddMerchandise puts a new line on the shelves. Manager-only.
func (s *Shop) AddMerchandise(actor string, m Merchandise) error {
	if !s.isManager(actor) {
		return ErrNotManager
	}
	if m.BasePrice <= 0 {
		return fmt.Errorf("merchandise %q: base price must be positive", m.Name)
	}
	if _, err := s.market.CategoryForTag(m.Tag); err != nil {
		return fmt.Errorf("merchandise %q: %w", m.Name, err)
	}
	m.lastRestocked = s.clock.CurrentDateTime()
	s.merchandise[m.Name] = &m
	return nil
}

// RemoveMerchandise takes a line off the shelves. Manager-only.
func (s *Shop) RemoveMerchandise(actor, name string) error {
	if !s.isManager(actor) {
		return ErrNotManager
	}
	if _, ok := s.merchandise[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMerchandise, name)
	}
	delete(s.merchandise, name)
	return nil
}

// Merchandise looks a line up by exact name.
func (s *Shop) Merchandise(name string) (Merchandise, error) {
	m, ok := s.merchandise[name]
	if !ok {
		return Merchandise{}, fmt.Errorf("%w: %q", ErrUnknownMerchandise, name)
	}
	return *m, nil
}

// Stocked returns all merchandise names in stable order.
func (s *Shop) Stocked() []string {
	names := make([]string, 0, len(s.merchandise))
	for name := range s.merchandise {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Restock applies lazy replenishment against the clock: every full
// interval elapsed since the last restock adds the policy quantity, capped
// at MaxStock. Called from the trading paths, so shelves are current
// whenever anyone looks.
func (s *Shop) Restock(now time.Time) {
	for _, m := range s.merchandise {
		if m.Policy.Interval <= 0 || m.Policy.Quantity <= 0 {
			continue
		}
		elapsed := now.Sub(m.lastRestocked)
		intervals := int64(elapsed / m.Policy.Interval)
		if intervals <= 0 {
			continue
		}
		m.Stock += intervals * m.Policy.Quantity
		if m.Policy.MaxStock > 0 && m.Stock > m.Policy.MaxStock {
			m.Stock = m.Policy.MaxStock
		}
		m.lastRestocked = m.lastRestocked.Add(time.Duration(intervals) * m.Policy.Interval)
	}
}

// FindMerchandise fuzzy-matches a customer's query against stock names,
// best match first. Display convenience only; the trading paths always
// take exact names.
func (s *Shop) FindMerchandise(query string) []string {
	names := s.Stocked()
	matches := fuzzy.Find(query, names)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, names[m.Index])
	}
	return out
}
