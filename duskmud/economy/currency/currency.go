// Package currency implements the denomination codec: conversion between
// abstract base-unit amounts and concrete coin sets, and rendering/parsing
// of amounts as human text via configurable description patterns.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownDivision    = errors.New("unknown division")
	ErrInexactAmount      = errors.New("amount not exactly representable")
	ErrInsufficientCoins  = errors.New("insufficient coins to reach target")
	ErrUnparsableAmount   = errors.New("unparsable amount text")
	ErrAmbiguousAmount    = errors.New("ambiguous amount text")
	ErrNoEligiblePattern  = errors.New("no eligible description pattern")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrInvalidDefinition  = errors.New("invalid currency definition")
)

// Division is a named denomination of a currency, worth a fixed number of
// base units. Words lists the textual forms recognised by the parser; the
// first entry is the canonical singular.
type Division struct {
	Name   string
	Value  int64
	Words  []string
	Plural string
}

// Singular returns the canonical singular word for the division.
func (d Division) Singular() string {
	if len(d.Words) > 0 {
		return d.Words[0]
	}
	return strings.ToLower(d.Name)
}

// PluralWord returns the plural form, defaulting to singular + "s".
func (d Division) PluralWord() string {
	if d.Plural != "" {
		return d.Plural
	}
	return d.Singular() + "s"
}

// Coin is a physical denomination item: a division tag plus its base-unit
// value. Coins need not match division values one-to-one (a "quarter" coin
// can carry 25 base units under a 100-unit division).
type Coin struct {
	Name     string
	Division string
	Value    int64
}

// Currency is a named unit system: an ordered set of divisions, the coins
// minted for it, and the ordered gated description patterns used to render
// amounts as text.
type Currency struct {
	Name            string
	BaseUnit        string
	CaseInsensitive bool

	divisions []Division // descending by value
	coins     []Coin     // descending by value
	patterns  []DescriptionPattern
	byWord    map[string]Division
}

// New validates and builds a Currency. Division values must be strictly
// positive and division names unique; violations are configuration errors.
func New(name, baseUnit string, divisions []Division, coins []Coin, patterns []DescriptionPattern, caseInsensitive bool) (*Currency, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: currency name is empty", ErrInvalidDefinition)
	}
	if len(divisions) == 0 {
		return nil, fmt.Errorf("%w: currency %q has no divisions", ErrInvalidDefinition, name)
	}

	c := &Currency{
		Name:            name,
		BaseUnit:        baseUnit,
		CaseInsensitive: caseInsensitive,
		divisions:       append([]Division(nil), divisions...),
		coins:           append([]Coin(nil), coins...),
		patterns:        append([]DescriptionPattern(nil), patterns...),
		byWord:          make(map[string]Division),
	}

	seen := make(map[string]bool, len(divisions))
	for _, d := range c.divisions {
		if d.Value <= 0 {
			return nil, fmt.Errorf("%w: division %q has non-positive value %d", ErrInvalidDefinition, d.Name, d.Value)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("%w: duplicate division %q", ErrInvalidDefinition, d.Name)
		}
		seen[d.Name] = true

		for _, w := range append([]string{d.PluralWord()}, d.Words...) {
			key := c.foldCase(w)
			if prev, ok := c.byWord[key]; ok && prev.Name != d.Name {
				return nil, fmt.Errorf("%w: word %q claimed by divisions %q and %q", ErrInvalidDefinition, w, prev.Name, d.Name)
			}
			c.byWord[key] = d
		}
	}

	for _, coin := range c.coins {
		if coin.Value <= 0 {
			return nil, fmt.Errorf("%w: coin %q has non-positive value %d", ErrInvalidDefinition, coin.Name, coin.Value)
		}
		if coin.Division != "" && !seen[coin.Division] {
			return nil, fmt.Errorf("%w: coin %q references unknown division %q", ErrInvalidDefinition, coin.Name, coin.Division)
		}
	}

	for _, p := range c.patterns {
		for _, el := range p.Elements {
			if !seen[el.Division] {
				return nil, fmt.Errorf("%w: pattern %q element references unknown division %q", ErrInvalidDefinition, p.Name, el.Division)
			}
		}
	}

	sort.SliceStable(c.divisions, func(i, j int) bool { return c.divisions[i].Value > c.divisions[j].Value })
	sort.SliceStable(c.coins, func(i, j int) bool { return c.coins[i].Value > c.coins[j].Value })

	return c, nil
}

// Divisions returns the divisions in descending value order.
func (c *Currency) Divisions() []Division {
	return append([]Division(nil), c.divisions...)
}

// Coins returns the minted coins in descending value order.
func (c *Currency) Coins() []Coin {
	return append([]Coin(nil), c.coins...)
}

// Division looks a division up by name.
func (c *Currency) Division(name string) (Division, error) {
	for _, d := range c.divisions {
		if d.Name == name {
			return d, nil
		}
	}
	return Division{}, fmt.Errorf("%w: %q in currency %q", ErrUnknownDivision, name, c.Name)
}

func (c *Currency) foldCase(s string) string {
	if c.CaseInsensitive {
		return strings.ToLower(s)
	}
	return s
}
