package currency

import (
	"fmt"
	"strings"
)

// FormatKind selects which family of description patterns applies, e.g. the
// short form used in inventory lists versus the long form used by banks.
type FormatKind string

const (
	FormatLong  FormatKind = "long"
	FormatShort FormatKind = "short"
	FormatBank  FormatKind = "bank"
)

// RoundingMode controls how a pattern element handles base units that do
// not divide evenly into its division.
type RoundingMode int

const (
	// RoundTruncate drops the remainder below this division.
	RoundTruncate RoundingMode = iota
	// RoundNearest rounds the remainder to the nearest whole division.
	RoundNearest
	// RoundNever fails loudly when the amount is not exact. Used where
	// financial correctness outranks convenience.
	RoundNever
)

// PatternElement renders one division within a pattern.
type PatternElement struct {
	Division      string
	Singular      string // overrides the division word when set
	Plural        string
	Rounding      RoundingMode
	ShowIfZero    bool
	SpecialValues map[int64]string // count -> full replacement text
}

// PatternGuard gates a description pattern. A nil guard always matches.
type PatternGuard func(amount int64, kind FormatKind) bool

// DescriptionPattern is one ordered, gated renderer. The first pattern
// whose guard passes wins; a currency should end its list with an
// unguarded default.
type DescriptionPattern struct {
	Name     string
	Guard    PatternGuard
	Elements []PatternElement
}

// Describe renders amount as text using the first eligible pattern. A
// currency configured without any eligible pattern for an amount is a
// configuration error, not a fallback.
func (c *Currency) Describe(amount int64, kind FormatKind) (string, error) {
	if amount < 0 {
		return "", ErrNegativeAmount
	}
	for _, p := range c.patterns {
		if p.Guard != nil && !p.Guard(amount, kind) {
			continue
		}
		return c.render(p, amount)
	}
	return "", fmt.Errorf("%w: currency %q, amount %d, kind %q", ErrNoEligiblePattern, c.Name, amount, kind)
}

func (c *Currency) render(p DescriptionPattern, amount int64) (string, error) {
	remaining := amount
	var parts []string

	for i, el := range p.Elements {
		div, err := c.Division(el.Division)
		if err != nil {
			return "", err
		}
		last := i == len(p.Elements)-1

		count := remaining / div.Value
		rest := remaining % div.Value

		if last && rest != 0 {
			switch el.Rounding {
			case RoundTruncate:
				// remainder dropped
			case RoundNearest:
				if rest*2 >= div.Value {
					count++
				}
			case RoundNever:
				return "", fmt.Errorf("%w: %d base units below division %q", ErrInexactAmount, rest, div.Name)
			}
			rest = 0
		}
		remaining = rest

		if count == 0 && !el.ShowIfZero {
			continue
		}
		parts = append(parts, c.renderElement(el, div, count))
	}

	if len(parts) == 0 {
		// Whole amount rounded away or zero: show an explicit zero of the
		// smallest element rather than an empty string.
		el := p.Elements[len(p.Elements)-1]
		div, err := c.Division(el.Division)
		if err != nil {
			return "", err
		}
		parts = append(parts, c.renderElement(el, div, 0))
	}

	return joinAmountParts(parts), nil
}

func (c *Currency) renderElement(el PatternElement, div Division, count int64) string {
	if text, ok := el.SpecialValues[count]; ok {
		return text
	}
	singular := el.Singular
	if singular == "" {
		singular = div.Singular()
	}
	plural := el.Plural
	if plural == "" {
		if el.Singular != "" {
			plural = el.Singular + "s"
		} else {
			plural = div.PluralWord()
		}
	}
	if count == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// joinAmountParts joins rendered elements the way the game narrates coin
// amounts: "3 talons, 2 shards and 5 motes".
func joinAmountParts(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
