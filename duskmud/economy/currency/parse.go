package currency

import (
	"fmt"
	"strconv"
	"strings"
)

// GetBaseCurrency parses text like "3 talons, 2 shards and 5 motes" into a
// base-unit amount. Every component must name a configured division word;
// unknown tokens or a division named twice fail the parse rather than
// guessing.
func (c *Currency) GetBaseCurrency(text string) (int64, error) {
	fields := tokenise(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty text", ErrUnparsableAmount)
	}

	var total int64
	seen := make(map[string]bool)

	i := 0
	for i < len(fields) {
		count, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: expected a number, got %q", ErrUnparsableAmount, fields[i])
		}
		if count < 0 {
			return 0, fmt.Errorf("%w: negative count %d", ErrUnparsableAmount, count)
		}
		if i+1 >= len(fields) {
			return 0, fmt.Errorf("%w: dangling number %q", ErrUnparsableAmount, fields[i])
		}
		word := c.foldCase(fields[i+1])
		div, ok := c.byWord[word]
		if !ok {
			return 0, fmt.Errorf("%w: unknown division word %q", ErrUnparsableAmount, fields[i+1])
		}
		if seen[div.Name] {
			return 0, fmt.Errorf("%w: division %q given twice", ErrAmbiguousAmount, div.Name)
		}
		seen[div.Name] = true
		total += count * div.Value
		i += 2
	}

	return total, nil
}

// TryGetBaseCurrency is the non-erroring form used by command handlers that
// fall through to other argument interpretations.
func (c *Currency) TryGetBaseCurrency(text string) (int64, bool) {
	amount, err := c.GetBaseCurrency(text)
	return amount, err == nil
}

// tokenise splits amount text into fields, dropping the connective noise
// words the narrator inserts.
func tokenise(text string) []string {
	cleaned := strings.NewReplacer(",", " ", ";", " ").Replace(text)
	raw := strings.Fields(cleaned)
	fields := raw[:0]
	for _, f := range raw {
		switch strings.ToLower(f) {
		case "and", "&":
			continue
		}
		fields = append(fields, f)
	}
	return fields
}
