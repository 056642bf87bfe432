package currency

import (
	"fmt"
	"sort"
)

// CoinSelection is the result of change-making: a multiset of coins plus
// any base-unit remainder the coin set could not represent. The remainder
// is reported, never silently dropped.
type CoinSelection struct {
	Counts    map[string]int64 // coin name -> count
	Total     int64
	Shortfall int64
}

// FindCoinsForAmount converts an abstract amount into concrete coins using
// deterministic greedy change-making: repeatedly take the highest-value coin
// not exceeding the remainder, at the largest count that does not overshoot,
// then move to smaller coins. The selection never overshoots the amount.
func (c *Currency) FindCoinsForAmount(amount int64) (CoinSelection, error) {
	if amount < 0 {
		return CoinSelection{}, ErrNegativeAmount
	}

	sel := CoinSelection{Counts: make(map[string]int64)}
	remaining := amount
	for _, coin := range c.coins {
		if coin.Value > remaining {
			continue
		}
		count := remaining / coin.Value
		sel.Counts[coin.Name] = count
		sel.Total += count * coin.Value
		remaining -= count * coin.Value
	}

	sel.Shortfall = remaining
	if remaining != 0 {
		return sel, fmt.Errorf("%w: %d base units of %s have no coin representation", ErrInexactAmount, remaining, c.Name)
	}
	return sel, nil
}

// Pile is an existing stack of identical coins, e.g. the contents of a
// purse or a till drawer. Ref is opaque to the codec and lets callers map
// a selection back to the physical pile.
type Pile struct {
	Ref   string
	Coin  Coin
	Count int64
}

// PileSelection records how many coins to take from each candidate pile.
// Overshoot is the value taken beyond the target; zero means exact match.
type PileSelection struct {
	Take      map[string]int64 // pile ref -> count
	Total     int64
	Overshoot int64
}

// FindCurrency picks a least-wasteful combination of existing piles meeting
// or exceeding target: an exact match is preferred, then minimal overshoot.
// Unselected piles are left intact. If the piles cannot reach the target at
// all the insufficiency is reported.
func (c *Currency) FindCurrency(piles []Pile, target int64) (PileSelection, error) {
	if target < 0 {
		return PileSelection{}, ErrNegativeAmount
	}
	sel := PileSelection{Take: make(map[string]int64)}
	if target == 0 {
		return sel, nil
	}

	var available int64
	for _, p := range piles {
		available += p.Coin.Value * p.Count
	}
	if available < target {
		return sel, fmt.Errorf("%w: piles hold %d of %d base units", ErrInsufficientCoins, available, target)
	}

	// Largest coins first, never overshooting. Ties broken by pile ref so
	// the selection is deterministic for a given pile set.
	ordered := append([]Pile(nil), piles...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Coin.Value != ordered[j].Coin.Value {
			return ordered[i].Coin.Value > ordered[j].Coin.Value
		}
		return ordered[i].Ref < ordered[j].Ref
	})

	// Exact combinations first: the greedy passes below can walk past one,
	// taking 25+10 for a target of 30 when three 10s would fit.
	if take, ok := exactPileSubset(ordered, target); ok {
		sel.Take = take
		sel.Total = target
		return sel, nil
	}

	remaining := target
	for _, p := range ordered {
		if p.Coin.Value > remaining || p.Count == 0 {
			continue
		}
		count := remaining / p.Coin.Value
		if count > p.Count {
			count = p.Count
		}
		if count == 0 {
			continue
		}
		sel.Take[p.Ref] += count
		sel.Total += count * p.Coin.Value
		remaining -= count * p.Coin.Value
	}

	if remaining == 0 {
		return sel, nil
	}

	// No exact fit: cover the rest with the smallest coins that close the
	// gap, which keeps the overshoot minimal for a greedy pass.
	for i := len(ordered) - 1; i >= 0 && remaining > 0; i-- {
		p := ordered[i]
		left := p.Count - sel.Take[p.Ref]
		if left == 0 {
			continue
		}
		need := remaining / p.Coin.Value
		if remaining%p.Coin.Value != 0 {
			need++
		}
		if need > left {
			need = left
		}
		sel.Take[p.Ref] += need
		sel.Total += need * p.Coin.Value
		remaining -= need * p.Coin.Value
	}

	if remaining > 0 {
		return sel, fmt.Errorf("%w: short %d base units after selection", ErrInsufficientCoins, remaining)
	}
	sel.Overshoot = sel.Total - target
	return sel, nil
}

// exactSearchLimit bounds the exact subset search. Targets beyond it fall
// through to the greedy passes; coin targets in play stay far below this.
const exactSearchLimit = 1 << 16

// exactPileSubset looks for a combination of pile coins summing to exactly
// target, via a bounded-count reachability table over base-unit sums. Each
// sum is first reached at exactly one pile stage, so walking the stages
// backwards reconstructs the counts.
func exactPileSubset(ordered []Pile, target int64) (map[string]int64, bool) {
	if target > exactSearchLimit {
		return nil, false
	}
	t := int(target)
	reach := make([]bool, t+1)
	reach[0] = true
	taken := make([][]int64, len(ordered))

	for i, p := range ordered {
		v := int(p.Coin.Value)
		if v <= 0 || v > t || p.Count == 0 {
			continue
		}
		cnt := make([]int64, t+1)
		for x := v; x <= t; x++ {
			if reach[x] {
				continue
			}
			if reach[x-v] && cnt[x-v] < p.Count {
				reach[x] = true
				cnt[x] = cnt[x-v] + 1
			}
		}
		taken[i] = cnt
	}
	if !reach[t] {
		return nil, false
	}

	take := make(map[string]int64)
	x := t
	for i := len(ordered) - 1; i >= 0 && x > 0; i-- {
		if taken[i] == nil {
			continue
		}
		k := taken[i][x]
		if k == 0 {
			continue
		}
		take[ordered[i].Ref] += k
		x -= int(k) * int(ordered[i].Coin.Value)
	}
	if x != 0 {
		return nil, false
	}
	return take, true
}
