package ledger

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/shopspring/decimal"
)

type ratePair struct {
	from, to string
}

// Bank holds accounts, a cash reserve per currency and an exchange-rate
// table keyed by (from, to) currency. Reserves move only when a transfer
// crosses banks or when physical cash enters or leaves the vault.
type Bank struct {
	ID              snowflake.ID
	Name            string
	PrimaryCurrency string

	reserves map[string]int64
	rates    map[ratePair]decimal.Decimal
}

func newBank(id snowflake.ID, name, primaryCurrency string) *Bank {
	return &Bank{
		ID:              id,
		Name:            name,
		PrimaryCurrency: primaryCurrency,
		reserves:        make(map[string]int64),
		rates:           make(map[ratePair]decimal.Decimal),
	}
}

// SetExchangeRate configures the rate applied when converting from one
// currency to another on transfers leaving this bank.
func (b *Bank) SetExchangeRate(from, to string, rate decimal.Decimal) {
	b.rates[ratePair{from, to}] = rate
}

// ExchangeRate looks up the configured rate for a currency pair.
func (b *Bank) ExchangeRate(from, to string) (decimal.Decimal, bool) {
	rate, ok := b.rates[ratePair{from, to}]
	return rate, ok
}

// Reserve returns the bank's cash reserve for a currency.
func (b *Bank) Reserve(currency string) int64 {
	return b.reserves[currency]
}

// AddReserve seeds or tops up the bank's vault, e.g. at world load.
func (b *Bank) AddReserve(currency string, amount int64) {
	b.reserves[currency] += amount
}
