package shop

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"

	"github.com/duskmud/engine/duskmud/economy"
	"github.com/duskmud/engine/duskmud/economy/ledger"
)

// CreditAccount is a customer's line of credit with one shop: a limit,
// the balance outstanding against it, and other characters authorised to
// charge to it, each with an optional personal limit.
type CreditAccount struct {
	Customer    string
	Limit       int64
	Outstanding int64

	authorised map[string]int64
}

// Available is the headroom left on the line.
func (c *CreditAccount) Available() int64 {
	if c.Outstanding >= c.Limit {
		return 0
	}
	return c.Limit - c.Outstanding
}

func (c *CreditAccount) mayCharge(actor string, amount int64) error {
	if actor != c.Customer {
		personal, ok := c.authorised[actor]
		if !ok {
			return ledger.ErrNotAuthorised
		}
		if personal != ledger.Unlimited && amount > personal {
			return fmt.Errorf("%w: personal limit %d", ErrCreditLimitExceeded, personal)
		}
	}
	if amount > c.Available() {
		return fmt.Errorf("%w: %d available", ErrCreditLimitExceeded, c.Available())
	}
	return nil
}

// OpenCreditAccount extends a line of credit to a customer. Manager-only.
func (s *Shop) OpenCreditAccount(actor, customer string, limit int64) (*CreditAccount, error) {
	if !s.isManager(actor) {
		return nil, ErrNotManager
	}
	if _, exists := s.credit[customer]; exists {
		return nil, fmt.Errorf("%w: %q", ErrCreditAccountExists, customer)
	}
	c := &CreditAccount{Customer: customer, Limit: limit, authorised: make(map[string]int64)}
	s.credit[customer] = c
	return c, nil
}

// CreditAccountFor looks up a customer's line of credit.
func (s *Shop) CreditAccountFor(customer string) (*CreditAccount, error) {
	c, ok := s.credit[customer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCreditAccount, customer)
	}
	return c, nil
}

// AuthoriseCreditUser lets another character charge to the customer's
// line, optionally capped. Only the customer grants access.
func (s *Shop) AuthoriseCreditUser(customer, user string, limit *int64) error {
	c, err := s.CreditAccountFor(customer)
	if err != nil {
		return err
	}
	if limit == nil {
		c.authorised[user] = ledger.Unlimited
	} else {
		c.authorised[user] = *limit
	}
	return nil
}

// ChargeToCredit completes a sale against the customer's line instead of
// immediate payment: stock moves now, the till is made whole at
// settlement.
func (s *Shop) ChargeToCredit(ctx context.Context, customer, actor, item string, quantity int64) (*TransactionRecord, error) {
	now := s.clock.CurrentDateTime()
	s.Restock(now)

	c, err := s.CreditAccountFor(customer)
	if err != nil {
		return nil, err
	}
	m, ok := s.merchandise[item]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMerchandise, item)
	}
	pretax, tax, err := s.SalePrice(item, quantity, now)
	if err != nil {
		return nil, err
	}
	if m.Stock < quantity {
		return nil, fmt.Errorf("%w: %q has %d of %d requested", ErrOutOfStock, item, m.Stock, quantity)
	}
	total := pretax + tax
	if err := c.mayCharge(actor, total); err != nil {
		return nil, err
	}

	c.Outstanding += total
	m.Stock -= quantity

	rec := s.append(TransactionRecord{
		Type: RecordCreditCharge, Item: item, Quantity: quantity,
		Pretax: pretax, Tax: tax, Net: total,
		Customer: customer, At: now,
	})
	s.record(ctx, economy.ChangeCreditCharge, rec)
	return rec, nil
}

// SettleCredit pays down the customer's outstanding balance from a bank
// account into the till. Overpayment is refused.
func (s *Shop) SettleCredit(ctx context.Context, customer string, account snowflake.ID, amount int64) error {
	c, err := s.CreditAccountFor(customer)
	if err != nil {
		return err
	}
	if amount <= 0 || amount > c.Outstanding {
		return fmt.Errorf("settle %d against %d outstanding: %w", amount, c.Outstanding, ErrCreditLimitExceeded)
	}
	if _, err := s.ldg.Transfer(ctx, customer, account, s.TillAccount, amount, fmt.Sprintf("%s: credit settlement", s.Name)); err != nil {
		return fmt.Errorf("credit settlement failed: %w", err)
	}
	c.Outstanding -= amount

	rec := s.append(TransactionRecord{
		Type: RecordCreditSettle, Pretax: amount, Net: amount,
		Customer: customer, At: s.clock.CurrentDateTime(),
	})
	s.record(ctx, economy.ChangeCreditSettle, rec)
	return nil
}

// CloseCreditAccount ends the line. Only permitted at zero outstanding.
func (s *Shop) CloseCreditAccount(actor, customer string) error {
	if !s.isManager(actor) {
		return ErrNotManager
	}
	c, err := s.CreditAccountFor(customer)
	if err != nil {
		return err
	}
	if c.Outstanding != 0 {
		return fmt.Errorf("%w: %d", ErrCreditOutstanding, c.Outstanding)
	}
	delete(s.credit, customer)
	return nil
}
