// Package shop implements player-facing shops: a till backed by a bank
// account, priced merchandise that follows the market, immutable sale
// records and line-of-credit accounts for trusted customers.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duskmud/engine/duskmud/economy"
	"github.com/duskmud/engine/duskmud/economy/ledger"
	"github.com/duskmud/engine/duskmud/economy/market"
)

var (
	ErrUnknownMerchandise   = errors.New("unknown merchandise")
	ErrOutOfStock           = errors.New("out of stock")
	ErrStockFull            = errors.New("stock at capacity")
	ErrNotEmployee          = errors.New("not an employee of this shop")
	ErrNotManager           = errors.New("requires manager or proprietor")
	ErrUnknownCreditAccount = errors.New("no credit account for customer")
	ErrCreditAccountExists  = errors.New("customer already has a credit account")
	ErrCreditLimitExceeded  = errors.New("charge exceeds available credit")
	ErrCreditOutstanding    = errors.New("credit account has an outstanding balance")
	ErrNonPositiveQuantity  = errors.New("quantity must be positive")
)

// RecordType classifies a shop transaction record.
type RecordType string

const (
	RecordSale         RecordType = "sale"
	RecordPurchase     RecordType = "purchase"
	RecordCreditCharge RecordType = "credit_charge"
	RecordCreditSettle RecordType = "credit_settle"
)

// TransactionRecord is one immutable entry in a shop's trading history.
type TransactionRecord struct {
	Ref      uuid.UUID
	Type     RecordType
	Item     string
	Quantity int64
	Pretax   int64
	Tax      int64
	Net      int64
	Customer string
	At       time.Time
}

// Employee is a shop worker. Managers run stock and credit; the
// proprietor additionally hires and fires.
type Employee struct {
	Character  string
	Manager    bool
	Proprietor bool
}

// Shop trades merchandise for one zone's market. The till is an ordinary
// bank account owned by the shop, so every sale and settlement moves
// through the ledger's transfer primitive.
type Shop struct {
	ID          snowflake.ID
	Name        string
	Currency    string
	TillAccount snowflake.ID

	ldg      *ledger.Ledger
	market   *market.Market
	clock    economy.Clock
	recorder economy.Recorder

	taxRate    decimal.Decimal // applied on top of each sale
	buybackPct decimal.Decimal // fraction of market price paid when buying from customers

	employees   map[string]Employee
	merchandise map[string]*Merchandise
	credit      map[string]*CreditAccount
	records     []TransactionRecord
}

type Config struct {
	Name        string
	Currency    string
	TillAccount snowflake.ID
	Proprietor  string
	TaxRate     decimal.Decimal
	BuybackPct  decimal.Decimal
}

func New(cfg Config, ldg *ledger.Ledger, mkt *market.Market, clock economy.Clock, recorder economy.Recorder) (*Shop, error) {
	if ldg == nil || mkt == nil {
		return nil, errors.New("shop requires a ledger and a market")
	}
	if clock == nil {
		panic("shop clock cannot be nil")
	}
	if recorder == nil {
		recorder = economy.NopRecorder{}
	}
	if _, err := ldg.Account(cfg.TillAccount); err != nil {
		return nil, fmt.Errorf("till account: %w", err)
	}
	if cfg.BuybackPct.IsZero() {
		cfg.BuybackPct = decimal.RequireFromString("0.5")
	}
	s := &Shop{
		ID:          economy.NewIDGenerator().Next(clock.CurrentDateTime()),
		Name:        cfg.Name,
		Currency:    cfg.Currency,
		TillAccount: cfg.TillAccount,
		ldg:         ldg,
		market:      mkt,
		clock:       clock,
		recorder:    recorder,
		taxRate:     cfg.TaxRate,
		buybackPct:  cfg.BuybackPct,
		employees:   make(map[string]Employee),
		merchandise: make(map[string]*Merchandise),
		credit:      make(map[string]*CreditAccount),
	}
	s.employees[cfg.Proprietor] = Employee{Character: cfg.Proprietor, Manager: true, Proprietor: true}
	return s, nil
}

func (s *Shop) isManager(actor string) bool {
	e, ok := s.employees[actor]
	return ok && (e.Manager || e.Proprietor)
}

func (s *Shop) isProprietor(actor string) bool {
	e, ok := s.employees[actor]
	return ok && e.Proprietor
}

// Hire adds or updates an employee. Only the proprietor manages staff.
func (s *Shop) Hire(actor string, e Employee) error {
	if !s.isProprietor(actor) {
		return ErrNotManager
	}
	s.employees[e.Character] = e
	return nil
}

// Fire removes an employee. The proprietor cannot be fired.
func (s *Shop) Fire(actor, character string) error {
	if !s.isProprietor(actor) {
		return ErrNotManager
	}
	if e, ok := s.employees[character]; ok && e.Proprietor {
		return ErrNotManager
	}
	delete(s.employees, character)
	return nil
}

// SalePrice quotes a line of merchandise at now: base price scaled by the
// market multiplier, rounded up, plus tax.
func (s *Shop) SalePrice(item string, quantity int64, now time.Time) (pretax, tax int64, err error) {
	m, ok := s.merchandise[item]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownMerchandise, item)
	}
	if quantity <= 0 {
		return 0, 0, ErrNonPositiveQuantity
	}
	mult, err := s.market.PriceMultiplierForTag(m.Tag, now)
	if err != nil {
		return 0, 0, err
	}
	unit := decimal.NewFromInt(m.BasePrice).Mul(mult).Ceil().IntPart()
	if unit < 1 {
		unit = 1
	}
	pretax = unit * quantity
	tax = decimal.NewFromInt(pretax).Mul(s.taxRate).Floor().IntPart()
	return pretax, tax, nil
}

// BuybackPrice quotes what the shop pays when buying an item in from a
// customer: the market price scaled by the buyback fraction. No tax.
func (s *Shop) BuybackPrice(item string, quantity int64, now time.Time) (int64, error) {
	m, ok := s.merchandise[item]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMerchandise, item)
	}
	if quantity <= 0 {
		return 0, ErrNonPositiveQuantity
	}
	mult, err := s.market.PriceMultiplierForTag(m.Tag, now)
	if err != nil {
		return 0, err
	}
	unit := decimal.NewFromInt(m.BasePrice).Mul(mult).Mul(s.buybackPct).Floor().IntPart()
	if unit < 1 {
		unit = 1
	}
	return unit * quantity, nil
}

// Sell completes a sale to a customer paying from a bank account. Stock
// moves only after payment clears; the tax share stays in the till and is
// surfaced through the records.
func (s *Shop) Sell(ctx context.Context, customer string, account snowflake.ID, item string, quantity int64) (*TransactionRecord, error) {
	now := s.clock.CurrentDateTime()
	s.Restock(now)

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
	if _, err := s.ldg.Transfer(ctx, customer, account, s.TillAccount, total, fmt.Sprintf("%s: %d x %s", s.Name, quantity, item)); err != nil {
		return nil, fmt.Errorf("sale payment failed: %w", err)
	}
	m.Stock -= quantity

	rec := s.append(TransactionRecord{
		Type: RecordSale, Item: item, Quantity: quantity,
		Pretax: pretax, Tax: tax, Net: total,
		Customer: customer, At: now,
	})
	s.record(ctx, economy.ChangeShopSale, rec)
	return rec, nil
}

// BuyFrom completes the shop purchasing an item from a customer, paying
// out of the till. Refused when the line's stock is at capacity.
func (s *Shop) BuyFrom(ctx context.Context, customer string, account snowflake.ID, item string, quantity int64) (*TransactionRecord, error) {
	now := s.clock.CurrentDateTime()
	s.Restock(now)

	m, ok := s.merchandise[item]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMerchandise, item)
	}
	price, err := s.BuybackPrice(item, quantity, now)
	if err != nil {
		return nil, err
	}
	if m.Policy.MaxStock > 0 && m.Stock+quantity > m.Policy.MaxStock {
		return nil, fmt.Errorf("%w: %q", ErrStockFull, item)
	}

	till, _ := s.ldg.Account(s.TillAccount)
	owner := till.Owner.ID
	if _, err := s.ldg.Transfer(ctx, owner, s.TillAccount, account, price, fmt.Sprintf("%s buys %d x %s", s.Name, quantity, item)); err != nil {
		return nil, fmt.Errorf("buyback payment failed: %w", err)
	}
	m.Stock += quantity

	rec := s.append(TransactionRecord{
		Type: RecordPurchase, Item: item, Quantity: quantity,
		Pretax: price, Net: price,
		Customer: customer, At: now,
	})
	s.record(ctx, economy.ChangeShopPurchase, rec)
	return rec, nil
}

// Records returns a copy of the trading history.
func (s *Shop) Records() []TransactionRecord {
	return append([]TransactionRecord(nil), s.records...)
}

func (s *Shop) append(rec TransactionRecord) *TransactionRecord {
	rec.Ref = uuid.New()
	s.records = append(s.records, rec)
	return &s.records[len(s.records)-1]
}

func (s *Shop) record(ctx context.Context, kind economy.ChangeKind, rec *TransactionRecord) {
	err := s.recorder.Record(ctx, economy.Change{
		Kind: kind, Ref: rec.Ref.String(), At: rec.At,
		Detail: map[string]any{
			"shop": s.Name, "item": rec.Item, "quantity": rec.Quantity,
			"pretax": rec.Pretax, "tax": rec.Tax, "net": rec.Net, "customer": rec.Customer,
		},
	})
	if err != nil {
		slog.Error("Failed to record shop change",
			slog.String("type", "db"),
			slog.String("shop", s.Name),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
	}
}
