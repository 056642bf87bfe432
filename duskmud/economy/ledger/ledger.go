// Package ledger implements the account and ledger system: banks, bank
// accounts, authorised users and the single debit+credit transfer primitive
// every money movement in the engine funnels through.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duskmud/engine/duskmud/economy"
)

// Ledger owns every bank and account in one economic zone. All mutating
// calls run to completion within one scheduler tick, so the ledger carries
// no internal locking; callers serialise through the game loop.
type Ledger struct {
	clock    economy.Clock
	recorder economy.Recorder

	ids      *economy.IDGenerator
	banks    map[snowflake.ID]*Bank
	accounts map[snowflake.ID]*Account
}

func New(clock economy.Clock, recorder economy.Recorder) *Ledger {
	if clock == nil {
		panic("ledger clock cannot be nil")
	}
	if recorder == nil {
		recorder = economy.NopRecorder{}
	}
	return &Ledger{
		clock:    clock,
		recorder: recorder,
		ids:      economy.NewIDGenerator(),
		banks:    make(map[snowflake.ID]*Bank),
		accounts: make(map[snowflake.ID]*Account),
	}
}

// CreateBank registers a new bank with an empty reserve and rate table.
func (l *Ledger) CreateBank(name, primaryCurrency string) *Bank {
	b := newBank(l.ids.Next(l.clock.CurrentDateTime()), name, primaryCurrency)
	l.banks[b.ID] = b
	return b
}

// Bank resolves a bank by id.
func (l *Ledger) Bank(id snowflake.ID) (*Bank, error) {
	b, ok := l.banks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBank, id)
	}
	return b, nil
}

// OpenAccount opens an active account at the given bank.
func (l *Ledger) OpenAccount(bankID snowflake.ID, owner economy.Owner, currency string) (*Account, error) {
	if _, err := l.Bank(bankID); err != nil {
		return nil, err
	}
	a := newAccount(l.ids.Next(l.clock.CurrentDateTime()), bankID, owner, currency)
	l.accounts[a.ID] = a
	return a, nil
}

// Account resolves an account by id.
func (l *Ledger) Account(id snowflake.ID) (*Account, error) {
	a, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	return a, nil
}

// TransferReceipt reports the two sides of a completed transfer.
type TransferReceipt struct {
	Ref        uuid.UUID
	Debited    int64
	Credited   int64
	Rate       decimal.Decimal
	CrossBank  bool
	Reference  string
}

// Transfer moves amount from one account to another as a single two-sided,
// value-conserving update: validate everything, then apply both entries, or
// apply nothing. Currency conversion uses the source bank's rate table and
// fails wholesale when no rate is configured. Reserves adjust only when the
// transfer crosses banks.
func (l *Ledger) Transfer(ctx context.Context, actor string, fromID, toID snowflake.ID, amount int64, reference string) (*TransferReceipt, error) {
	from, err := l.Account(fromID)
	if err != nil {
		return nil, err
	}
	to, err := l.Account(toID)
	if err != nil {
		return nil, err
	}

	if err := from.canDebit(actor, amount); err != nil {
		return nil, fmt.Errorf("transfer from %s: %w", fromID, err)
	}
	if err := to.canCredit(amount); err != nil {
		return nil, fmt.Errorf("transfer to %s: %w", toID, err)
	}

	rate := decimal.NewFromInt(1)
	credited := amount
	if from.Currency != to.Currency {
		fromBank := l.banks[from.BankID]
		r, ok := fromBank.ExchangeRate(from.Currency, to.Currency)
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s at %s", ErrNoExchangeRate, from.Currency, to.Currency, fromBank.Name)
		}
		rate = r
		credited = decimal.NewFromInt(amount).Mul(rate).Floor().IntPart()
		if credited <= 0 {
			return nil, fmt.Errorf("%w: %d %s converts below one %s", ErrNonPositiveAmount, amount, from.Currency, to.Currency)
		}
	}

	now := l.clock.CurrentDateTime()
	ref := uuid.New()

	from.balance -= amount
	from.outstanding += amount
	from.append(Transaction{
		Ref: ref, Type: TxTransferOut,
		Pretax: amount, Net: amount,
		Counterparty: to.ID, Reference: reference, At: now,
	})

	to.balance += credited
	to.append(Transaction{
		Ref: ref, Type: TxTransferIn,
		Pretax: credited, Net: credited,
		Counterparty: from.ID, Reference: reference, At: now,
	})

	crossBank := from.BankID != to.BankID
	if crossBank {
		l.banks[from.BankID].reserves[from.Currency] -= amount
		l.banks[to.BankID].reserves[to.Currency] += credited
	}

	receipt := &TransferReceipt{
		Ref: ref, Debited: amount, Credited: credited,
		Rate: rate, CrossBank: crossBank, Reference: reference,
	}
	l.record(ctx, economy.Change{
		Kind: economy.ChangeTransfer, Ref: ref.String(), At: now,
		Detail: map[string]any{
			"from": fromID.String(), "to": toID.String(),
			"debited": amount, "credited": credited, "reference": reference,
		},
	})
	return receipt, nil
}

// Deposit books physical cash into an account: balance and bank reserve
// both rise by the deposited amount.
func (l *Ledger) Deposit(ctx context.Context, accountID snowflake.ID, amount int64, reference string) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	if err := a.canCredit(amount); err != nil {
		return err
	}
	now := l.clock.CurrentDateTime()
	ref := uuid.New()
	a.balance += amount
	a.append(Transaction{Ref: ref, Type: TxDeposit, Pretax: amount, Net: amount, Reference: reference, At: now})
	l.banks[a.BankID].reserves[a.Currency] += amount

	l.record(ctx, economy.Change{
		Kind: economy.ChangeDeposit, Ref: ref.String(), At: now,
		Detail: map[string]any{"account": accountID.String(), "amount": amount, "reference": reference},
	})
	return nil
}

// CanWithdraw reports, without mutating, whether the actor could withdraw
// amount right now. A nil error means yes; otherwise the error names the
// reason.
func (l *Ledger) CanWithdraw(actor string, accountID snowflake.ID, amount int64) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	return a.canDebit(actor, amount)
}

// Withdraw books physical cash out of an account.
func (l *Ledger) Withdraw(ctx context.Context, actor string, accountID snowflake.ID, amount int64, reference string) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	if err := a.canDebit(actor, amount); err != nil {
		return err
	}
	now := l.clock.CurrentDateTime()
	ref := uuid.New()
	a.balance -= amount
	a.outstanding += amount
	a.append(Transaction{Ref: ref, Type: TxWithdrawal, Pretax: amount, Net: amount, Reference: reference, At: now})
	l.banks[a.BankID].reserves[a.Currency] -= amount

	l.record(ctx, economy.Change{
		Kind: economy.ChangeWithdrawal, Ref: ref.String(), At: now,
		Detail: map[string]any{"account": accountID.String(), "amount": amount, "reference": reference},
	})
	return nil
}

// AuthoriseUser grants an actor access to the account with an optional
// personal limit. Only the owner may manage authorised users.
func (l *Ledger) AuthoriseUser(owner string, accountID snowflake.ID, userID string, limit *int64) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	if !a.IsOwner(owner) {
		return ErrNotOwner
	}
	if a.status == StatusClosed {
		return ErrAccountClosed
	}
	if limit == nil {
		a.authorised[userID] = Unlimited
	} else {
		a.authorised[userID] = *limit
	}
	return nil
}

// RevokeUser removes an authorised user.
func (l *Ledger) RevokeUser(owner string, accountID snowflake.ID, userID string) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	if !a.IsOwner(owner) {
		return ErrNotOwner
	}
	delete(a.authorised, userID)
	return nil
}

// SetSpendingLimit caps the account's per-period outflow. A nil limit
// removes the cap.
func (l *Ledger) SetSpendingLimit(owner string, accountID snowflake.ID, limit *int64) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	if !a.IsOwner(owner) {
		return ErrNotOwner
	}
	if limit == nil {
		a.spendingLimit = Unlimited
	} else {
		a.spendingLimit = *limit
	}
	return nil
}

// ResetOutstanding rolls the spending period over, typically at the game
// calendar's day boundary.
func (l *Ledger) ResetOutstanding(accountID snowflake.ID) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	a.outstanding = 0
	return nil
}

// Suspend stops all spending on the account until reinstated.
func (l *Ledger) Suspend(accountID snowflake.ID) error {
	return l.setStatus(accountID, StatusSuspended)
}

// Lock freezes the account entirely, deposits included.
func (l *Ledger) Lock(accountID snowflake.ID) error {
	return l.setStatus(accountID, StatusLocked)
}

// Reinstate returns a suspended or locked account to active.
func (l *Ledger) Reinstate(accountID snowflake.ID) error {
	return l.setStatus(accountID, StatusActive)
}

// Close permanently closes an account. Only permitted at zero balance;
// Closed is terminal.
func (l *Ledger) Close(owner string, accountID snowflake.ID) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	if !a.IsOwner(owner) {
		return ErrNotOwner
	}
	if a.balance != 0 {
		return fmt.Errorf("%w: %d %s remaining", ErrBalanceRemaining, a.balance, a.Currency)
	}
	return l.setStatus(accountID, StatusClosed)
}

func (l *Ledger) setStatus(accountID snowflake.ID, status Status) error {
	a, err := l.Account(accountID)
	if err != nil {
		return err
	}
	if a.status == StatusClosed {
		return ErrAccountClosed
	}
	a.status = status
	l.record(context.Background(), economy.Change{
		Kind: economy.ChangeAccountStatus, Ref: accountID.String(), At: l.clock.CurrentDateTime(),
		Detail: map[string]any{"status": string(status)},
	})
	return nil
}

// record hands a committed mutation to the persistence hook. Persistence
// failures are logged, never propagated back into the simulation.
func (l *Ledger) record(ctx context.Context, change economy.Change) {
	if err := l.recorder.Record(ctx, change); err != nil {
		slog.Error("Failed to record ledger change",
			slog.String("type", "db"),
			slog.String("kind", string(change.Kind)),
			slog.String("ref", change.Ref),
			slog.Any("error", err))
	}
}
