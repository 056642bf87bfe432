package ledger

import (
	"math"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"

	"github.com/duskmud/engine/duskmud/economy"
)

// Status is the lifecycle state of a bank account. Closed is terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusLocked    Status = "locked"
	StatusClosed    Status = "closed"
)

// TxType classifies a ledger transaction entry.
type TxType string

const (
	TxDeposit     TxType = "deposit"
	TxWithdrawal  TxType = "withdrawal"
	TxTransferIn  TxType = "transfer_in"
	TxTransferOut TxType = "transfer_out"
	TxFee         TxType = "fee"
)

// Unlimited is the sentinel for "no configured limit".
const Unlimited = int64(math.MaxInt64)

// Transaction is one immutable entry in an account's append-only history.
// Balance changes happen only through a logged transaction.
type Transaction struct {
	Ref          uuid.UUID
	Type         TxType
	Pretax       int64
	Tax          int64
	Net          int64
	Counterparty snowflake.ID // zero when the other side is physical cash
	Reference    string
	At           time.Time
}

// Account is a bank account: one owner, a status, a balance in the
// account's currency, an optional spending limit and a set of authorised
// users each with an optional personal limit.
type Account struct {
	ID       snowflake.ID
	BankID   snowflake.ID
	Owner    economy.Owner
	Currency string

	status        Status
	balance       int64
	spendingLimit int64 // Unlimited when unset
	outstanding   int64 // outflow counted against the limit this period
	authorised    map[string]int64
	history       []Transaction
}

func newAccount(id, bankID snowflake.ID, owner economy.Owner, cur string) *Account {
	return &Account{
		ID:            id,
		BankID:        bankID,
		Owner:         owner,
		Currency:      cur,
		status:        StatusActive,
		spendingLimit: Unlimited,
		authorised:    make(map[string]int64),
	}
}

func (a *Account) Status() Status { return a.status }
func (a *Account) Balance() int64 { return a.balance }

// Outstanding is the outflow charged against the spending limit since the
// last period rollover.
func (a *Account) Outstanding() int64 { return a.outstanding }

// History returns a copy of the append-only transaction log.
func (a *Account) History() []Transaction {
	return append([]Transaction(nil), a.history...)
}

// IsOwner reports whether the actor is the owning character. Clan and shop
// accounts treat the stored owner id as the acting principal's id.
func (a *Account) IsOwner(actor string) bool {
	return a.Owner.ID == actor
}

// IsAuthorised reports whether the actor may draw on the account at all.
// The owner is always authorised.
func (a *Account) IsAuthorised(actor string) bool {
	if a.IsOwner(actor) {
		return true
	}
	_, ok := a.authorised[actor]
	return ok
}

// MaximumAuthorisedToUse returns the most the actor may withdraw or
// transfer right now: the account limit minus outstanding spend, further
// capped by the actor's personal limit when one is set. Unlimited means no
// configured cap; the balance check is separate.
func (a *Account) MaximumAuthorisedToUse(actor string) int64 {
	if !a.IsAuthorised(actor) {
		return 0
	}
	remaining := Unlimited
	if a.spendingLimit != Unlimited {
		remaining = a.spendingLimit - a.outstanding
		if remaining < 0 {
			remaining = 0
		}
	}
	if !a.IsOwner(actor) {
		if personal := a.authorised[actor]; personal != Unlimited && personal < remaining {
			remaining = personal
		}
	}
	return remaining
}

// AuthorisedUsers returns the actor ids granted access, excluding the owner.
func (a *Account) AuthorisedUsers() map[string]int64 {
	out := make(map[string]int64, len(a.authorised))
	for k, v := range a.authorised {
		out[k] = v
	}
	return out
}

func (a *Account) append(tx Transaction) {
	a.history = append(a.history, tx)
}

// canDebit checks everything a withdrawal or transfer-out needs, without
// mutating. Returns nil when the debit would succeed.
func (a *Account) canDebit(actor string, amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	switch a.status {
	case StatusSuspended:
		return ErrAccountSuspended
	case StatusLocked:
		return ErrAccountLocked
	case StatusClosed:
		return ErrAccountClosed
	}
	if !a.IsAuthorised(actor) {
		return ErrNotAuthorised
	}
	if amount > a.MaximumAuthorisedToUse(actor) {
		return ErrOverLimit
	}
	if amount > a.balance {
		return ErrInsufficientFunds
	}
	return nil
}

// canCredit checks that the account may receive funds.
func (a *Account) canCredit(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	switch a.status {
	case StatusLocked:
		return ErrAccountLocked
	case StatusClosed:
		return ErrAccountClosed
	}
	return nil
}
