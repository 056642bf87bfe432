package ledger

import "errors"

var (
	ErrUnknownAccount    = errors.New("unknown account")
	ErrUnknownBank       = errors.New("unknown bank")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotAuthorised     = errors.New("not authorised on account")
	ErrOverLimit         = errors.New("amount exceeds authorised limit")
	ErrAccountSuspended  = errors.New("account is suspended")
	ErrAccountLocked     = errors.New("account is locked")
	ErrAccountClosed     = errors.New("account is closed")
	ErrNoExchangeRate    = errors.New("no exchange rate configured")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrBalanceRemaining  = errors.New("account still holds a balance")
	ErrNotOwner          = errors.New("only the owner may do this")
)
