package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskmud/engine/duskmud/economy"
)

var testTime = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() economy.Clock {
	return economy.ClockFunc(func() time.Time { return testTime })
}

func testLedger(t *testing.T) (*Ledger, *Bank) {
	t.Helper()
	l := New(fixedClock(), economy.NopRecorder{})
	b := l.CreateBank("First Bank of Dusk", "argent")
	return l, b
}

func openFunded(t *testing.T, l *Ledger, b *Bank, ownerID string, balance int64) *Account {
	t.Helper()
	a, err := l.OpenAccount(b.ID, economy.Owner{Kind: economy.OwnerCharacter, ID: ownerID}, "argent")
	require.NoError(t, err)
	if balance > 0 {
		require.NoError(t, l.Deposit(context.Background(), a.ID, balance, "seed"))
	}
	return a
}

func TestTransferConservesValue(t *testing.T) {
	l, b := testLedger(t)
	from := openFunded(t, l, b, "alric", 1000)
	to := openFunded(t, l, b, "betha", 500)

	before := from.Balance() + to.Balance()
	receipt, err := l.Transfer(context.Background(), "alric", from.ID, to.ID, 300, "rent")
	require.NoError(t, err)

	assert.Equal(t, int64(700), from.Balance())
	assert.Equal(t, int64(800), to.Balance())
	assert.Equal(t, before, from.Balance()+to.Balance(), "conservation of value")
	assert.Equal(t, int64(300), receipt.Debited)
	assert.Equal(t, int64(300), receipt.Credited)
	assert.False(t, receipt.CrossBank)

	// Same-bank transfer leaves the reserve untouched.
	assert.Equal(t, int64(1500), b.Reserve("argent"))

	// Both sides are logged with the same reference.
	fromHist := from.History()
	toHist := to.History()
	require.Len(t, fromHist, 2)
	require.Len(t, toHist, 2)
	assert.Equal(t, TxTransferOut, fromHist[1].Type)
	assert.Equal(t, TxTransferIn, toHist[1].Type)
	assert.Equal(t, fromHist[1].Ref, toHist[1].Ref)
}

func TestTransferValidationFailuresLeaveStateUntouched(t *testing.T) {
	l, b := testLedger(t)
	from := openFunded(t, l, b, "alric", 100)
	to := openFunded(t, l, b, "betha", 0)

	tests := []struct {
		name    string
		prepare func()
		actor   string
		amount  int64
		wantErr error
	}{
		{name: "insufficient funds", actor: "alric", amount: 500, wantErr: ErrInsufficientFunds},
		{name: "unauthorised actor", actor: "mallory", amount: 10, wantErr: ErrNotAuthorised},
		{name: "non-positive amount", actor: "alric", amount: 0, wantErr: ErrNonPositiveAmount},
		{
			name:    "suspended source",
			prepare: func() { require.NoError(t, l.Suspend(from.ID)) },
			actor:   "alric", amount: 10, wantErr: ErrAccountSuspended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}
			_, err := l.Transfer(context.Background(), tt.actor, from.ID, to.ID, tt.amount, "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, int64(100), from.Balance(), "no partial application")
			assert.Equal(t, int64(0), to.Balance())
		})
	}
}

func TestCrossBankTransferMovesReserves(t *testing.T) {
	l, b1 := testLedger(t)
	b2 := l.CreateBank("Harbour Vault", "argent")

	from := openFunded(t, l, b1, "alric", 1000)
	to, err := l.OpenAccount(b2.ID, economy.Owner{Kind: economy.OwnerCharacter, ID: "betha"}, "argent")
	require.NoError(t, err)

	_, err = l.Transfer(context.Background(), "alric", from.ID, to.ID, 400, "shipment")
	require.NoError(t, err)

	assert.Equal(t, int64(600), b1.Reserve("argent"), "source reserve drops")
	assert.Equal(t, int64(400), b2.Reserve("argent"), "destination reserve rises")
}

func TestTransferAcrossCurrenciesUsesExchangeRate(t *testing.T) {
	l, b := testLedger(t)
	from := openFunded(t, l, b, "alric", 1000)
	to, err := l.OpenAccount(b.ID, economy.Owner{Kind: economy.OwnerCharacter, ID: "betha"}, "krona")
	require.NoError(t, err)

	_, xerr := l.Transfer(context.Background(), "alric", from.ID, to.ID, 100, "fx")
	require.Error(t, xerr)
	assert.True(t, errors.Is(xerr, ErrNoExchangeRate))

	b.SetExchangeRate("argent", "krona", decimal.RequireFromString("0.25"))
	receipt, err := l.Transfer(context.Background(), "alric", from.ID, to.ID, 100, "fx")
	require.NoError(t, err)
	assert.Equal(t, int64(100), receipt.Debited)
	assert.Equal(t, int64(25), receipt.Credited)
	assert.Equal(t, int64(25), to.Balance())
}

func TestAuthorisedUserLimits(t *testing.T) {
	l, b := testLedger(t)
	a := openFunded(t, l, b, "alric", 1000)
	other := openFunded(t, l, b, "betha", 0)

	limit := int64(200)
	require.NoError(t, l.AuthoriseUser("alric", a.ID, "cedric", &limit))

	assert.Equal(t, int64(200), a.MaximumAuthorisedToUse("cedric"))
	assert.Equal(t, Unlimited, a.MaximumAuthorisedToUse("alric"), "owner is always authorised")
	assert.Equal(t, int64(0), a.MaximumAuthorisedToUse("mallory"))

	_, err := l.Transfer(context.Background(), "cedric", a.ID, other.ID, 250, "over")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOverLimit))

	_, err = l.Transfer(context.Background(), "cedric", a.ID, other.ID, 150, "within")
	require.NoError(t, err)

	// Account-wide limit interacts with outstanding spend.
	accountLimit := int64(500)
	require.NoError(t, l.SetSpendingLimit("alric", a.ID, &accountLimit))
	assert.Equal(t, int64(350), a.MaximumAuthorisedToUse("alric"), "limit minus outstanding")

	require.NoError(t, l.ResetOutstanding(a.ID))
	assert.Equal(t, int64(500), a.MaximumAuthorisedToUse("alric"))

	require.NoError(t, l.RevokeUser("alric", a.ID, "cedric"))
	assert.False(t, a.IsAuthorised("cedric"))

	require.Error(t, l.AuthoriseUser("betha", a.ID, "mallory", nil), "only the owner manages users")
}

func TestWithdrawAndCanWithdraw(t *testing.T) {
	l, b := testLedger(t)
	a := openFunded(t, l, b, "alric", 300)

	require.NoError(t, l.CanWithdraw("alric", a.ID, 300))
	err := l.CanWithdraw("alric", a.ID, 301)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	require.NoError(t, l.Withdraw(context.Background(), "alric", a.ID, 120, "pocket money"))
	assert.Equal(t, int64(180), a.Balance())
	assert.Equal(t, int64(180), b.Reserve("argent"), "cash left the vault")
}

func TestCloseIsTerminalAndRequiresZeroBalance(t *testing.T) {
	l, b := testLedger(t)
	a := openFunded(t, l, b, "alric", 50)

	err := l.Close("alric", a.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBalanceRemaining))

	require.NoError(t, l.Withdraw(context.Background(), "alric", a.ID, 50, "empty out"))
	require.NoError(t, l.Close("alric", a.ID))
	assert.Equal(t, StatusClosed, a.Status())

	assert.True(t, errors.Is(l.Reinstate(a.ID), ErrAccountClosed), "closed is terminal")
	assert.True(t, errors.Is(l.Deposit(context.Background(), a.ID, 10, "late"), ErrAccountClosed))
}

func TestDepositToSuspendedAccountAllowed(t *testing.T) {
	l, b := testLedger(t)
	a := openFunded(t, l, b, "alric", 0)
	require.NoError(t, l.Suspend(a.ID))

	// Suspension blocks spending, not receiving.
	require.NoError(t, l.Deposit(context.Background(), a.ID, 25, "gift"))
	assert.Equal(t, int64(25), a.Balance())
	assert.True(t, errors.Is(l.CanWithdraw("alric", a.ID, 1), ErrAccountSuspended))
}
