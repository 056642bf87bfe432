package auction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskmud/engine/duskmud/economy"
	"github.com/duskmud/engine/duskmud/economy/ledger"
)

const houseActor = "auction-house"

var start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fixture wires a house to a live ledger so escrow movements are real
// transfers, not stubs.
type fixture struct {
	house  *House
	ledger *ledger.Ledger
	now    *time.Time

	escrow snowflake.ID
	fee    snowflake.ID
	seller snowflake.ID
	alice  snowflake.ID
	bob    snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := start
	clock := economy.ClockFunc(func() time.Time { return now })
	ldg := ledger.New(clock, economy.NopRecorder{})
	bank := ldg.CreateBank("Guild Vault", "ducat")

	open := func(kind economy.OwnerKind, id string, balance int64) snowflake.ID {
		acct, err := ldg.OpenAccount(bank.ID, economy.Owner{Kind: kind, ID: id}, "ducat")
		require.NoError(t, err)
		if balance > 0 {
			require.NoError(t, ldg.Deposit(context.Background(), acct.ID, balance, "seed"))
		}
		return acct.ID
	}

	f := &fixture{
		ledger: ldg,
		now:    &now,
		escrow: open(economy.OwnerSystem, houseActor, 0),
		fee:    open(economy.OwnerSystem, houseActor, 0),
		seller: open(economy.OwnerCharacter, "seren", 0),
		alice:  open(economy.OwnerCharacter, "alice", 1000),
		bob:    open(economy.OwnerCharacter, "bob", 1000),
	}
	f.house = NewHouse(ldg, clock, economy.NopRecorder{}, houseActor, f.escrow, f.fee, decimal.RequireFromString("0.05"))
	return f
}

func (f *fixture) advance(d time.Duration) { *f.now = f.now.Add(d) }

func (f *fixture) balance(t *testing.T, id snowflake.ID) int64 {
	t.Helper()
	acct, err := f.ledger.Account(id)
	require.NoError(t, err)
	return acct.Balance()
}

func (f *fixture) list(t *testing.T, minimum, buyout int64) *Item {
	t.Helper()
	it, err := f.house.AddAuctionItem(context.Background(), "seren", "rune-etched blade", minimum, buyout, time.Hour, f.seller)
	require.NoError(t, err)
	return it
}

func TestListingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		minimum  int64
		buyout   int64
		duration time.Duration
	}{
		{"zero minimum", 0, 0, time.Hour},
		{"buyout below minimum", 100, 50, time.Hour},
		{"too short", 100, 0, time.Minute},
		{"too long", 100, 0, 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.house.AddAuctionItem(ctx, "seren", "blade", tt.minimum, tt.buyout, tt.duration, f.seller)
			assert.True(t, errors.Is(err, ErrBadListing))
		})
	}

	_, err := f.house.AddAuctionItem(ctx, "seren", "blade", 100, 0, time.Hour, snowflake.ID(99))
	assert.True(t, errors.Is(err, ErrBadListing), "unknown destination account")
}

func TestBidSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.list(t, 100, 0)

	// First bid only has to meet the minimum price.
	require.Error(t, f.house.AddBid(ctx, it.Lot, "alice", f.alice, 99))
	require.NoError(t, f.house.AddBid(ctx, it.Lot, "alice", f.alice, 105))

	// The next bid must reach 105% of the standing 105, i.e. exceed 110.25.
	err := f.house.AddBid(ctx, it.Lot, "bob", f.bob, 108)
	require.True(t, errors.Is(err, ErrBidTooLow))
	require.NoError(t, f.house.AddBid(ctx, it.Lot, "bob", f.bob, 111))

	// Alice's superseded bid is owed back, not auto-returned.
	assert.Equal(t, int64(105), it.RefundOwed("alice"))
	assert.Equal(t, int64(1000-105), f.balance(t, f.alice))

	next, err := f.house.MinimumNextBid(it.Lot)
	require.NoError(t, err)
	assert.Equal(t, int64(117), next, "ceil(111 * 1.05)")
}

func TestEscrowCoversRefundsAndWinningHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.list(t, 100, 0)

	require.NoError(t, f.house.AddBid(ctx, it.Lot, "alice", f.alice, 105))
	require.NoError(t, f.house.AddBid(ctx, it.Lot, "bob", f.bob, 111))

	// Escrowed funds equal the outstanding refunds plus the winning hold.
	assert.Equal(t, int64(216), it.EscrowOutstanding())
	assert.Equal(t, int64(216), f.balance(t, f.escrow))

	owed, err := f.house.ClaimRefund(ctx, it.Lot, "alice", f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(105), owed)
	assert.Equal(t, int64(1000), f.balance(t, f.alice))
	assert.Equal(t, int64(111), f.balance(t, f.escrow))

	_, err = f.house.ClaimRefund(ctx, it.Lot, "alice", f.alice)
	assert.True(t, errors.Is(err, ErrNoRefundOwed), "refunds are claimable once")

	// Expire and settle: hammer 111, fee floor(111*0.05)=5, seller nets 106.
	f.advance(2 * time.Hour)
	require.NoError(t, f.house.Resolve(ctx, it.Lot))
	assert.Equal(t, StatusExpiredWon, it.Status())
	assert.Equal(t, int64(106), f.balance(t, f.seller))
	assert.Equal(t, int64(5), f.balance(t, f.fee))
	assert.Equal(t, int64(0), f.balance(t, f.escrow))
	assert.Equal(t, int64(0), it.EscrowOutstanding())

	ref, err := f.house.ClaimItem(ctx, it.Lot, "bob")
	require.NoError(t, err)
	assert.Equal(t, "rune-etched blade", ref)

	// Fully settled listings are swept from the house.
	_, err = f.house.Item(it.Lot)
	assert.True(t, errors.Is(err, ErrUnknownLot))
}

func TestBidRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.list(t, 100, 0)

	assert.True(t, errors.Is(f.house.AddBid(ctx, it.Lot, "seren", f.seller, 100), ErrOwnAuction))

	require.NoError(t, f.house.AddBid(ctx, it.Lot, "alice", f.alice, 100))
	assert.True(t, errors.Is(f.house.AddBid(ctx, it.Lot, "alice", f.alice, 200), ErrAlreadyHighest))

	assert.True(t, errors.Is(f.house.AddBid(ctx, "ZZZZ", "bob", f.bob, 100), ErrUnknownLot))
}

func TestFailedEscrowLeavesAuctionUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.list(t, 2000, 0)

	err := f.house.AddBid(ctx, it.Lot, "alice", f.alice, 2000)
	require.Error(t, err, "alice only holds 1000")
	assert.Empty(t, it.Bids())
	assert.Equal(t, int64(1000), f.balance(t, f.alice))
	assert.Equal(t, int64(0), f.balance(t, f.escrow))
}

func TestBuyoutSettlesImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.list(t, 100, 300)

	require.NoError(t, f.house.AddBid(ctx, it.Lot, "alice", f.alice, 105))
	require.NoError(t, f.house.AddBid(ctx, it.Lot, "bob", f.bob, 300))

	assert.Equal(t, StatusBoughtOut, it.Status())
	// fee floor(300*0.05)=15
	assert.Equal(t, int64(285), f.balance(t, f.seller))
	assert.Equal(t, int64(15), f.balance(t, f.fee))

	_, err := f.house.ClaimItem(ctx, it.Lot, "alice")
	assert.True(t, errors.Is(err, ErrNotClaimable))
	_, err = f.house.ClaimItem(ctx, it.Lot, "bob")
	require.NoError(t, err)

	// Alice's refund keeps the lot alive until she collects.
	assert.Equal(t, int64(105), it.RefundOwed("alice"))
	_, err = f.house.Item(it.Lot)
	require.NoError(t, err)

	_, err = f.house.ClaimRefund(ctx, it.Lot, "alice", f.alice)
	require.NoError(t, err)
	_, err = f.house.Item(it.Lot)
	assert.True(t, errors.Is(err, ErrUnknownLot))
}

func TestLazyExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.list(t, 100, 0)

	f.advance(2 * time.Hour)

	// The first touch after the window resolves the listing and refuses
	// the bid.
	err := f.house.AddBid(ctx, it.Lot, "alice", f.alice, 150)
	assert.True(t, errors.Is(err, ErrNotListed))
	assert.Equal(t, StatusExpiredUnsold, it.Status())

	ref, err := f.house.ClaimItem(ctx, it.Lot, "seren")
	require.NoError(t, err)
	assert.Equal(t, "rune-etched blade", ref)
}

func TestResolveAllSweepsExpiredListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.list(t, 100, 0)
	b := f.list(t, 100, 0)
	require.NoError(t, f.house.AddBid(ctx, b.Lot, "alice", f.alice, 100))

	f.advance(2 * time.Hour)
	f.house.ResolveAll(ctx)

	assert.Equal(t, StatusExpiredUnsold, a.Status())
	assert.Equal(t, StatusExpiredWon, b.Status())
	assert.Equal(t, int64(95), f.balance(t, f.seller), "100 hammer minus 5 fee")
}

func TestSettlementRetryAfterFailedFeeLeg(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.list(t, 100, 0)
	b := f.list(t, 100, 0)

	require.NoError(t, f.house.AddBid(ctx, a.Lot, "alice", f.alice, 100))
	require.NoError(t, f.house.AddBid(ctx, b.Lot, "bob", f.bob, 100))
	require.Equal(t, int64(200), f.balance(t, f.escrow))

	// A locked fee account fails the fee leg after the proceeds leg
	// committed.
	require.NoError(t, f.ledger.Lock(f.fee))
	f.advance(2 * time.Hour)
	require.Error(t, f.house.Resolve(ctx, a.Lot))
	assert.Equal(t, int64(95), f.balance(t, f.seller))

	// Retrying must not pay the seller again; a second 95 could only come
	// out of the other lot's escrowed bid.
	require.Error(t, f.house.Resolve(ctx, a.Lot))
	assert.Equal(t, int64(95), f.balance(t, f.seller))
	assert.Equal(t, int64(105), f.balance(t, f.escrow))
	assert.Equal(t, a.EscrowOutstanding()+b.EscrowOutstanding(), f.balance(t, f.escrow),
		"escrow still covers every lot's outstanding value")

	// Once the fee account is usable again the remaining leg completes.
	require.NoError(t, f.ledger.Reinstate(f.fee))
	require.NoError(t, f.house.Resolve(ctx, a.Lot))
	assert.Equal(t, int64(5), f.balance(t, f.fee))
	assert.Equal(t, int64(0), a.EscrowOutstanding())

	require.NoError(t, f.house.Resolve(ctx, b.Lot))
	assert.Equal(t, int64(190), f.balance(t, f.seller))
	assert.Equal(t, int64(10), f.balance(t, f.fee))
	assert.Equal(t, int64(0), f.balance(t, f.escrow))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("seller cancels an unbid listing", func(t *testing.T) {
		it := f.list(t, 100, 0)
		require.NoError(t, f.house.CancelItem(ctx, it.Lot, "seren", false))
		assert.Equal(t, StatusCancelled, it.Status())

		ref, err := f.house.ClaimItem(ctx, it.Lot, "seren")
		require.NoError(t, err)
		assert.Equal(t, "rune-etched blade", ref)
	})

	t.Run("seller cannot cancel once bids exist", func(t *testing.T) {
		it := f.list(t, 100, 0)
		require.NoError(t, f.house.AddBid(ctx, it.Lot, "alice", f.alice, 100))
		assert.True(t, errors.Is(f.house.CancelItem(ctx, it.Lot, "seren", false), ErrHasBids))
	})

	t.Run("admin cancel converts the standing bid to a refund", func(t *testing.T) {
		it := f.list(t, 100, 0)
		require.NoError(t, f.house.AddBid(ctx, it.Lot, "bob", f.bob, 100))
		before := f.balance(t, f.bob)

		require.NoError(t, f.house.CancelItem(ctx, it.Lot, "warden", true))
		assert.Equal(t, StatusCancelled, it.Status())
		assert.Equal(t, int64(100), it.RefundOwed("bob"))

		owed, err := f.house.ClaimRefund(ctx, it.Lot, "bob", f.bob)
		require.NoError(t, err)
		assert.Equal(t, int64(100), owed)
		assert.Equal(t, before+100, f.balance(t, f.bob))
	})
}
