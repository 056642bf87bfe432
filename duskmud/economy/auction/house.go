// Package auction implements the auction house: time-boxed listings with
// competitive bidding, buyout, escrowed funds and deferred
// settlement/refund. All money movement delegates to the ledger's transfer
// primitive so conservation is enforced in one place.
package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/shopspring/decimal"

	"github.com/duskmud/engine/duskmud/economy"
	"github.com/duskmud/engine/duskmud/economy/ledger"
)

const (
	MinAuctionTime = 10 * time.Minute
	MaxAuctionTime = 7 * 24 * time.Hour
)

// Each bid after the first must reach 105% of the standing bid.
var bidStep = decimal.RequireFromString("1.05")

var (
	ErrUnknownLot     = errors.New("unknown auction lot")
	ErrNotListed      = errors.New("auction is no longer accepting bids")
	ErrOwnAuction     = errors.New("seller cannot bid on their own auction")
	ErrAlreadyHighest = errors.New("already the highest bidder")
	ErrBidTooLow      = errors.New("bid below required minimum")
	ErrBadListing     = errors.New("invalid listing")
	ErrNoRefundOwed   = errors.New("no refund owed")
	ErrNotClaimable   = errors.New("item not claimable by this character")
	ErrHasBids        = errors.New("auction already has bids")
)

// House runs auctions for one zone. It owns two ledger accounts: the
// escrow account holding bid funds in flight, and the fee account
// collecting listing fees.
type House struct {
	ldg      *ledger.Ledger
	clock    economy.Clock
	recorder economy.Recorder
	ids      *economy.IDGenerator

	// houseActor is the system principal owning the escrow and fee
	// accounts on the ledger.
	houseActor    string
	escrowAccount snowflake.ID
	feeAccount    snowflake.ID
	feePct        decimal.Decimal

	items map[string]*Item
}

func NewHouse(ldg *ledger.Ledger, clock economy.Clock, recorder economy.Recorder, houseActor string, escrowAccount, feeAccount snowflake.ID, feePct decimal.Decimal) *House {
	if ldg == nil {
		panic("auction house ledger cannot be nil")
	}
	if clock == nil {
		panic("auction house clock cannot be nil")
	}
	if recorder == nil {
		recorder = economy.NopRecorder{}
	}
	return &House{
		ldg:           ldg,
		clock:         clock,
		recorder:      recorder,
		ids:           economy.NewIDGenerator(),
		houseActor:    houseActor,
		escrowAccount: escrowAccount,
		feeAccount:    feeAccount,
		feePct:        feePct,
		items:         make(map[string]*Item),
	}
}

// Item resolves a listing by lot code.
func (h *House) Item(lot string) (*Item, error) {
	it, ok := h.items[lot]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLot, lot)
	}
	return it, nil
}

// ListedItems returns the listings still open at now.
func (h *House) ListedItems(now time.Time) []*Item {
	var out []*Item
	for _, it := range h.items {
		if it.status == StatusListed && now.Before(it.FinishesAt) {
			out = append(out, it)
		}
	}
	return out
}

// AddAuctionItem lists an item. Proceeds will credit the seller's
// nominated bank account on settlement.
func (h *House) AddAuctionItem(ctx context.Context, seller, itemRef string, minimumPrice, buyoutPrice int64, duration time.Duration, destination snowflake.ID) (*Item, error) {
	if minimumPrice <= 0 {
		return nil, fmt.Errorf("%w: minimum price must be positive", ErrBadListing)
	}
	if buyoutPrice != 0 && buyoutPrice < minimumPrice {
		return nil, fmt.Errorf("%w: buyout %d below minimum %d", ErrBadListing, buyoutPrice, minimumPrice)
	}
	if duration < MinAuctionTime || duration > MaxAuctionTime {
		return nil, fmt.Errorf("%w: duration %s outside [%s, %s]", ErrBadListing, duration, MinAuctionTime, MaxAuctionTime)
	}
	if _, err := h.ldg.Account(destination); err != nil {
		return nil, fmt.Errorf("%w: destination account: %v", ErrBadListing, err)
	}

	lot, err := h.generateLot()
	if err != nil {
		return nil, err
	}

	now := h.clock.CurrentDateTime()
	it := &Item{
		ID:                 h.ids.Next(now),
		Lot:                lot,
		Seller:             seller,
		ItemRef:            itemRef,
		MinimumPrice:       minimumPrice,
		BuyoutPrice:        buyoutPrice,
		ListedAt:           now,
		FinishesAt:         now.Add(duration),
		DestinationAccount: destination,
		status:             StatusListed,
		refundsOwed:        make(map[string]int64),
	}
	h.items[lot] = it

	slog.Info("Auction listed",
		slog.String("type", "econ"),
		slog.String("lot", lot),
		slog.String("seller", seller),
		slog.Int64("minimum_price", minimumPrice))
	h.record(ctx, economy.Change{
		Kind: economy.ChangeAuctionListed, Ref: lot, At: now,
		Detail: map[string]any{"seller": seller, "item": itemRef, "minimum": minimumPrice, "buyout": buyoutPrice, "finishes_at": it.FinishesAt},
	})
	return it, nil
}

// MinimumNextBid returns the lowest amount AddBid would accept right now.
func (h *House) MinimumNextBid(lot string) (int64, error) {
	it, err := h.Item(lot)
	if err != nil {
		return 0, err
	}
	top, ok := it.HighestBid()
	if !ok {
		return it.MinimumPrice, nil
	}
	step := decimal.NewFromInt(top.Amount).Mul(bidStep).Ceil().IntPart()
	if step < it.MinimumPrice {
		step = it.MinimumPrice
	}
	return step, nil
}

// AddBid places a bid, escrowing the funds immediately. A superseded bid
// becomes a refund owed to its bidder, claimable on demand rather than
// auto-returned. A bid meeting the buyout price settles the auction on the
// spot.
func (h *House) AddBid(ctx context.Context, lot, bidder string, account snowflake.ID, amount int64) error {
	it, err := h.Item(lot)
	if err != nil {
		return err
	}
	now := h.clock.CurrentDateTime()
	if it.expired(now) {
		// The window passed; resolve lazily and refuse the bid.
		if rerr := h.Resolve(ctx, lot); rerr != nil {
			return rerr
		}
		return fmt.Errorf("%w: %s", ErrNotListed, lot)
	}
	if it.status != StatusListed {
		return fmt.Errorf("%w: %s", ErrNotListed, lot)
	}
	if bidder == it.Seller {
		return ErrOwnAuction
	}

	top, hasBids := it.HighestBid()
	if hasBids && top.Bidder == bidder {
		return ErrAlreadyHighest
	}
	required := it.MinimumPrice
	if hasBids {
		step := decimal.NewFromInt(amount)
		need := decimal.NewFromInt(top.Amount).Mul(bidStep)
		if step.LessThan(need) || amount < it.MinimumPrice {
			return fmt.Errorf("%w: %d offered, %s required", ErrBidTooLow, amount, need)
		}
	} else if amount < required {
		return fmt.Errorf("%w: %d offered, %d required", ErrBidTooLow, amount, required)
	}

	// Escrow the funds before touching the listing; a failed transfer
	// leaves the auction untouched.
	ref := fmt.Sprintf("auction bid %s", lot)
	if _, err := h.ldg.Transfer(ctx, bidder, account, h.escrowAccount, amount, ref); err != nil {
		return fmt.Errorf("failed to escrow bid: %w", err)
	}

	if hasBids {
		it.refundsOwed[top.Bidder] += top.Amount
	}
	it.bids = append(it.bids, Bid{Bidder: bidder, Account: account, Amount: amount, At: now})

	slog.Info("Bid placed",
		slog.String("type", "econ"),
		slog.String("lot", lot),
		slog.String("bidder", bidder),
		slog.Int64("amount", amount))
	h.record(ctx, economy.Change{
		Kind: economy.ChangeAuctionBid, Ref: lot, At: now,
		Detail: map[string]any{"bidder": bidder, "amount": amount},
	})

	if it.BuyoutPrice != 0 && amount >= it.BuyoutPrice {
		it.status = StatusBoughtOut
		return h.settleProceeds(ctx, it)
	}
	return nil
}

// Resolve applies lazy expiry to one lot and pays out any pending
// proceeds. Safe to call repeatedly; a pure function of (state, now) plus
// the deferred transfers it triggers.
func (h *House) Resolve(ctx context.Context, lot string) error {
	it, err := h.Item(lot)
	if err != nil {
		return err
	}
	now := h.clock.CurrentDateTime()
	if it.expired(now) {
		if _, ok := it.HighestBid(); ok {
			it.status = StatusExpiredWon
		} else {
			it.status = StatusExpiredUnsold
			it.proceedsPaid = true // nothing to pay out
			it.feePaid = true
		}
	}
	if (it.status == StatusExpiredWon || it.status == StatusBoughtOut) && !it.paidOut() {
		return h.settleProceeds(ctx, it)
	}
	return nil
}

// ResolveAll sweeps every listing; the game loop calls this once per tick.
func (h *House) ResolveAll(ctx context.Context) {
	for lot := range h.items {
		if err := h.Resolve(ctx, lot); err != nil {
			slog.Error("Failed to resolve auction",
				slog.String("type", "econ"),
				slog.String("lot", lot),
				slog.Any("error", err))
		}
	}
}

// settleProceeds pays the hammer price minus the listing fee to the
// seller's nominated account, and the fee to the house. Each leg commits
// independently; a retry after a failed fee leg must never repeat the
// proceeds leg, which would drain escrow belonging to other lots.
func (h *House) settleProceeds(ctx context.Context, it *Item) error {
	top, ok := it.HighestBid()
	if !ok {
		return nil
	}
	fee := decimal.NewFromInt(top.Amount).Mul(h.feePct).Floor().IntPart()
	it.feeDue = fee

	if !it.proceedsPaid {
		if _, err := h.ldg.Transfer(ctx, h.houseActor, h.escrowAccount, it.DestinationAccount, top.Amount-fee, fmt.Sprintf("auction proceeds %s", it.Lot)); err != nil {
			return fmt.Errorf("failed to pay out lot %s: %w", it.Lot, err)
		}
		it.proceedsPaid = true
	}
	if !it.feePaid {
		if fee > 0 {
			if _, err := h.ldg.Transfer(ctx, h.houseActor, h.escrowAccount, h.feeAccount, fee, fmt.Sprintf("auction fee %s", it.Lot)); err != nil {
				return fmt.Errorf("failed to collect fee for lot %s: %w", it.Lot, err)
			}
		}
		it.feePaid = true
	}

	now := h.clock.CurrentDateTime()
	slog.Info("Auction settled",
		slog.String("type", "econ"),
		slog.String("lot", it.Lot),
		slog.String("winner", top.Bidder),
		slog.Int64("hammer", top.Amount),
		slog.Int64("fee", fee))
	h.record(ctx, economy.Change{
		Kind: economy.ChangeAuctionSettled, Ref: it.Lot, At: now,
		Detail: map[string]any{"winner": top.Bidder, "hammer": top.Amount, "fee": fee, "status": string(it.status)},
	})
	return nil
}

// ClaimItem hands the listed item over: to the winner after a win or
// buyout, back to the seller after an unsold expiry or cancellation.
// Returns the item reference to give out.
func (h *House) ClaimItem(ctx context.Context, lot, claimant string) (string, error) {
	it, err := h.Item(lot)
	if err != nil {
		return "", err
	}
	if err := h.Resolve(ctx, lot); err != nil {
		return "", err
	}
	if it.itemClaimed {
		return "", fmt.Errorf("%w: already claimed", ErrNotClaimable)
	}

	var entitled string
	switch it.status {
	case StatusBoughtOut, StatusExpiredWon:
		top, _ := it.HighestBid()
		entitled = top.Bidder
	case StatusExpiredUnsold, StatusCancelled:
		entitled = it.Seller
	default:
		return "", fmt.Errorf("%w: still listed", ErrNotClaimable)
	}
	if claimant != entitled {
		return "", fmt.Errorf("%w: %s", ErrNotClaimable, claimant)
	}

	it.itemClaimed = true
	h.sweep(lot)
	return it.ItemRef, nil
}

// ClaimRefund pays a superseded bidder's refund into the account they
// nominate.
func (h *House) ClaimRefund(ctx context.Context, lot, bidder string, account snowflake.ID) (int64, error) {
	it, err := h.Item(lot)
	if err != nil {
		return 0, err
	}
	owed := it.refundsOwed[bidder]
	if owed == 0 {
		return 0, fmt.Errorf("%w: %s on lot %s", ErrNoRefundOwed, bidder, lot)
	}
	if _, err := h.ldg.Transfer(ctx, h.houseActor, h.escrowAccount, account, owed, fmt.Sprintf("auction refund %s", lot)); err != nil {
		return 0, fmt.Errorf("failed to refund bid: %w", err)
	}
	delete(it.refundsOwed, bidder)

	h.record(ctx, economy.Change{
		Kind: economy.ChangeAuctionRefund, Ref: lot, At: h.clock.CurrentDateTime(),
		Detail: map[string]any{"bidder": bidder, "amount": owed},
	})
	h.sweep(lot)
	return owed, nil
}

// CancelItem withdraws a listing. Permitted only before any bid exists,
// or by an administrator; an admin cancellation turns every escrowed bid
// into a refund owed.
func (h *House) CancelItem(ctx context.Context, lot, actor string, admin bool) error {
	it, err := h.Item(lot)
	if err != nil {
		return err
	}
	if it.status != StatusListed {
		return fmt.Errorf("%w: %s", ErrNotListed, lot)
	}
	if !admin {
		if actor != it.Seller {
			return fmt.Errorf("%w: only the seller may cancel", ErrNotClaimable)
		}
		if len(it.bids) > 0 {
			return ErrHasBids
		}
	}
	if top, ok := it.HighestBid(); ok {
		it.refundsOwed[top.Bidder] += top.Amount
	}
	it.status = StatusCancelled
	it.proceedsPaid = true // nothing will be paid out
	it.feePaid = true

	h.record(ctx, economy.Change{
		Kind: economy.ChangeAuctionCancel, Ref: lot, At: h.clock.CurrentDateTime(),
		Detail: map[string]any{"actor": actor, "admin": admin},
	})
	return nil
}

// sweep removes a fully settled listing: item claimed, proceeds handled,
// no refunds outstanding.
func (h *House) sweep(lot string) {
	it, ok := h.items[lot]
	if !ok {
		return
	}
	if it.settled() && it.paidOut() {
		delete(h.items, lot)
	}
}

func (h *House) record(ctx context.Context, change economy.Change) {
	if err := h.recorder.Record(ctx, change); err != nil {
		slog.Error("Failed to record auction change",
			slog.String("type", "db"),
			slog.String("kind", string(change.Kind)),
			slog.String("ref", change.Ref),
			slog.Any("error", err))
	}
}
