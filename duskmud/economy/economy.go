// Package economy holds the shared contracts of the economic engine: the
// simulation clock, the persistence commit hook and the actor/owner
// references used by the ledger, market, auction and shop subsystems.
package economy

import (
	"context"
	"time"
)

// Clock provides the simulated calendar time. All time-boxed state
// (influences, auction windows, restocks) is evaluated lazily against it on
// each read; nothing in the engine runs its own timers.
type Clock interface {
	CurrentDateTime() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) CurrentDateTime() time.Time { return f() }

// SystemClock is the wall clock. Tests substitute a fixed ClockFunc.
var SystemClock Clock = ClockFunc(time.Now)

// ChangeKind identifies the category of a state-changing call.
type ChangeKind string

const (
	ChangeTransfer        ChangeKind = "transfer"
	ChangeDeposit         ChangeKind = "deposit"
	ChangeWithdrawal      ChangeKind = "withdrawal"
	ChangeAccountStatus   ChangeKind = "account_status"
	ChangeAuctionListed   ChangeKind = "auction_listed"
	ChangeAuctionBid      ChangeKind = "auction_bid"
	ChangeAuctionSettled  ChangeKind = "auction_settled"
	ChangeAuctionRefund   ChangeKind = "auction_refund"
	ChangeAuctionCancel   ChangeKind = "auction_cancelled"
	ChangeInfluenceWindow ChangeKind = "influence_window"
	ChangeShopSale        ChangeKind = "shop_sale"
	ChangeShopPurchase    ChangeKind = "shop_purchase"
	ChangeCreditCharge    ChangeKind = "credit_charge"
	ChangeCreditSettle    ChangeKind = "credit_settle"
	ChangeRestock         ChangeKind = "restock"
)

// Change describes one committed mutation. The engine emits a Change after
// every successful state-changing call so the persistence collaborator can
// durably record it and rebuild balances after a restart.
type Change struct {
	Kind   ChangeKind
	Ref    string
	At     time.Time
	Detail map[string]any
}

// Recorder is the opaque persistence commit hook. Implementations must not
// mutate engine state; a failed Record is logged by the caller, never rolled
// back into the simulation.
type Recorder interface {
	Record(ctx context.Context, change Change) error
}

// NopRecorder discards every change. Used by tests and dry runs.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Change) error { return nil }

// OwnerKind distinguishes who an account or shop belongs to.
type OwnerKind string

const (
	OwnerCharacter OwnerKind = "character"
	OwnerClan      OwnerKind = "clan"
	OwnerShop      OwnerKind = "shop"
	// OwnerSystem marks engine-held accounts such as auction escrow.
	OwnerSystem OwnerKind = "system"
)

// Owner references the owning entity of an account.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func (o Owner) Is(kind OwnerKind, id string) bool {
	return o.Kind == kind && o.ID == id
}
