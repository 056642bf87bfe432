package auction

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Status is the lifecycle state of an auction item.
type Status string

const (
	StatusListed        Status = "listed"
	StatusBoughtOut     Status = "bought_out"
	StatusExpiredWon    Status = "expired_won"
	StatusExpiredUnsold Status = "expired_unsold"
	StatusCancelled     Status = "cancelled"
)

// Bid is one append-only entry in an item's bid history. Funds are
// escrowed at bid time, not at settlement.
type Bid struct {
	Bidder  string
	Account snowflake.ID
	Amount  int64
	At      time.Time
}

// Item is a time-boxed listing: Listed -> (Bidding)* -> {Bought-out |
// Expired-with-winner | Expired-unsold | Cancelled} -> claimed/refunded ->
// removed.
type Item struct {
	ID                 snowflake.ID
	Lot                string
	Seller             string
	ItemRef            string
	MinimumPrice       int64
	BuyoutPrice        int64 // zero means no buyout
	ListedAt           time.Time
	FinishesAt         time.Time
	DestinationAccount snowflake.ID

	status      Status
	bids        []Bid
	refundsOwed map[string]int64
	// Settlement is two escrow outflows; each leg tracks its own commit
	// so a retry never repeats one that already went through.
	proceedsPaid bool
	feePaid      bool
	feeDue       int64
	itemClaimed  bool
}

func (it *Item) Status() Status { return it.status }

// Bids returns a copy of the append-only bid history.
func (it *Item) Bids() []Bid {
	return append([]Bid(nil), it.bids...)
}

// HighestBid returns the current winning bid, if any.
func (it *Item) HighestBid() (Bid, bool) {
	if len(it.bids) == 0 {
		return Bid{}, false
	}
	return it.bids[len(it.bids)-1], true
}

// RefundOwed reports the amount a superseded bidder can claim back.
func (it *Item) RefundOwed(bidder string) int64 {
	return it.refundsOwed[bidder]
}

// EscrowOutstanding is the value still held in escrow for this item:
// outstanding refunds plus whatever part of the winning hold has not been
// paid out yet. Once fully settled and refunded it is zero.
func (it *Item) EscrowOutstanding() int64 {
	var total int64
	for _, owed := range it.refundsOwed {
		total += owed
	}
	if top, ok := it.HighestBid(); ok {
		if !it.proceedsPaid {
			total += top.Amount - it.feeDue
		}
		if !it.feePaid {
			total += it.feeDue
		}
	}
	return total
}

// expired reports whether a still-listed item's window has passed.
func (it *Item) expired(now time.Time) bool {
	return it.status == StatusListed && !now.Before(it.FinishesAt)
}

// settled reports whether nothing further is owed on the item.
func (it *Item) settled() bool {
	return it.status != StatusListed && it.itemClaimed && len(it.refundsOwed) == 0
}

// paidOut reports whether both settlement legs have committed.
func (it *Item) paidOut() bool {
	return it.proceedsPaid && it.feePaid
}
