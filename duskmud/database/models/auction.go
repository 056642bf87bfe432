package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AuctionStatus string

const (
	AuctionStatusListed        AuctionStatus = "listed"
	AuctionStatusBoughtOut     AuctionStatus = "bought_out"
	AuctionStatusExpiredWon    AuctionStatus = "expired_won"
	AuctionStatusExpiredUnsold AuctionStatus = "expired_unsold"
	AuctionStatusCancelled     AuctionStatus = "cancelled"
)

type Auction struct {
	bun.BaseModel `bun:"table:auctions,alias:a"`

	ID                 int64         `bun:"id,pk,autoincrement"`
	Lot                string        `bun:"lot,notnull,unique"`
	Seller             string        `bun:"seller,notnull"`
	ItemRef            string        `bun:"item_ref,notnull"`
	MinimumPrice       int64         `bun:"minimum_price,notnull"`
	BuyoutPrice        int64         `bun:"buyout_price"`
	Status             AuctionStatus `bun:"status,notnull"`
	ListedAt           time.Time     `bun:"listed_at,notnull"`
	FinishesAt         time.Time     `bun:"finishes_at,notnull"`
	DestinationAccount string        `bun:"destination_account,notnull"`
	ProceedsPaid       bool          `bun:"proceeds_paid,notnull"`
	ItemClaimed        bool          `bun:"item_claimed,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type AuctionBid struct {
	bun.BaseModel `bun:"table:auction_bids,alias:ab"`

	ID      int64     `bun:"id,pk,autoincrement"`
	Lot     string    `bun:"lot,notnull"`
	Bidder  string    `bun:"bidder,notnull"`
	Account string    `bun:"account,notnull"`
	Amount  int64     `bun:"amount,notnull"`
	At      time.Time `bun:"at,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
