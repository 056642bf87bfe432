package migration

import "time"

// Mongo* mirror the legacy datastore's documents. Balances in the legacy
// world were stored per character, not per account; the import opens one
// account per character and seeds it with the stored balance.

type MongoCharacter struct {
	Name     string `bson:"name"`
	Clan     string `bson:"clan"`
	Balance  int64  `bson:"balance"`
	BankName string `bson:"bank"`
	Currency string `bson:"currency"`

	Suspended bool      `bson:"suspended"`
	Joined    time.Time `bson:"joined"`
}

type MongoShop struct {
	Name       string `bson:"name"`
	Proprietor string `bson:"proprietor"`
	Currency   string `bson:"currency"`
	Till       int64  `bson:"till"`

	Credit []MongoCreditLine `bson:"credit"`
}

type MongoCreditLine struct {
	Customer    string `bson:"customer"`
	Limit       int64  `bson:"limit"`
	Outstanding int64  `bson:"outstanding"`
}

type MongoAuction struct {
	Lot          string    `bson:"lot"`
	Seller       string    `bson:"seller"`
	Item         string    `bson:"item"`
	MinimumPrice int64     `bson:"minimum_price"`
	BuyoutPrice  int64     `bson:"buyout_price"`
	Status       string    `bson:"status"`
	ListedAt     time.Time `bson:"listed_at"`
	FinishesAt   time.Time `bson:"finishes_at"`

	Bids []MongoBid `bson:"bids"`
}

type MongoBid struct {
	Bidder string    `bson:"bidder"`
	Amount int64     `bson:"amount"`
	At     time.Time `bson:"at"`
}

// TableStats tracks one migration step.
type TableStats struct {
	Read     int
	Imported int
	Skipped  int
}

type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	EndTime   time.Time
}
