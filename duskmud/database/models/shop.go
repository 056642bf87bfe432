package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Shop struct {
	bun.BaseModel `bun:"table:shops,alias:s"`

	ID          int64  `bun:"id,pk,autoincrement"`
	ShopID      string `bun:"shop_id,notnull,unique"`
	Name        string `bun:"name,notnull"`
	Currency    string `bun:"currency,notnull"`
	TillAccount string `bun:"till_account,notnull"`
	Proprietor  string `bun:"proprietor,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type CreditAccount struct {
	bun.BaseModel `bun:"table:credit_accounts,alias:ca"`

	ID          int64  `bun:"id,pk,autoincrement"`
	ShopID      string `bun:"shop_id,notnull"`
	Customer    string `bun:"customer,notnull"`
	Limit       int64  `bun:"credit_limit,notnull"`
	Outstanding int64  `bun:"outstanding,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type ShopRecord struct {
	bun.BaseModel `bun:"table:shop_records,alias:sr"`

	ID       int64     `bun:"id,pk,autoincrement"`
	Ref      string    `bun:"ref,notnull,unique"`
	ShopID   string    `bun:"shop_id,notnull"`
	Type     string    `bun:"type,notnull"`
	Item     string    `bun:"item"`
	Quantity int64     `bun:"quantity"`
	Pretax   int64     `bun:"pretax,notnull"`
	Tax      int64     `bun:"tax,notnull"`
	Net      int64     `bun:"net,notnull"`
	Customer string    `bun:"customer,notnull"`
	At       time.Time `bun:"at,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}
