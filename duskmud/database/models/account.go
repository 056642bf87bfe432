package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Bank struct {
	bun.BaseModel `bun:"table:banks,alias:b"`

	ID              int64  `bun:"id,pk,autoincrement"`
	BankID          string `bun:"bank_id,notnull,unique"`
	Name            string `bun:"name,notnull"`
	PrimaryCurrency string `bun:"primary_currency,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID            int64  `bun:"id,pk,autoincrement"`
	AccountID     string `bun:"account_id,notnull,unique"`
	BankID        string `bun:"bank_id,notnull"`
	OwnerKind     string `bun:"owner_kind,notnull"`
	OwnerID       string `bun:"owner_id,notnull"`
	Currency      string `bun:"currency,notnull"`
	Status        string `bun:"status,notnull"`
	Balance       int64  `bun:"balance,notnull"`
	SpendingLimit int64  `bun:"spending_limit"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:tx"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Ref          string    `bun:"ref,notnull"`
	AccountID    string    `bun:"account_id,notnull"`
	Type         string    `bun:"type,notnull"`
	Pretax       int64     `bun:"pretax,notnull"`
	Tax          int64     `bun:"tax,notnull"`
	Net          int64     `bun:"net,notnull"`
	Counterparty string    `bun:"counterparty"`
	Reference    string    `bun:"reference"`
	At           time.Time `bun:"at,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
