package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/duskmud/engine/duskmud/database/models"
)

type AccountRepository interface {
	DB() *bun.DB
	CreateBank(ctx context.Context, bank *models.Bank) error
	Create(ctx context.Context, account *models.Account) error
	CreateWithTx(ctx context.Context, tx bun.Tx, account *models.Account) error
	GetByAccountID(ctx context.Context, accountID string) (*models.Account, error)
	GetByOwner(ctx context.Context, ownerKind, ownerID string) ([]*models.Account, error)
	UpdateBalance(ctx context.Context, accountID string, balance int64) error
	UpdateStatus(ctx context.Context, accountID string, status string) error
	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error)
}

type accountRepository struct {
	*BaseRepository
}

func NewAccountRepository(db *bun.DB) AccountRepository {
	return &accountRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *accountRepository) DB() *bun.DB {
	return r.GetDB()
}

func (r *accountRepository) CreateBank(ctx context.Context, bank *models.Bank) error {
	bank.CreatedAt = time.Now()
	bank.UpdatedAt = time.Now()

	_, err := r.GetDB().NewInsert().Model(bank).Exec(ctx)
	return r.HandleError("create", "bank", err)
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	_, err := r.GetDB().NewInsert().Model(account).Exec(ctx)
	return r.HandleError("create", "account", err)
}

func (r *accountRepository) CreateWithTx(ctx context.Context, tx bun.Tx, account *models.Account) error {
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	_, err := tx.NewInsert().Model(account).Exec(ctx)
	return r.HandleError("create", "account", err)
}

func (r *accountRepository) GetByAccountID(ctx context.Context, accountID string) (*models.Account, error) {
	account := new(models.Account)
	err := r.GetDB().NewSelect().
		Model(account).
		Where("account_id = ?", accountID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "account", accountID, err)
	}
	return account, nil
}

func (r *accountRepository) GetByOwner(ctx context.Context, ownerKind, ownerID string) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.GetDB().NewSelect().
		Model(&accounts).
		Where("owner_kind = ? AND owner_id = ?", ownerKind, ownerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_by_owner", "account", err)
	}
	return accounts, nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, accountID string, balance int64) error {
	_, err := r.GetDB().NewUpdate().
		Model((*models.Account)(nil)).
		Set("balance = ?", balance).
		Set("updated_at = ?", time.Now()).
		Where("account_id = ?", accountID).
		Exec(ctx)
	return r.HandleErrorWithID("update_balance", "account", accountID, err)
}

func (r *accountRepository) UpdateStatus(ctx context.Context, accountID string, status string) error {
	_, err := r.GetDB().NewUpdate().
		Model((*models.Account)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("account_id = ?", accountID).
		Exec(ctx)
	return r.HandleErrorWithID("update_status", "account", accountID, err)
}

func (r *accountRepository) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	tx.CreatedAt = time.Now()

	_, err := r.GetDB().NewInsert().Model(tx).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (r *accountRepository) GetTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.GetDB().NewSelect().
		Model(&txs).
		Where("account_id = ?", accountID).
		Order("at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_transactions", "transaction", err)
	}
	return txs, nil
}
