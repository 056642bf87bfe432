package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/duskmud/engine/duskmud/database/models"
)

type ShopRepository interface {
	DB() *bun.DB
	Create(ctx context.Context, shop *models.Shop) error
	CreateWithTx(ctx context.Context, tx bun.Tx, shop *models.Shop) error
	GetByShopID(ctx context.Context, shopID string) (*models.Shop, error)
	GetAll(ctx context.Context) ([]*models.Shop, error)
	UpsertCreditAccount(ctx context.Context, credit *models.CreditAccount) error
	GetCreditAccounts(ctx context.Context, shopID string) ([]*models.CreditAccount, error)
	DeleteCreditAccount(ctx context.Context, shopID, customer string) error
	AppendRecord(ctx context.Context, record *models.ShopRecord) error
	GetRecords(ctx context.Context, shopID string, from, to time.Time) ([]*models.ShopRecord, error)
}

type shopRepository struct {
	*BaseRepository
}

func NewShopRepository(db *bun.DB) ShopRepository {
	return &shopRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *shopRepository) DB() *bun.DB {
	return r.GetDB()
}

func (r *shopRepository) Create(ctx context.Context, shop *models.Shop) error {
	shop.CreatedAt = time.Now()
	shop.UpdatedAt = time.Now()

	_, err := r.GetDB().NewInsert().Model(shop).Exec(ctx)
	return r.HandleError("create", "shop", err)
}

func (r *shopRepository) CreateWithTx(ctx context.Context, tx bun.Tx, shop *models.Shop) error {
	shop.CreatedAt = time.Now()
	shop.UpdatedAt = time.Now()

	_, err := tx.NewInsert().Model(shop).Exec(ctx)
	return r.HandleError("create", "shop", err)
}

func (r *shopRepository) GetByShopID(ctx context.Context, shopID string) (*models.Shop, error) {
	shop := new(models.Shop)
	err := r.GetDB().NewSelect().
		Model(shop).
		Where("shop_id = ?", shopID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "shop", shopID, err)
	}
	return shop, nil
}

func (r *shopRepository) GetAll(ctx context.Context) ([]*models.Shop, error) {
	var shops []*models.Shop
	err := r.GetDB().NewSelect().
		Model(&shops).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_all", "shop", err)
	}
	return shops, nil
}

func (r *shopRepository) UpsertCreditAccount(ctx context.Context, credit *models.CreditAccount) error {
	credit.UpdatedAt = time.Now()

	_, err := r.GetDB().NewInsert().
		Model(credit).
		On("CONFLICT (shop_id, customer) DO UPDATE").
		Set("credit_limit = EXCLUDED.credit_limit").
		Set("outstanding = EXCLUDED.outstanding").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleError("upsert", "credit_account", err)
}

func (r *shopRepository) GetCreditAccounts(ctx context.Context, shopID string) ([]*models.CreditAccount, error) {
	var credits []*models.CreditAccount
	err := r.GetDB().NewSelect().
		Model(&credits).
		Where("shop_id = ?", shopID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_credit_accounts", "credit_account", err)
	}
	return credits, nil
}

func (r *shopRepository) DeleteCreditAccount(ctx context.Context, shopID, customer string) error {
	_, err := r.GetDB().NewDelete().
		Model((*models.CreditAccount)(nil)).
		Where("shop_id = ? AND customer = ?", shopID, customer).
		Exec(ctx)
	return r.HandleError("delete", "credit_account", err)
}

func (r *shopRepository) AppendRecord(ctx context.Context, record *models.ShopRecord) error {
	record.CreatedAt = time.Now()

	_, err := r.GetDB().NewInsert().Model(record).Exec(ctx)
	return r.HandleError("append_record", "shop_record", err)
}

func (r *shopRepository) GetRecords(ctx context.Context, shopID string, from, to time.Time) ([]*models.ShopRecord, error) {
	var records []*models.ShopRecord
	err := r.GetDB().NewSelect().
		Model(&records).
		Where("shop_id = ?", shopID).
		Where("at >= ? AND at < ?", from, to).
		Order("at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_records", "shop_record", err)
	}
	return records, nil
}
