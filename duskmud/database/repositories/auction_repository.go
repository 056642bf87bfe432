package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/duskmud/engine/duskmud/database/models"
)

type AuctionRepository interface {
	DB() *bun.DB
	Create(ctx context.Context, auction *models.Auction) error
	CreateWithTx(ctx context.Context, tx bun.Tx, auction *models.Auction) error
	GetByLot(ctx context.Context, lot string) (*models.Auction, error)
	GetListed(ctx context.Context) ([]*models.Auction, error)
	GetExpired(ctx context.Context, now time.Time) ([]*models.Auction, error)
	UpdateStatus(ctx context.Context, lot string, status models.AuctionStatus) error
	MarkSettled(ctx context.Context, lot string, proceedsPaid, itemClaimed bool) error
	AppendBid(ctx context.Context, bid *models.AuctionBid) error
	GetBids(ctx context.Context, lot string) ([]*models.AuctionBid, error)
}

type auctionRepository struct {
	*BaseRepository
}

func NewAuctionRepository(db *bun.DB) AuctionRepository {
	return &auctionRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *auctionRepository) DB() *bun.DB {
	return r.GetDB()
}

func (r *auctionRepository) Create(ctx context.Context, auction *models.Auction) error {
	auction.CreatedAt = time.Now()
	auction.UpdatedAt = time.Now()
	auction.Status = models.AuctionStatusListed

	_, err := r.GetDB().NewInsert().Model(auction).Exec(ctx)
	return r.HandleError("create", "auction", err)
}

func (r *auctionRepository) CreateWithTx(ctx context.Context, tx bun.Tx, auction *models.Auction) error {
	auction.CreatedAt = time.Now()
	auction.UpdatedAt = time.Now()
	auction.Status = models.AuctionStatusListed

	_, err := tx.NewInsert().Model(auction).Exec(ctx)
	return r.HandleError("create", "auction", err)
}

func (r *auctionRepository) GetByLot(ctx context.Context, lot string) (*models.Auction, error) {
	auction := new(models.Auction)
	err := r.GetDB().NewSelect().
		Model(auction).
		Where("lot = ?", lot).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "auction", lot, err)
	}
	return auction, nil
}

func (r *auctionRepository) GetListed(ctx context.Context) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.GetDB().NewSelect().
		Model(&auctions).
		Where("status = ?", models.AuctionStatusListed).
		Order("finishes_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_listed", "auction", err)
	}
	return auctions, nil
}

func (r *auctionRepository) GetExpired(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.GetDB().NewSelect().
		Model(&auctions).
		Where("status = ?", models.AuctionStatusListed).
		Where("finishes_at <= ?", now).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_expired", "auction", err)
	}
	return auctions, nil
}

func (r *auctionRepository) UpdateStatus(ctx context.Context, lot string, status models.AuctionStatus) error {
	_, err := r.GetDB().NewUpdate().
		Model((*models.Auction)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("lot = ?", lot).
		Exec(ctx)
	return r.HandleErrorWithID("update_status", "auction", lot, err)
}

func (r *auctionRepository) MarkSettled(ctx context.Context, lot string, proceedsPaid, itemClaimed bool) error {
	_, err := r.GetDB().NewUpdate().
		Model((*models.Auction)(nil)).
		Set("proceeds_paid = ?", proceedsPaid).
		Set("item_claimed = ?", itemClaimed).
		Set("updated_at = ?", time.Now()).
		Where("lot = ?", lot).
		Exec(ctx)
	return r.HandleErrorWithID("mark_settled", "auction", lot, err)
}

func (r *auctionRepository) AppendBid(ctx context.Context, bid *models.AuctionBid) error {
	bid.CreatedAt = time.Now()

	_, err := r.GetDB().NewInsert().Model(bid).Exec(ctx)
	return r.HandleError("append_bid", "auction_bid", err)
}

func (r *auctionRepository) GetBids(ctx context.Context, lot string) ([]*models.AuctionBid, error) {
	var bids []*models.AuctionBid
	err := r.GetDB().NewSelect().
		Model(&bids).
		Where("lot = ?", lot).
		Order("at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_bids", "auction_bid", err)
	}
	return bids, nil
}
