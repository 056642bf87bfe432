package migration

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duskmud/engine/duskmud/database/models"
	"github.com/duskmud/engine/duskmud/economy"
)

func (m *Migrator) convertCharacter(mc MongoCharacter, bankID string) (*models.Account, *models.Transaction) {
	now := time.Now()

	status := "active"
	if mc.Suspended {
		status = "suspended"
	}
	ownerKind := string(economy.OwnerCharacter)
	ownerID := cleanseName(mc.Name)
	if mc.Clan != "" {
		ownerKind = string(economy.OwnerClan)
		ownerID = cleanseName(mc.Clan)
	}

	account := &models.Account{
		AccountID: m.ids.Next(now).String(),
		BankID:    bankID,
		OwnerKind: ownerKind,
		OwnerID:   ownerID,
		Currency:  mc.Currency,
		Status:    status,
		Balance:   mc.Balance,
	}

	if mc.Balance <= 0 {
		return account, nil
	}
	return account, &models.Transaction{
		Ref:       uuid.New().String(),
		Type:      "deposit",
		Pretax:    mc.Balance,
		Net:       mc.Balance,
		Reference: "legacy balance import",
		At:        now,
	}
}

func (m *Migrator) convertShop(ms MongoShop) (*models.Shop, *models.Account, []*models.CreditAccount) {
	now := time.Now()
	shopID := m.ids.Next(now).String()

	till := &models.Account{
		AccountID: m.ids.Next(now).String(),
		OwnerKind: string(economy.OwnerShop),
		OwnerID:   cleanseName(ms.Name),
		Currency:  ms.Currency,
		Status:    "active",
		Balance:   ms.Till,
	}
	shop := &models.Shop{
		ShopID:      shopID,
		Name:        ms.Name,
		Currency:    ms.Currency,
		TillAccount: till.AccountID,
		Proprietor:  cleanseName(ms.Proprietor),
	}

	credits := make([]*models.CreditAccount, 0, len(ms.Credit))
	for _, c := range ms.Credit {
		if c.Customer == "" {
			continue
		}
		credits = append(credits, &models.CreditAccount{
			ShopID:      shopID,
			Customer:    cleanseName(c.Customer),
			Limit:       c.Limit,
			Outstanding: c.Outstanding,
			CreatedAt:   now,
		})
	}
	return shop, till, credits
}

func (m *Migrator) convertAuction(ma MongoAuction) (*models.Auction, []*models.AuctionBid) {
	auction := &models.Auction{
		Lot:          strings.ToUpper(ma.Lot),
		Seller:       cleanseName(ma.Seller),
		ItemRef:      ma.Item,
		MinimumPrice: ma.MinimumPrice,
		BuyoutPrice:  ma.BuyoutPrice,
		ListedAt:     ma.ListedAt,
		FinishesAt:   ma.FinishesAt,
	}

	bids := make([]*models.AuctionBid, 0, len(ma.Bids))
	for _, b := range ma.Bids {
		bids = append(bids, &models.AuctionBid{
			Lot:    auction.Lot,
			Bidder: cleanseName(b.Bidder),
			Amount: b.Amount,
			At:     b.At,
		})
	}
	return auction, bids
}

// cleanseName normalises legacy identifiers, which were stored with
// inconsistent casing and stray whitespace.
func cleanseName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
