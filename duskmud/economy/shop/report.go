package shop

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Report aggregates one shop's trading over a period.
type Report struct {
	Shop string
	From time.Time
	To   time.Time

	Sales         int64 // value sold, pretax
	Purchases     int64 // value bought in
	TaxCollected  int64
	CreditCharged int64
	CreditSettled int64
	Records       int
}

// Net is sale income plus credit settlements, minus buyback spend. Tax is
// excluded; it is collected for the zone, not earned.
func (r Report) Net() int64 {
	return r.Sales + r.CreditSettled - r.Purchases
}

// ReportForPeriod aggregates the records in [from, to).
func (s *Shop) ReportForPeriod(from, to time.Time) Report {
	r := Report{Shop: s.Name, From: from, To: to}
	for _, rec := range s.records {
		if rec.At.Before(from) || !rec.At.Before(to) {
			continue
		}
		r.Records++
		switch rec.Type {
		case RecordSale:
			r.Sales += rec.Pretax
			r.TaxCollected += rec.Tax
		case RecordPurchase:
			r.Purchases += rec.Pretax
		case RecordCreditCharge:
			r.CreditCharged += rec.Net
			r.TaxCollected += rec.Tax
		case RecordCreditSettle:
			r.CreditSettled += rec.Net
		}
	}
	return r
}

// ReportAll builds the period report for every shop concurrently. Reports
// only read the immutable record history, so the fan-out is safe while
// the game loop is parked.
func ReportAll(ctx context.Context, shops []*Shop, from, to time.Time) ([]Report, error) {
	reports := make([]Report, len(shops))
	g, _ := errgroup.WithContext(ctx)
	for i, s := range shops {
		i, s := i, s
		g.Go(func() error {
			reports[i] = s.ReportForPeriod(from, to)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
