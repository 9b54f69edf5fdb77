package trust

import (
	"time"

	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
)

// Policy holds the return-request volumes that trigger automatic blocking.
type Policy struct {
	BuyerWindowMonths  int
	BuyerMaxReturns    int
	SellerWindowDays   int
	SellerBlockReturns int
	RetentionDays      int
}

// DefaultPolicy: a buyer with more than 3 requests in 6 months, or a seller
// with 3 or more in 30 days, gets blocked.
func DefaultPolicy() Policy {
	return Policy{
		BuyerWindowMonths:  6,
		BuyerMaxReturns:    3,
		SellerWindowDays:   30,
		SellerBlockReturns: 3,
		RetentionDays:      90,
	}
}

// PolicyFromConfig fills unset values from DefaultPolicy.
func PolicyFromConfig(cfg config.TrustConfig) Policy {
	p := DefaultPolicy()
	if cfg.BuyerWindowMonths > 0 {
		p.BuyerWindowMonths = cfg.BuyerWindowMonths
	}
	if cfg.BuyerMaxReturns > 0 {
		p.BuyerMaxReturns = cfg.BuyerMaxReturns
	}
	if cfg.SellerWindowDays > 0 {
		p.SellerWindowDays = cfg.SellerWindowDays
	}
	if cfg.SellerBlockReturns > 0 {
		p.SellerBlockReturns = cfg.SellerBlockReturns
	}
	if cfg.RetentionDays > 0 {
		p.RetentionDays = cfg.RetentionDays
	}
	return p
}

func (p Policy) BuyerWindowStart(now time.Time) time.Time {
	return now.AddDate(0, -p.BuyerWindowMonths, 0)
}

func (p Policy) SellerWindowStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.SellerWindowDays)
}

func (p Policy) ShouldBlockBuyer(requests int64) bool {
	return requests > int64(p.BuyerMaxReturns)
}

func (p Policy) ShouldBlockSeller(requests int64) bool {
	return requests >= int64(p.SellerBlockReturns)
}

// DeleteAfter is when a request finished at finishedAt may be purged.
func (p Policy) DeleteAfter(finishedAt time.Time) time.Time {
	return finishedAt.AddDate(0, 0, p.RetentionDays)
}
