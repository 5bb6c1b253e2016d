// Package fixedincome prices annual-coupon bullet bonds and derives their
// interest-rate and credit risk figures.
package fixedincome

import (
	"math"

	"github.com/seenimoa/bondrisk/pkg/models"
)

// BasisPoint is one hundredth of a percent, as a decimal rate.
const BasisPoint = 0.0001

// DiscountFactor returns 1 / (1+ytm)^year for a decimal yield.
func DiscountFactor(ytm float64, year int) float64 {
	return 1 / math.Pow(1+ytm, float64(year))
}

// ProjectCashflows lays out the annual schedule of a bullet bond and
// discounts every payment at the bond's own yield. The coupon is flat and
// the full face value is repaid in the final year.
func ProjectCashflows(b models.Bond) []models.Cashflow {
	if b.MaturityYears <= 0 {
		return []models.Cashflow{}
	}

	ytm := b.YieldToMaturity / 100
	coupon := b.FaceValue * (b.CouponRate / 100)

	cfs := make([]models.Cashflow, 0, b.MaturityYears)
	for year := 1; year <= b.MaturityYears; year++ {
		principal := 0.0
		if year == b.MaturityYears {
			principal = b.FaceValue
		}
		total := coupon + principal
		cfs = append(cfs, models.Cashflow{
			Year:       year,
			Coupon:     coupon,
			Principal:  principal,
			Total:      total,
			Discounted: total * DiscountFactor(ytm, year),
		})
	}
	return cfs
}

// Price sums the discounted cashflows.
func Price(cfs []models.Cashflow) float64 {
	price := 0.0
	for _, cf := range cfs {
		price += cf.Discounted
	}
	return price
}

// MacaulayDuration is the present-value weighted average time to payment,
// in years. Returns 0 when price is not positive.
func MacaulayDuration(cfs []models.Cashflow, price float64) float64 {
	if price <= 0 {
		return 0
	}
	weighted := 0.0
	for _, cf := range cfs {
		weighted += float64(cf.Year) * cf.Discounted
	}
	return weighted / price
}

// ModifiedDuration converts Macaulay duration to price sensitivity for an
// annually compounded decimal yield.
func ModifiedDuration(macaulay, ytm float64) float64 {
	return macaulay / (1 + ytm)
}

// Convexity returns Σ t(t+1)·PV_t / (P·(1+y)²). Returns 0 when price is not
// positive.
func Convexity(cfs []models.Cashflow, price, ytm float64) float64 {
	if price <= 0 {
		return 0
	}
	sum := 0.0
	for _, cf := range cfs {
		t := float64(cf.Year)
		sum += t * (t + 1) * cf.Discounted
	}
	return sum / (price * (1 + ytm) * (1 + ytm))
}

// PV01 is the first-order price change for a one basis point yield move.
// DV01 is the same figure.
func PV01(modifiedDuration, price float64) float64 {
	return modifiedDuration * price * BasisPoint
}

// CR01 is the price change for a one basis point credit spread move. Only
// corporate issuers carry spread risk here; the figure otherwise is 0.
func CR01(b models.Bond, modifiedDuration, price float64) float64 {
	if !b.IsCorporate() {
		return 0
	}
	return PV01(modifiedDuration, price)
}
