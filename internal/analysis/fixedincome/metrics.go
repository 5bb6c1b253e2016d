package fixedincome

import (
	"errors"
	"fmt"
	"math"

	"github.com/seenimoa/bondrisk/pkg/models"
)

// MaxMaturityYears bounds the cashflow schedule of a single bond.
const MaxMaturityYears = 1000

var (
	ErrInvalidMaturity = errors.New("maturity must be a positive whole number of years")
	ErrNonFinite       = errors.New("computed value is not finite")
)

// Validate checks the inputs the pricing formulas cannot handle. Yields are
// not checked; a pathological yield is priced as-is.
func Validate(b models.Bond) error {
	if b.MaturityYears < 1 || b.MaturityYears > MaxMaturityYears {
		return fmt.Errorf("%w: got %d (allowed 1..%d)", ErrInvalidMaturity, b.MaturityYears, MaxMaturityYears)
	}
	return nil
}

// Compute prices a bond and derives its duration, convexity, basis point
// sensitivities and expected credit loss.
func Compute(b models.Bond) (models.BondMetrics, error) {
	if err := Validate(b); err != nil {
		return models.BondMetrics{}, err
	}

	ytm := b.YieldToMaturity / 100
	cfs := ProjectCashflows(b)
	price := Price(cfs)

	m := models.BondMetrics{
		MarketPrice: price,
		Cashflows:   cfs,
	}

	// A non-positive price leaves duration and convexity at zero.
	if price > 0 {
		m.MacaulayDuration = MacaulayDuration(cfs, price)
		m.Duration = ModifiedDuration(m.MacaulayDuration, ytm)
		m.Convexity = Convexity(cfs, price, ytm)
	}

	m.PV01 = PV01(m.Duration, price)
	m.DV01 = m.PV01
	m.CR01 = CR01(b, m.Duration, price)

	m.PD = ProbabilityOfDefault(b.Rating)
	m.LGD = LossGivenDefault(b.Sector)
	m.ExpectedLoss = ExpectedLoss(m.PD, m.LGD, price)

	if err := checkFinite(m); err != nil {
		return models.BondMetrics{}, err
	}
	return m, nil
}

func checkFinite(m models.BondMetrics) error {
	fields := []struct {
		name string
		v    float64
	}{
		{"marketPrice", m.MarketPrice},
		{"macaulayDuration", m.MacaulayDuration},
		{"duration", m.Duration},
		{"convexity", m.Convexity},
		{"pv01", m.PV01},
		{"expectedLoss", m.ExpectedLoss},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s", ErrNonFinite, f.name)
		}
	}
	for _, cf := range m.Cashflows {
		if math.IsNaN(cf.Discounted) || math.IsInf(cf.Discounted, 0) {
			return fmt.Errorf("%w: cashflow year %d", ErrNonFinite, cf.Year)
		}
	}
	return nil
}
