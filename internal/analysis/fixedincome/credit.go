package fixedincome

import "github.com/seenimoa/bondrisk/pkg/models"

const (
	// DefaultPD applies to ratings missing from the scale.
	DefaultPD = 0.001
	// DefaultLGD applies to sectors missing from the table.
	DefaultLGD = 0.40
)

// ratingScale lists the known rating codes, best credit first.
var ratingScale = []string{
	"AAA", "AA+", "AA", "AA-",
	"A+", "A", "A-",
	"BBB+", "BBB", "BBB-",
	"BB+", "BB", "B+",
}

// ratingPD holds annual probabilities of default as fractions.
var ratingPD = map[string]float64{
	"AAA":  0.0002,
	"AA+":  0.0003,
	"AA":   0.0005,
	"AA-":  0.0008,
	"A+":   0.0012,
	"A":    0.0018,
	"A-":   0.0025,
	"BBB+": 0.004,
	"BBB":  0.007,
	"BBB-": 0.012,
	"BB+":  0.02,
	"BB":   0.035,
	"B+":   0.06,
}

var sectorOrder = []string{
	"Government", "Banking", "Technology", "Healthcare", "Energy",
	"Utilities", "Telecom", "Industrials", "Consumer", "Financial Services",
}

// sectorLGD holds loss given default as fractions of exposure.
var sectorLGD = map[string]float64{
	"Government":         0.05,
	"Banking":            0.45,
	"Technology":         0.40,
	"Healthcare":         0.35,
	"Energy":             0.50,
	"Utilities":          0.35,
	"Telecom":            0.45,
	"Industrials":        0.40,
	"Consumer":           0.35,
	"Financial Services": 0.40,
}

// RatingPD looks up the default probability (fraction) for a rating code.
// The second return value is false when the fallback was used.
func RatingPD(rating string) (float64, bool) {
	pd, ok := ratingPD[rating]
	if !ok {
		return DefaultPD, false
	}
	return pd, true
}

// SectorLGD looks up the loss given default (fraction) for a sector.
func SectorLGD(sector string) (float64, bool) {
	lgd, ok := sectorLGD[sector]
	if !ok {
		return DefaultLGD, false
	}
	return lgd, true
}

// ProbabilityOfDefault returns the bond's PD in percent.
func ProbabilityOfDefault(rating string) float64 {
	pd, _ := RatingPD(rating)
	return pd * 100
}

// LossGivenDefault returns the bond's LGD in percent.
func LossGivenDefault(sector string) float64 {
	lgd, _ := SectorLGD(sector)
	return lgd * 100
}

// ExpectedLoss = PD × LGD × exposure, with PD and LGD given in percent.
func ExpectedLoss(pdPct, lgdPct, exposure float64) float64 {
	return (pdPct / 100) * (lgdPct / 100) * exposure
}

// Tables returns a copy of both lookup tables.
func Tables() models.CreditTables {
	t := models.CreditTables{
		Ratings:     make([]models.RatingPD, 0, len(ratingScale)),
		Sectors:     make([]models.SectorLGD, 0, len(sectorOrder)),
		PDFallback:  DefaultPD,
		LGDFallback: DefaultLGD,
	}
	for _, r := range ratingScale {
		t.Ratings = append(t.Ratings, models.RatingPD{Rating: r, PD: ratingPD[r]})
	}
	for _, s := range sectorOrder {
		t.Sectors = append(t.Sectors, models.SectorLGD{Sector: s, LGD: sectorLGD[s]})
	}
	return t
}
