// Package models defines the shared domain types for bonds, their computed
// metrics and the credit lookup tables.
package models

// --- Fixed Income / Bond descriptors ---

// BondType is the issuer category of a bond.
type BondType string

const (
	BondCorporate  BondType = "Corporate"
	BondGovernment BondType = "Government"
)

// Bond is the typed view of a bond descriptor. Rates are in percent
// (5.0 means 5%), amounts in currency units.
type Bond struct {
	FaceValue       float64  `json:"faceValue"`
	CouponRate      float64  `json:"couponRate"`      // percent
	YieldToMaturity float64  `json:"yieldToMaturity"` // percent
	MaturityYears   int      `json:"maturityYears"`
	Type            BondType `json:"type"`
	Rating          string   `json:"rating"` // e.g., "AAA", "BBB-"
	Sector          string   `json:"sector"` // e.g., "Banking", "Government"
}

// IsCorporate reports whether the bond carries issuer credit spread risk.
// The match is exact and case-sensitive.
func (b Bond) IsCorporate() bool {
	return b.Type == BondCorporate
}

// --- Fixed Income / Computed metrics ---

// Cashflow is one annual payment of a bullet bond.
type Cashflow struct {
	Year       int     `json:"year"`
	Coupon     float64 `json:"coupon"`
	Principal  float64 `json:"principal"`
	Total      float64 `json:"total"`
	Discounted float64 `json:"discounted"` // present value at the bond's yield
}

// BondMetrics holds the pricing and risk figures for a single bond.
// Field order is the order in which the figures are appended to output records.
type BondMetrics struct {
	MarketPrice      float64    `json:"marketPrice"`
	MacaulayDuration float64    `json:"macaulayDuration"`
	Duration         float64    `json:"duration"` // modified duration
	Convexity        float64    `json:"convexity"`
	PV01             float64    `json:"pv01"`
	DV01             float64    `json:"dv01"`
	CR01             float64    `json:"cr01"`
	PD               float64    `json:"pd"`  // percent
	LGD              float64    `json:"lgd"` // percent
	ExpectedLoss     float64    `json:"expectedLoss"`
	Cashflows        []Cashflow `json:"cashflows"`
}

// --- Fixed Income / Credit tables ---

// RatingPD maps a rating code to its probability of default.
type RatingPD struct {
	Rating string  `json:"rating"`
	PD     float64 `json:"pd"` // fraction, 0.007 = 0.7%
}

// SectorLGD maps a sector to its loss given default.
type SectorLGD struct {
	Sector string  `json:"sector"`
	LGD    float64 `json:"lgd"` // fraction
}

// CreditTables is a read-only snapshot of the credit lookup tables.
type CreditTables struct {
	Ratings     []RatingPD  `json:"ratings"` // rating scale order, best first
	Sectors     []SectorLGD `json:"sectors"`
	PDFallback  float64     `json:"pd_fallback"`
	LGDFallback float64     `json:"lgd_fallback"`
}
