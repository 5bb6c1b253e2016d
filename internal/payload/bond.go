package payload

import "github.com/seenimoa/bondrisk/pkg/models"

// Input keys of a bond descriptor.
const (
	KeyFaceValue       = "faceValue"
	KeyCouponRate      = "couponRate"
	KeyYieldToMaturity = "yieldToMaturity"
	KeyMaturityYears   = "maturityYears"
	KeyType            = "type"
	KeyRating          = "rating"
	KeySector          = "sector"
)

// Bond extracts the typed descriptor from a record. The first missing or
// malformed field is reported.
func (r *Record) Bond() (models.Bond, error) {
	var (
		b   models.Bond
		err error
	)
	if b.FaceValue, err = r.Float(KeyFaceValue); err != nil {
		return models.Bond{}, err
	}
	if b.CouponRate, err = r.Float(KeyCouponRate); err != nil {
		return models.Bond{}, err
	}
	if b.YieldToMaturity, err = r.Float(KeyYieldToMaturity); err != nil {
		return models.Bond{}, err
	}
	if b.MaturityYears, err = r.Int(KeyMaturityYears); err != nil {
		return models.Bond{}, err
	}

	bondType, err := r.Text(KeyType)
	if err != nil {
		return models.Bond{}, err
	}
	b.Type = models.BondType(bondType)

	if b.Rating, err = r.Text(KeyRating); err != nil {
		return models.Bond{}, err
	}
	if b.Sector, err = r.Text(KeySector); err != nil {
		return models.Bond{}, err
	}
	return b, nil
}
