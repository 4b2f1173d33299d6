package model

import (
	"fmt"
	"math"
)

// Validate checks the profile's invariants. A zero MobilityRadiusKm is
// filled with the default rather than rejected; negative, NaN or infinite
// values are invalid.
func (p *PerformerProfile) Validate() error {
	if p.MobilityRadiusKm == 0 {
		p.MobilityRadiusKm = DefaultMobilityRadiusKm
	}
	if p.MobilityRadiusKm < 0 || math.IsNaN(p.MobilityRadiusKm) || math.IsInf(p.MobilityRadiusKm, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidMobilityRadius, p.MobilityRadiusKm)
	}
	if p.Coordinates != nil && !p.Coordinates.Valid() {
		return fmt.Errorf("%w: %+v", ErrInvalidCoordinates, *p.Coordinates)
	}
	return nil
}

// Validate checks the rating's invariants.
func (r Rating) Validate() error {
	if r.Score < 1 || r.Score > 5 {
		return fmt.Errorf("%w: %d", ErrInvalidRatingScore, r.Score)
	}
	return nil
}
