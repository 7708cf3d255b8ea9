package classification

import (
	"errors"
	"fmt"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// ErrInvalidLabel indicates a distribution label outside its dimension's closed set.
var ErrInvalidLabel = errors.New("invalid label")

// Sanitize clamps a classification into the closed label sets: unknown labels and
// non-positive weights are dropped and weights above 100 are capped. A side left empty takes
// the default distribution. The ticker is normalized.
func Sanitize(c domain.Classification) domain.Classification {
	c.Ticker = domain.NormalizeTicker(c.Ticker)
	c.Region = sanitizeSide(domain.DimensionRegion, c.Region, domain.DefaultRegion())
	c.Category = sanitizeSide(domain.DimensionCategory, c.Category, domain.DefaultCategory())
	return c
}

func sanitizeSide(dim domain.Dimension, d, fallback domain.Distribution) domain.Distribution {
	out := make(domain.Distribution, len(d))
	for label, w := range d {
		if !dim.IsValidLabel(label) || !(w > 0) {
			continue
		}
		out[label] = min(w, 100)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Validate reports the first label in c that is not part of its dimension's label set,
// and any weight outside [0, 100].
func Validate(c domain.Classification) error {
	for _, dim := range domain.Dimensions() {
		d := c.Distribution(dim)
		for _, label := range d.Labels() {
			if !dim.IsValidLabel(label) {
				return fmt.Errorf("%w: %s %q", ErrInvalidLabel, dim, label)
			}
			if w := d[label]; w < 0 || w > 100 {
				return fmt.Errorf("%w: %s %q weight %v out of range", ErrInvalidLabel, dim, label, w)
			}
		}
	}
	return nil
}
