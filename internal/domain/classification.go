package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
)

// ErrInvalidDimension indicates a dimension other than region or category.
var ErrInvalidDimension = errors.New("dimension must be 'region' or 'category'")

// Dimension is one of the two independent axes allocations are tracked along.
type Dimension string

const (
	DimensionRegion   Dimension = "region"
	DimensionCategory Dimension = "category"
)

// Dimensions lists both dimensions in the order trade summaries report them.
func Dimensions() []Dimension {
	return []Dimension{DimensionCategory, DimensionRegion}
}

// ParseDimension validates a raw dimension string.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case DimensionRegion, DimensionCategory:
		return d, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidDimension, s)
	}
}

// Labels returns the closed label set for the dimension.
func (d Dimension) Labels() []string {
	switch d {
	case DimensionRegion:
		return slices.Clone(regionLabels)
	case DimensionCategory:
		return slices.Clone(categoryLabels)
	default:
		return nil
	}
}

// IsValidLabel reports whether label belongs to the dimension's closed label set.
func (d Dimension) IsValidLabel(label string) bool {
	switch d {
	case DimensionRegion:
		return slices.Contains(regionLabels, label)
	case DimensionCategory:
		return slices.Contains(categoryLabels, label)
	default:
		return false
	}
}

const (
	RegionUS     = "US"
	RegionDM     = "DM"
	RegionEM     = "EM"
	RegionGlobal = "Global"

	CategoryOther = "Other"
)

var regionLabels = []string{RegionUS, RegionDM, RegionEM, RegionGlobal}

// categoryLabels are GICS-style sectors plus asset-class buckets.
var categoryLabels = []string{
	"Short-Term Treasuries",
	"Long-Term Treasuries",
	"Cash",
	"Technology",
	"Financials",
	"Health Care",
	"Consumer Discretionary",
	"Communication Services",
	"Industrials",
	"Consumer Staples",
	"Energy",
	"Utilities",
	"Real Estate",
	"Materials",
	"Precious Metals",
	"Commodities",
	"Cryptocurrency",
	CategoryOther,
}

// Distribution maps a label to its percentage weight. Weights are expected to sum to 100
// but nothing relies on it.
type Distribution map[string]float64

// Labels returns the distribution's labels in ascending order.
func (d Distribution) Labels() []string {
	labels := lo.Keys(d)
	slices.Sort(labels)
	return labels
}

// Sum returns the total weight.
func (d Distribution) Sum() float64 {
	return lo.Sum(lo.Values(d))
}

// Clone returns an independent copy.
func (d Distribution) Clone() Distribution {
	if d == nil {
		return nil
	}
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Normalized rescales the weights so they sum to 100.
// Returns false when the weights sum to zero or less and cannot be rescaled.
func (d Distribution) Normalized() (Distribution, bool) {
	sum := d.Sum()
	if sum <= 0 {
		return nil, false
	}
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v * 100 / sum
	}
	return out, true
}

// ClassificationSource records where a classification came from.
type ClassificationSource string

const (
	SourceBuiltin  ClassificationSource = "builtin"
	SourceAI       ClassificationSource = "ai"
	SourceManual   ClassificationSource = "manual"
	SourceFallback ClassificationSource = "fallback"
)

// Classification splits a ticker's value across regions and categories.
type Classification struct {
	Ticker       string               `json:"ticker"`
	Name         string               `json:"name"`
	Region       Distribution         `json:"region_breakdown"`
	Category     Distribution         `json:"category_breakdown"`
	Source       ClassificationSource `json:"source"`
	ClassifiedAt time.Time            `json:"classified_at"`
}

// Distribution returns the classification's distribution for the given dimension.
func (c Classification) Distribution(dim Dimension) Distribution {
	if dim == DimensionRegion {
		return c.Region
	}
	return c.Category
}

// DefaultRegion is applied when a ticker has no region classification.
func DefaultRegion() Distribution { return Distribution{RegionUS: 100} }

// DefaultCategory is applied when a ticker has no category classification.
func DefaultCategory() Distribution { return Distribution{CategoryOther: 100} }

// DefaultClassification is used for tickers the classification store cannot resolve.
func DefaultClassification(ticker string) Classification {
	return Classification{
		Ticker:   NormalizeTicker(ticker),
		Region:   DefaultRegion(),
		Category: DefaultCategory(),
		Source:   SourceFallback,
	}
}
