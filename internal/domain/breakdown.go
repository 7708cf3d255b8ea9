package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LabelValue is the dollar value and share of the portfolio attributed to one label.
type LabelValue struct {
	Label string  `json:"-"`
	Value float64 `json:"value"`
	Pct   float64 `json:"pct"`
}

// LabelValues is an ordered label breakdown. It serializes as a JSON object whose keys keep
// the slice order (descending value).
type LabelValues []LabelValue

// Find returns the entry for label.
func (lv LabelValues) Find(label string) (LabelValue, bool) {
	for _, v := range lv {
		if v.Label == label {
			return v, true
		}
	}
	return LabelValue{}, false
}

// TotalValue sums the values of all labels.
func (lv LabelValues) TotalValue() float64 {
	var sum float64
	for _, v := range lv {
		sum += v.Value
	}
	return sum
}

func (lv LabelValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range lv {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (lv *LabelValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*lv = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("label values: expected object, got %v", tok)
	}

	out := LabelValues{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("label values: expected string key, got %v", keyTok)
		}
		var v LabelValue
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("label values: decoding %q: %w", label, err)
		}
		v.Label = label
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*lv = out
	return nil
}

// HoldingDetail is one ticker consolidated across brokerages and accounts.
type HoldingDetail struct {
	Ticker     string       `json:"ticker"`
	Name       string       `json:"name"`
	Value      float64      `json:"value"`
	Pct        float64      `json:"pct"`
	Quantity   float64      `json:"quantity"`
	Brokerages []string     `json:"brokerages"`
	Region     Distribution `json:"region"`
	Category   Distribution `json:"category"`
}

// Breakdown is the portfolio aggregated by region, by category and by ticker.
type Breakdown struct {
	TotalValue float64         `json:"total_value"`
	ByRegion   LabelValues     `json:"by_region"`
	ByCategory LabelValues     `json:"by_category"`
	Holdings   []HoldingDetail `json:"holdings"`
}

// EmptyBreakdown is the breakdown of a portfolio with no value.
func EmptyBreakdown() Breakdown {
	return Breakdown{
		ByRegion:   LabelValues{},
		ByCategory: LabelValues{},
		Holdings:   []HoldingDetail{},
	}
}

// ByDimension returns the label breakdown for dim.
func (b Breakdown) ByDimension(dim Dimension) LabelValues {
	if dim == DimensionRegion {
		return b.ByRegion
	}
	return b.ByCategory
}
