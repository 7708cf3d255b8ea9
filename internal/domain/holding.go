package domain

import "strings"

// Holding is a single brokerage position as exported by the brokerage.
type Holding struct {
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Price     *float64 `json:"price"`
	Value     float64  `json:"value"`
	Brokerage string   `json:"brokerage"`
	Account   string   `json:"account"`
}

// NormalizeTicker trims and uppercases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
