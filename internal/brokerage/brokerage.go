// Package brokerage parses position exports from supported brokerages into holdings.
package brokerage

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mtlprog/rebalancer/internal/domain"
)

var (
	// ErrHeaderNotFound indicates the export has no recognizable column header row.
	ErrHeaderNotFound = errors.New("header row not found")
	// ErrUnknownBrokerage indicates a brokerage tag with no parser.
	ErrUnknownBrokerage = errors.New("unknown brokerage")
)

const (
	Fidelity = "fidelity"
	Schwab   = "schwab"
)

type parser func(content []byte) ([]domain.Holding, error)

var parsers = map[string]parser{
	Fidelity: ParseFidelity,
	Schwab:   ParseSchwab,
}

// Supported lists the brokerage tags Parse accepts.
func Supported() []string {
	return []string{Fidelity, Schwab}
}

// IsSupported reports whether brokerage names a known export format (case-insensitive).
func IsSupported(brokerage string) bool {
	_, ok := parsers[strings.ToLower(strings.TrimSpace(brokerage))]
	return ok
}

// Parse dispatches content to the parser for brokerage (case-insensitive).
func Parse(brokerage string, content []byte) ([]domain.Holding, error) {
	p, ok := parsers[strings.ToLower(strings.TrimSpace(brokerage))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownBrokerage, brokerage, strings.Join(Supported(), ", "))
	}
	return p(content)
}

var fidelitySkip = []string{"CASH", "PENDING ACTIVITY", "FCASH", "SPAXX", "FDRXX"}

// ParseFidelity parses a Fidelity "Portfolio Positions" export.
func ParseFidelity(content []byte) ([]domain.Holding, error) {
	lines := splitLines(content)
	headerIdx, ok := findHeader(lines, "Quantity", "Current Value")
	if !ok {
		return nil, fmt.Errorf("fidelity: %w (expected Symbol, Description, Quantity, Last Price, Current Value)", ErrHeaderNotFound)
	}

	rows, err := readTable(lines[headerIdx:])
	if err != nil {
		return nil, fmt.Errorf("fidelity: %w", err)
	}

	var holdings []domain.Holding
	for _, r := range rows {
		ticker := r.get("Symbol")
		if ticker == "" || strings.HasPrefix(ticker, "***") {
			continue
		}
		ticker = domain.NormalizeTicker(ticker)
		if slices.Contains(fidelitySkip, ticker) {
			continue
		}

		quantity := parseNumber(r.get("Quantity", "Shares"))
		value := parseNumber(r.get("Current Value", "Market Value"))
		if value == 0 && quantity == 0 {
			continue
		}

		holdings = append(holdings, domain.Holding{
			Ticker:    ticker,
			Name:      r.get("Description", "Security Description"),
			Quantity:  quantity,
			Price:     parsePrice(r.get("Last Price")),
			Value:     value,
			Brokerage: Fidelity,
			Account:   r.get("Account Name", "Account Number"),
		})
	}
	return holdings, nil
}

var schwabSkip = []string{"ACCOUNT TOTAL", "CASH & CASH INVESTMENTS", "CASH", "SWVXX"}

// ParseSchwab parses a Schwab "Positions" export. The account name is taken from the
// preamble above the header row.
func ParseSchwab(content []byte) ([]domain.Holding, error) {
	lines := splitLines(content)
	headerIdx, ok := findHeader(lines, "Quantity", "Market Value")
	if !ok {
		return nil, fmt.Errorf("schwab: %w (expected Symbol, Name, Quantity, Price, Market Value)", ErrHeaderNotFound)
	}

	account := ""
	for _, line := range lines[:headerIdx] {
		line = cleanCell(line)
		if line != "" && !strings.HasPrefix(line, ",") {
			account = line
			break
		}
	}

	rows, err := readTable(lines[headerIdx:])
	if err != nil {
		return nil, fmt.Errorf("schwab: %w", err)
	}

	var holdings []domain.Holding
	for _, r := range rows {
		ticker := domain.NormalizeTicker(r.get("Symbol"))
		if ticker == "" || slices.Contains(schwabSkip, ticker) || strings.Contains(strings.ToLower(ticker), "total") {
			continue
		}

		quantity := parseNumber(r.get("Qty (Quantity)", "Quantity", "Shares"))
		value := parseNumber(r.get("Mkt Val (Market Value)", "Market Value", "Current Value"))
		if value == 0 && quantity == 0 {
			continue
		}

		holdings = append(holdings, domain.Holding{
			Ticker:    ticker,
			Name:      r.get("Description", "Name"),
			Quantity:  quantity,
			Price:     parsePrice(r.get("Price", "Last Price")),
			Value:     value,
			Brokerage: Schwab,
			Account:   account,
		})
	}
	return holdings, nil
}
