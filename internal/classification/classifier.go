package classification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// TickerName is a ticker with the security name the brokerage reported for it.
type TickerName struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Classifier classifies tickers the builtin table does not know. Tickers missing from a
// successful result are treated as unclassifiable. On error the result may still carry the
// tickers that were classified.
type Classifier interface {
	Classify(ctx context.Context, items []TickerName) (map[string]domain.Classification, error)
}

// JSONGenerator returns a model's raw JSON reply to a prompt.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

const classifierBatchSize = 25

// GeminiClassifier classifies tickers with a language model, in batches.
type GeminiClassifier struct {
	gen JSONGenerator
}

// NewGeminiClassifier creates a classifier backed by gen.
func NewGeminiClassifier(gen JSONGenerator) *GeminiClassifier {
	return &GeminiClassifier{gen: gen}
}

type aiClassification struct {
	Region   domain.Distribution `json:"region"`
	Category domain.Distribution `json:"category"`
}

// Classify classifies items in batches. A failing batch does not discard the others: the
// result holds every ticker classified so far, and the error joins the batch failures.
func (c *GeminiClassifier) Classify(ctx context.Context, items []TickerName) (map[string]domain.Classification, error) {
	out := make(map[string]domain.Classification, len(items))
	var errs []error

	for _, batch := range lo.Chunk(items, classifierBatchSize) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		parsed, err := c.classifyBatch(ctx, batch)
		if err != nil {
			slog.Warn("classifier batch failed", "tickers", len(batch), "error", err)
			errs = append(errs, err)
			continue
		}

		for _, item := range batch {
			ticker := domain.NormalizeTicker(item.Ticker)
			r, ok := parsed[ticker]
			if !ok {
				continue
			}
			out[ticker] = Sanitize(domain.Classification{
				Ticker:   ticker,
				Name:     item.Name,
				Region:   r.Region,
				Category: r.Category,
				Source:   domain.SourceAI,
			})
		}
	}
	return out, errors.Join(errs...)
}

func (c *GeminiClassifier) classifyBatch(ctx context.Context, batch []TickerName) (map[string]aiClassification, error) {
	reply, err := c.gen.GenerateJSON(ctx, BuildPrompt(batch))
	if err != nil {
		return nil, fmt.Errorf("classifying %d tickers: %w", len(batch), err)
	}

	var raw map[string]aiClassification
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return nil, fmt.Errorf("parsing classifier reply: %w", err)
	}
	return lo.MapKeys(raw, func(_ aiClassification, ticker string) string {
		return domain.NormalizeTicker(ticker)
	}), nil
}

const promptHeader = `You are a financial data expert. For each ticker below, classify it using ONLY these allowed values.

Allowed REGIONS (percentages must sum to 100):
  - US: United States
  - DM: Developed Markets ex-US (Europe, Japan, Australia, Canada, etc.)
  - EM: Emerging Markets (China, India, Brazil, etc.)
  - Global: Cannot be attributed to a single region (e.g., commodities, gold)

Allowed CATEGORIES (percentages must sum to 100):
%s
Rules:
- Use ONLY the category and region keys listed above, exactly as spelled.
- Percentages in each breakdown must sum to exactly 100.
- For ETFs, base the breakdown on the sector composition of the underlying holdings.
- For individual stocks, classify by the company's primary business sector.
- Precious metals miners (GDX, GDXJ) go under Precious Metals, not Materials.
- Short-Term Treasuries means maturity under 3 years; longer Treasuries and TIPS are Long-Term Treasuries.
- Corporate and international bonds go under Other.

Return ONLY valid JSON, no markdown. Format:
{
  "TICKER": {
    "region": {"US": 60, "DM": 30, "EM": 10},
    "category": {"Technology": 100}
  }
}

Tickers to classify:
`

// BuildPrompt renders the classification prompt for a batch of tickers.
func BuildPrompt(items []TickerName) string {
	var categories strings.Builder
	for _, label := range domain.DimensionCategory.Labels() {
		fmt.Fprintf(&categories, "  - %s\n", label)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, promptHeader, categories.String())
	for _, item := range items {
		if item.Name != "" {
			fmt.Fprintf(&sb, "- %s (%s)\n", domain.NormalizeTicker(item.Ticker), item.Name)
		} else {
			fmt.Fprintf(&sb, "- %s\n", domain.NormalizeTicker(item.Ticker))
		}
	}
	return sb.String()
}
