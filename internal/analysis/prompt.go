package analysis

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/rebalance"
)

const maxPromptHoldings = 25

const systemPrompt = "You are a portfolio analyst. Return well-formatted Markdown. No JSON."

const instructions = `You are a thoughtful investment strategist writing for a sophisticated individual investor (not an institution). Analyze this portfolio and write a clear, narrative-style analysis in **Markdown**. Avoid jargon; explain what the portfolio says about the investor's view of the world, as if talking to a smart friend over coffee.

Structure (use these exact headers):

### The Big Picture
One punchy paragraph (~50 words) naming the portfolio's overall philosophy in plain language and its single biggest bet.

### What This Portfolio Is Saying
Two or three flowing paragraphs, not bullet points. Compare to a standard 60/40 US-centric portfolio and explain the key tilts: what is overweight, what is underweight, and why that matters. Cover the macro thesis, the geopolitical stance, what the cash and treasury buffer means strategically, and the commodity, precious metals and crypto angle. Frame it as "this portfolio is built for a world where X, Y, Z happen".

### The Risk of Being Wrong
One paragraph on the main scenario where this portfolio underperforms. Be specific about what would need to happen in the world for this allocation to look bad.

Write conversationally but with authority. Reference actual percentages from the data, but don't list holdings. Total ~250-300 words.

Portfolio data:
`

// BuildPrompt renders the breakdown as the data section of the analysis prompt.
// Only the largest holdings are listed.
func BuildPrompt(b domain.Breakdown) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	fmt.Fprintf(&sb, "Total portfolio value: $%s\n\n", humanize.FormatFloat("#,###.##", b.TotalValue))

	sb.WriteString("### Category Breakdown\n")
	writeLabelValues(&sb, b.ByCategory)

	sb.WriteString("\n### Region Breakdown\n")
	writeLabelValues(&sb, b.ByRegion)

	sb.WriteString("\n### Top Holdings (by value)\n")
	for _, h := range lo.Slice(b.Holdings, 0, maxPromptHoldings) {
		fmt.Fprintf(&sb, "- %s: %s (%v%%) | cat=[%s] | reg=[%s]\n",
			h.Ticker, rebalance.FormatDollars(h.Value), h.Pct, distribution(h.Category), distribution(h.Region))
	}
	return sb.String()
}

func writeLabelValues(sb *strings.Builder, lvs domain.LabelValues) {
	for _, lv := range lvs {
		fmt.Fprintf(sb, "- %s: %v%% (%s)\n", lv.Label, lv.Pct, rebalance.FormatDollars(lv.Value))
	}
}

func distribution(d domain.Distribution) string {
	return strings.Join(lo.Map(d.Labels(), func(label string, _ int) string {
		return fmt.Sprintf("%s %v%%", label, d[label])
	}), ", ")
}
