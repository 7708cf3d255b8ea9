package domain

// TargetAllocation is the user's desired share for one label of a dimension.
// (Dimension, Label) is unique.
type TargetAllocation struct {
	Dimension Dimension `json:"dimension"`
	Label     string    `json:"label"`
	TargetPct float64   `json:"target_pct"`
}

// Action is the recommended move for a label.
type Action string

const (
	ActionSell Action = "sell"
	ActionBuy  Action = "buy"
	ActionHold Action = "hold"
)

// RebalanceItem compares one label's current allocation with its target.
type RebalanceItem struct {
	Label        string  `json:"label"`
	CurrentPct   float64 `json:"current_pct"`
	TargetPct    float64 `json:"target_pct"`
	CurrentValue float64 `json:"current_value"`
	TargetValue  float64 `json:"target_value"`
	Drift        float64 `json:"drift"`
	Action       Action  `json:"action"`
	Amount       float64 `json:"amount"`
}

// TradePlan is the rebalance result for both dimensions plus a readable summary.
type TradePlan struct {
	Region   []RebalanceItem `json:"region"`
	Category []RebalanceItem `json:"category"`
	Summary  string          `json:"summary"`
}
