package domain

import (
	"fmt"
	"time"
)

// Direction is the side of a binary market a signal bets on.
type Direction string

const (
	DirectionYes Direction = "yes"
	DirectionNo  Direction = "no"
)

// Edge is the model's probability advantage over the market for one side:
// model P(side wins) minus the price of that side. Positive means the model
// thinks the side is underpriced.
func Edge(modelProb float64, q MarketQuote, dir Direction) float64 {
	if dir == DirectionNo {
		return (1 - modelProb) - q.ImpliedNo()
	}
	return modelProb - q.YesPrice
}

// BestDirection picks the side with the larger edge. When the two prices sum
// to 1 the edges are exact mirrors and YES wins ties.
func BestDirection(modelProb float64, q MarketQuote) (Direction, float64) {
	yes := Edge(modelProb, q, DirectionYes)
	no := Edge(modelProb, q, DirectionNo)
	if no > yes {
		return DirectionNo, no
	}
	return DirectionYes, yes
}

// Factor is one named contribution to an estimate, kept for explanations.
type Factor struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight,omitempty"`
}

// Explanation is the structured audit record attached to every signal:
// enough to reconstruct why the signal said what it said, plus a one-line
// human summary. It is a record, not a log line.
type Explanation struct {
	ModelProbability  float64  `json:"model_probability"`
	MarketProbability float64  `json:"market_probability"`
	Edge              float64  `json:"edge"`
	Confidence        float64  `json:"confidence"`
	Sources           []string `json:"sources,omitempty"`
	SampleCount       int      `json:"sample_count"`
	Factors           []Factor `json:"factors,omitempty"`
	Summary           string   `json:"summary"`
}

// Signal is the output of one market evaluation in a scan cycle.
// SuggestedSize is zero unless the signal is actionable.
type Signal struct {
	ID                string         `json:"id"`
	MarketID          string         `json:"market_id"`
	Question          string         `json:"question"`
	Category          MarketCategory `json:"category"`
	Direction         Direction      `json:"direction"`
	ModelProbability  float64        `json:"model_probability"`
	MarketProbability float64        `json:"market_probability"`
	EntryPrice        float64        `json:"entry_price"`
	Edge              float64        `json:"edge"`
	Confidence        float64        `json:"confidence"`
	Liquidity         float64        `json:"liquidity"`
	SuggestedSize     float64        `json:"suggested_size"`
	Actionable        bool           `json:"actionable"`
	Explanation       Explanation    `json:"explanation"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Summarize renders the one-line human side of an explanation.
func Summarize(dir Direction, modelProb, marketProb, edge float64) string {
	return fmt.Sprintf("model %.1f%% vs market %.1f%% → %s edge %+.1f%%",
		modelProb*100, marketProb*100, dir, edge*100)
}
