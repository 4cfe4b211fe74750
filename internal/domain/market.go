package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MarketCategory is the coarse topic of a market, used to route estimators
// and to apply per-category filter thresholds.
type MarketCategory string

const (
	CategoryWeather   MarketCategory = "weather"
	CategoryCrypto    MarketCategory = "crypto"
	CategoryPolitics  MarketCategory = "politics"
	CategoryEconomics MarketCategory = "economics"
	CategorySports    MarketCategory = "sports"
	CategoryOther     MarketCategory = "other"
)

// Tradeable reports whether the pipeline has an estimator for this category.
// Sports lines are efficient enough that a forecast model has nothing to add,
// and "other" has no data source to estimate from.
func (c MarketCategory) Tradeable() bool {
	switch c {
	case CategoryWeather, CategoryCrypto, CategoryPolitics, CategoryEconomics:
		return true
	}
	return false
}

// Market is a binary prediction market eligible for scanning.
type Market struct {
	ID           string
	Slug         string
	Question     string
	Category     MarketCategory
	Threshold    float64   // numeric threshold from the question, if any
	ThresholdDir Condition // direction the YES side resolves on
	HasThreshold bool
	EndDate      time.Time
	Volume       float64
}

// TruncateQuestion shortens a question for table output, falling back to the
// market ID when the question is empty.
func TruncateQuestion(question, marketID string, maxLen int) string {
	q := question
	if q == "" {
		if len(marketID) > 20 {
			q = marketID[:20] + "..."
		} else {
			q = marketID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}

var categoryKeywords = map[MarketCategory][]string{
	CategoryWeather: {
		"temperature", "rain", "snow", "hurricane", "weather", "degrees",
		"high temp", "heat", "storm", "precipitation", "climate",
	},
	CategoryCrypto: {
		"bitcoin", "btc", "ethereum", "eth", "crypto", "solana", "sol",
		"dogecoin", "token", "coinbase", "binance",
	},
	CategoryPolitics: {
		"election", "president", "senate", "congress", "governor", "vote",
		"nominee", "democrat", "republican", "parliament", "minister",
	},
	CategoryEconomics: {
		"fed", "interest rate", "inflation", "cpi", "gdp", "unemployment",
		"recession", "jobs report", "fomc", "treasury",
	},
	CategorySports: {
		"nba", "nfl", "mlb", "nhl", "ufc", "premier league", "champions league",
		"world cup", "super bowl", "playoffs", "vs.", " vs ", "win the",
	},
}

// ClassifyMarket assigns a category by keyword match over the question and
// description, with a crude confidence: the winning category's matches over
// all matches. Ties and zero matches fall through to CategoryOther.
func ClassifyMarket(question, description string) (MarketCategory, float64) {
	text := strings.ToLower(question + " " + description)

	scores := make(map[MarketCategory]int)
	total := 0
	for cat, words := range categoryKeywords {
		for _, w := range words {
			if strings.Contains(text, w) {
				scores[cat]++
				total++
			}
		}
	}
	if total == 0 {
		return CategoryOther, 0
	}

	best := CategoryOther
	bestScore := 0
	for _, cat := range []MarketCategory{
		CategoryWeather, CategoryCrypto, CategoryPolitics, CategoryEconomics, CategorySports,
	} {
		if scores[cat] > bestScore {
			best = cat
			bestScore = scores[cat]
		}
	}
	return best, float64(bestScore) / float64(total)
}

// Patterns like "above $50,000", "below 90°F", "reach 100,000", "hit $3,500",
// "under 3.5%". Number may carry $, commas, decimals, and a k/K suffix.
var thresholdPattern = regexp.MustCompile(
	`(?i)\b(above|below|over|under|reach|hit|exceed|at least)\s+\$?([\d,]+(?:\.\d+)?)\s*([kK])?`)

// ExtractThreshold parses a numeric threshold and its direction from a market
// question. "below"/"under" invert the condition; everything else reads as
// above-or-equal. Returns ok=false when no threshold is present.
func ExtractThreshold(question string) (float64, Condition, bool) {
	m := thresholdPattern.FindStringSubmatch(question)
	if m == nil {
		return 0, ConditionAbove, false
	}

	raw := strings.ReplaceAll(m[2], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ConditionAbove, false
	}
	if m[3] != "" {
		v *= 1000
	}

	cond := ConditionAbove
	switch strings.ToLower(m[1]) {
	case "below", "under":
		cond = ConditionBelow
	}
	return v, cond, true
}
