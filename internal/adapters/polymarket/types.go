package polymarket

import "encoding/json"

// Raw Gamma API DTOs, used only inside this package. Conversion to domain
// entities happens in mapping.go.

// gammaMarketsResponse is the response of GET /markets.
type gammaMarketsResponse []gammaMarket

// gammaMarket is one market's metadata. Gamma returns several numeric fields
// as JSON strings, and outcomes/outcomePrices as JSON-encoded string arrays
// inside a string.
type gammaMarket struct {
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Description   string      `json:"description"`
	Slug          string      `json:"slug"`
	Category      string      `json:"category"`
	Outcomes      string      `json:"outcomes"`      // e.g. `["Yes","No"]`
	OutcomePrices string      `json:"outcomePrices"` // e.g. `["0.45","0.55"]`
	Liquidity     json.Number `json:"liquidity"`
	Volume        json.Number `json:"volume"`
	EndDateISO    string      `json:"endDateIso"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
}
