package domain

import "time"

// TradeResult is the settlement state of a simulated trade.
// A trade is pending until exactly one settlement moves it to win or loss.
type TradeResult string

const (
	ResultPending TradeResult = "pending"
	ResultWin     TradeResult = "win"
	ResultLoss    TradeResult = "loss"
)

// Trade is one simulated position on a binary market. IDs are assigned by
// storage and are monotonic. ModelProbability is the model's probability that
// the chosen direction wins, captured at entry for calibration.
type Trade struct {
	ID                int64          `json:"id"`
	MarketID          string         `json:"market_id"`
	Question          string         `json:"question"`
	Category          MarketCategory `json:"category"`
	Direction         Direction      `json:"direction"`
	EntryPrice        float64        `json:"entry_price"` // price of the chosen side at entry
	Size              float64        `json:"size"`        // dollars staked
	ModelProbability  float64        `json:"model_probability"`
	MarketProbability float64        `json:"market_probability"`
	EdgeAtEntry       float64        `json:"edge_at_entry"`
	OpenedAt          time.Time      `json:"opened_at"`
	Settled           bool           `json:"settled"`
	Result            TradeResult    `json:"result"`
	PnL               *float64       `json:"pnl,omitempty"`
	SettledAt         *time.Time     `json:"settled_at,omitempty"`
}

// SettlementPnL is the realized profit of a binary position. A winning stake
// of size at entry price p bought size/p contracts, each paying $1, for a
// profit of size*(1-p)/p. A losing stake is gone in full.
func SettlementPnL(size, entryPrice float64, won bool) float64 {
	if !won {
		return -size
	}
	if entryPrice <= 0 {
		return 0
	}
	return (size / entryPrice) * (1 - entryPrice)
}

// Resolution is a market's final outcome as reported by the venue.
type Resolution struct {
	MarketID string
	Resolved bool
	YesWon   bool
}

// Won reports whether a trade in the given direction won under this resolution.
func (r Resolution) Won(dir Direction) bool {
	if dir == DirectionNo {
		return !r.YesWon
	}
	return r.YesWon
}

// EquityPoint is one step of the equity curve, appended at settlement in
// settlement order.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	PnL       float64   `json:"pnl"`      // pnl of the settling trade
	Bankroll  float64   `json:"bankroll"` // bankroll after applying it
	TradeID   int64     `json:"trade_id"`
}

// BankrollState is the simulator's persistent aggregate state.
type BankrollState struct {
	Bankroll         float64    `json:"bankroll"`
	StartingBankroll float64    `json:"starting_bankroll"`
	TotalPnL         float64    `json:"total_pnl"`
	TotalTrades      int        `json:"total_trades"`
	WinningTrades    int        `json:"winning_trades"`
	IsRunning        bool       `json:"is_running"`
	LastRun          *time.Time `json:"last_run,omitempty"`
}

// WinRate is winning trades over settled trades, 0 when nothing has settled.
func (s BankrollState) WinRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.WinningTrades) / float64(s.TotalTrades)
}
