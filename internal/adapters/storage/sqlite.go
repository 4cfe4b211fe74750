// Package storage persists trades, bankroll state and the equity curve in
// SQLite (pure Go driver, no CGo). One connection, one writer: every mutation
// already arrives serialized through the engine's mutex, and the settled
// guard in SQL is the last line of defense against double settlement.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/edgebot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id   TEXT    NOT NULL,
    question    TEXT,
    category    TEXT    NOT NULL DEFAULT 'other',
    direction   TEXT    NOT NULL,
    entry_price REAL    NOT NULL,
    size        REAL    NOT NULL,
    model_prob  REAL    NOT NULL DEFAULT 0,
    market_prob REAL    NOT NULL DEFAULT 0,
    edge        REAL    NOT NULL DEFAULT 0,
    opened_at   DATETIME NOT NULL,
    settled     INTEGER NOT NULL DEFAULT 0,
    result      TEXT    NOT NULL DEFAULT 'pending',
    pnl         REAL,
    settled_at  DATETIME
);

-- Single-row aggregate state; id is pinned to 1.
CREATE TABLE IF NOT EXISTS bot_state (
    id                INTEGER PRIMARY KEY CHECK (id = 1),
    bankroll          REAL    NOT NULL,
    starting_bankroll REAL    NOT NULL,
    total_pnl         REAL    NOT NULL DEFAULT 0,
    total_trades      INTEGER NOT NULL DEFAULT 0,
    winning_trades    INTEGER NOT NULL DEFAULT 0,
    is_running        INTEGER NOT NULL DEFAULT 1,
    last_run          DATETIME
);

CREATE TABLE IF NOT EXISTS equity_points (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    ts        DATETIME NOT NULL,
    pnl       REAL     NOT NULL,
    bankroll  REAL     NOT NULL,
    trade_id  INTEGER  NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_settled ON trades(settled, market_id);
CREATE INDEX IF NOT EXISTS idx_trades_opened  ON trades(opened_at DESC);
CREATE INDEX IF NOT EXISTS idx_equity_ts      ON equity_points(ts);
`

// SQLiteStorage implements ports.TradeStorage.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at path, applies the
// schema and seeds the state row with startingBankroll when absent.
func NewSQLiteStorage(path string, startingBankroll float64) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	if _, err := db.Exec(
		`INSERT OR IGNORE INTO bot_state (id, bankroll, starting_bankroll) VALUES (1, ?, ?)`,
		startingBankroll, startingBankroll,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: seed state: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SaveTrade inserts a pending trade and returns its assigned id.
func (s *SQLiteStorage) SaveTrade(ctx context.Context, t domain.Trade) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(market_id, question, category, direction, entry_price, size,
			 model_prob, market_prob, edge, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.MarketID, t.Question, string(t.Category), string(t.Direction),
		t.EntryPrice, t.Size, t.ModelProbability, t.MarketProbability,
		t.EdgeAtEntry, t.OpenedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveTrade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.SaveTrade: last id: %w", err)
	}
	return id, nil
}

// SettleTrade moves a trade out of pending at most once. The WHERE settled=0
// guard means a concurrent second settlement updates zero rows, and we report
// it as domain.ErrAlreadySettled.
func (s *SQLiteStorage) SettleTrade(ctx context.Context, id int64, result domain.TradeResult, pnl float64, settledAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET settled = 1, result = ?, pnl = ?, settled_at = ?
		WHERE id = ? AND settled = 0`,
		string(result), pnl, settledAt.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("storage.SettleTrade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.SettleTrade: rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM trades WHERE id = ?`, id).Scan(&exists); err == nil && exists == 0 {
			return fmt.Errorf("storage.SettleTrade: trade %d not found", id)
		}
		return fmt.Errorf("storage.SettleTrade: trade %d: %w", id, domain.ErrAlreadySettled)
	}
	return nil
}

const tradeColumns = `
	id, market_id, question, category, direction, entry_price, size,
	model_prob, market_prob, edge, opened_at, settled, result, pnl, settled_at`

// GetTrade loads one trade by id.
func (s *SQLiteStorage) GetTrade(ctx context.Context, id int64) (domain.Trade, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trade{}, fmt.Errorf("storage.GetTrade: trade %d not found", id)
	}
	if err != nil {
		return domain.Trade{}, fmt.Errorf("storage.GetTrade: %w", err)
	}
	return t, nil
}

// GetTrades lists trades newest first, optionally filtered by result.
func (s *SQLiteStorage) GetTrades(ctx context.Context, limit int, result domain.TradeResult) ([]domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades`
	args := []any{}
	if result != "" {
		query += ` WHERE result = ?`
		args = append(args, string(result))
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: %w", err)
	}
	defer rows.Close()
	return collectTrades(rows, "storage.GetTrades")
}

// GetPendingTrades lists unsettled trades oldest first, so settlement
// processes them in open order.
func (s *SQLiteStorage) GetPendingTrades(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE settled = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetPendingTrades: %w", err)
	}
	defer rows.Close()
	return collectTrades(rows, "storage.GetPendingTrades")
}

// GetSettledTrades lists settled trades in settlement order.
func (s *SQLiteStorage) GetSettledTrades(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE settled = 1 ORDER BY settled_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetSettledTrades: %w", err)
	}
	defer rows.Close()
	return collectTrades(rows, "storage.GetSettledTrades")
}

// CountPending returns the number of unsettled trades.
func (s *SQLiteStorage) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE settled = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CountPending: %w", err)
	}
	return n, nil
}

// HasOpenTrade reports whether a market already has a pending trade.
func (s *SQLiteStorage) HasOpenTrade(ctx context.Context, marketID string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE market_id = ? AND settled = 0`, marketID).Scan(&n); err != nil {
		return false, fmt.Errorf("storage.HasOpenTrade: %w", err)
	}
	return n > 0, nil
}

// GetState loads the single aggregate state row.
func (s *SQLiteStorage) GetState(ctx context.Context) (domain.BankrollState, error) {
	var (
		state   domain.BankrollState
		running int
		lastRun sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT bankroll, starting_bankroll, total_pnl, total_trades,
		       winning_trades, is_running, last_run
		FROM bot_state WHERE id = 1`).Scan(
		&state.Bankroll, &state.StartingBankroll, &state.TotalPnL,
		&state.TotalTrades, &state.WinningTrades, &running, &lastRun,
	)
	if err != nil {
		return domain.BankrollState{}, fmt.Errorf("storage.GetState: %w", err)
	}
	state.IsRunning = running == 1
	if lastRun.Valid {
		if ts, err := time.Parse(time.RFC3339, lastRun.String); err == nil {
			state.LastRun = &ts
		}
	}
	return state, nil
}

// SaveState overwrites the aggregate state row.
func (s *SQLiteStorage) SaveState(ctx context.Context, state domain.BankrollState) error {
	running := 0
	if state.IsRunning {
		running = 1
	}
	var lastRun any
	if state.LastRun != nil {
		lastRun = state.LastRun.UTC().Format(time.RFC3339)
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE bot_state
		SET bankroll = ?, starting_bankroll = ?, total_pnl = ?,
		    total_trades = ?, winning_trades = ?, is_running = ?, last_run = ?
		WHERE id = 1`,
		state.Bankroll, state.StartingBankroll, state.TotalPnL,
		state.TotalTrades, state.WinningTrades, running, lastRun,
	); err != nil {
		return fmt.Errorf("storage.SaveState: %w", err)
	}
	return nil
}

// AppendEquityPoint appends one equity curve step.
func (s *SQLiteStorage) AppendEquityPoint(ctx context.Context, p domain.EquityPoint) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO equity_points (ts, pnl, bankroll, trade_id) VALUES (?, ?, ?, ?)`,
		p.Timestamp.UTC().Format(time.RFC3339), p.PnL, p.Bankroll, p.TradeID,
	); err != nil {
		return fmt.Errorf("storage.AppendEquityPoint: %w", err)
	}
	return nil
}

// GetEquityCurve returns equity points in insertion (settlement) order.
func (s *SQLiteStorage) GetEquityCurve(ctx context.Context) ([]domain.EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, pnl, bankroll, trade_id FROM equity_points ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetEquityCurve: %w", err)
	}
	defer rows.Close()

	var points []domain.EquityPoint
	for rows.Next() {
		var p domain.EquityPoint
		var ts string
		if err := rows.Scan(&ts, &p.PnL, &p.Bankroll, &p.TradeID); err != nil {
			return nil, fmt.Errorf("storage.GetEquityCurve: scan: %w", err)
		}
		p.Timestamp, _ = time.Parse(time.RFC3339, ts)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Reset wipes trades and equity and restores the starting bankroll. The
// is_running flag survives a reset.
func (s *SQLiteStorage) Reset(ctx context.Context, startingBankroll float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Reset: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM trades`,
		`DELETE FROM equity_points`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage.Reset: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE bot_state
		SET bankroll = ?, starting_bankroll = ?, total_pnl = 0,
		    total_trades = 0, winning_trades = 0, last_run = NULL
		WHERE id = 1`,
		startingBankroll, startingBankroll,
	); err != nil {
		return fmt.Errorf("storage.Reset: state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Reset: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- row scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (domain.Trade, error) {
	var (
		t         domain.Trade
		category  string
		direction string
		result    string
		openedAt  string
		settled   int
		pnl       sql.NullFloat64
		settledAt sql.NullString
	)
	if err := row.Scan(
		&t.ID, &t.MarketID, &t.Question, &category, &direction,
		&t.EntryPrice, &t.Size, &t.ModelProbability, &t.MarketProbability,
		&t.EdgeAtEntry, &openedAt, &settled, &result, &pnl, &settledAt,
	); err != nil {
		return domain.Trade{}, err
	}

	t.Category = domain.MarketCategory(category)
	t.Direction = domain.Direction(direction)
	t.Result = domain.TradeResult(result)
	t.Settled = settled == 1
	t.OpenedAt, _ = time.Parse(time.RFC3339, openedAt)
	if pnl.Valid {
		v := pnl.Float64
		t.PnL = &v
	}
	if settledAt.Valid {
		if ts, err := time.Parse(time.RFC3339, settledAt.String); err == nil {
			t.SettledAt = &ts
		}
	}
	return t, nil
}

func collectTrades(rows *sql.Rows, op string) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
