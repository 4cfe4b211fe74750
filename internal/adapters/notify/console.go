// Package notify renders scan and settlement results to the console.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool // full table vs one compact line per cycle
}

// NewConsole creates a notifier writing to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifySignals prints the signals of one scan cycle.
func (c *Console) NotifySignals(_ context.Context, signals []domain.Signal) error {
	if len(signals) == 0 {
		fmt.Fprintf(c.out, "[%s] no signals\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printSignalTable(signals)
	} else {
		c.printSignalLine(signals)
	}
	return nil
}

// NotifySettlements prints one line per settled trade.
func (c *Console) NotifySettlements(_ context.Context, trades []domain.Trade) error {
	now := time.Now().Format("15:04:05")
	for _, t := range trades {
		pnl := 0.0
		if t.PnL != nil {
			pnl = *t.PnL
		}
		fmt.Fprintf(c.out, "[%s] settled #%d %s %s $%.2f @ %.2f → %s  pnl %+.2f\n",
			now, t.ID,
			domain.TruncateQuestion(t.Question, t.MarketID, 38),
			strings.ToUpper(string(t.Direction)),
			t.Size, t.EntryPrice, t.Result, pnl)
	}
	return nil
}

// printSignalLine prints the essentials in one line.
func (c *Console) printSignalLine(signals []domain.Signal) {
	now := time.Now().Format("15:04:05")
	actionable := countActionable(signals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d signals, %d actionable", now, len(signals), actionable)

	shown := 0
	for _, sig := range signals {
		if !sig.Actionable || shown >= 3 {
			continue
		}
		fmt.Fprintf(&sb, " | %s %s e%+.0f%% c%.0f%% $%.0f",
			compactName(sig.Question, 25),
			strings.ToUpper(string(sig.Direction)),
			sig.Edge*100, sig.Confidence*100, sig.SuggestedSize)
		shown++
	}
	fmt.Fprintln(c.out, sb.String())
}

// printSignalTable prints the full per-market breakdown.
func (c *Console) printSignalTable(signals []domain.Signal) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d signals, %d actionable\n",
		now, len(signals), countActionable(signals))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Cat", "Market", "Dir", "Model", "Mkt", "Edge", "Conf", "Liq$", "Size$", "Act")

	for i, sig := range signals {
		act := ""
		if sig.Actionable {
			act = "YES"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(sig.Category),
			domain.TruncateQuestion(sig.Question, sig.MarketID, 38),
			strings.ToUpper(string(sig.Direction)),
			fmt.Sprintf("%.1f%%", sig.ModelProbability*100),
			fmt.Sprintf("%.1f%%", sig.MarketProbability*100),
			fmt.Sprintf("%+.1f%%", sig.Edge*100),
			fmt.Sprintf("%.0f%%", sig.Confidence*100),
			fmt.Sprintf("%.0f", sig.Liquidity),
			fmt.Sprintf("%.0f", sig.SuggestedSize),
			act,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Model/Mkt = probability of the chosen side | Edge = model - market")
	fmt.Fprintln(c.out, "  Act = passes min edge, confidence and liquidity thresholds")
}

// --- helpers ---

func countActionable(signals []domain.Signal) int {
	n := 0
	for _, s := range signals {
		if s.Actionable {
			n++
		}
	}
	return n
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
