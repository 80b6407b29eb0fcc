package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo tablas en texto plano.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyScan imprime el universo, las tablas top de calls/puts y el plan de capital.
func (c *Console) NotifyScan(_ context.Context, r domain.ScanResult) error {
	fmt.Fprintf(c.out, "\n=== Aggressive Monthly Options Sniper - %s ===\n", r.ScannedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(c.out, "Universe Size: %d\n", r.UniverseSize)
	if skipped := r.TickersSkipped(); skipped > 0 {
		fmt.Fprintf(c.out, "Tickers skipped: %d (%s)\n", skipped, formatReasons(domain.CountSkips(r.Outcomes)))
	}
	if len(r.ContractsSkipped) > 0 {
		fmt.Fprintf(c.out, "Contracts scored: %d, skipped: %s\n", r.ContractsScored, formatReasons(r.ContractsSkipped))
	}

	if r.Selection.Empty {
		fmt.Fprintln(c.out, "\n  ⚠ No options scored today. Relax filters or check universe.")
	} else {
		c.printOptions("Top CALLS", r.Selection.Calls)
		c.printOptions("Top PUTS", r.Selection.Puts)
	}

	c.printPlan(r.Plan)
	return nil
}

func (c *Console) printOptions(title string, opts []domain.ScoredOption) {
	fmt.Fprintf(c.out, "\n%s\n", title)
	if len(opts) == 0 {
		fmt.Fprintln(c.out, "  (none above threshold)")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Ticker", "Exp", "Strike", "Stock", "Bid", "Ask", "Last", "Vol", "OI", "Score")
	for i, o := range opts {
		table.Append(
			fmt.Sprintf("%d", i+1),
			o.Ticker,
			o.Expiration.Format("2006-01-02"),
			fmt.Sprintf("%.2f", o.Strike),
			fmt.Sprintf("%.2f", o.StockPrice),
			fmt.Sprintf("%.2f", o.Bid),
			fmt.Sprintf("%.2f", o.Ask),
			fmt.Sprintf("%.2f", o.LastPrice),
			fmt.Sprintf("%d", o.Volume),
			fmt.Sprintf("%d", o.OpenInterest),
			fmt.Sprintf("%d", o.Score),
		)
	}
	table.Render()
}

func (c *Console) printPlan(p domain.AllocationPlan) {
	fmt.Fprintf(c.out, "\nCapital Allocation (start $%s)\n", p.StartingCapital.StringFixed(2))
	if p.Empty() {
		fmt.Fprintln(c.out, "No contracts fit capital allocation rules today.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Type", "Strike", "Exp", "Score", "Contracts", "Total Cost")
	for _, e := range p.Entries {
		table.Append(
			e.Ticker,
			string(e.Type),
			fmt.Sprintf("%.2f", e.Strike),
			e.Expiration.Format("2006-01-02"),
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.Contracts),
			"$"+e.TotalCost.StringFixed(2),
		)
	}
	table.Render()
	fmt.Fprintf(c.out, "Remaining Capital: $%s\n", p.RemainingCapital.StringFixed(2))
}

// NotifyBacktest imprime el resumen del backtest o el aviso de "sin trades".
func (c *Console) NotifyBacktest(_ context.Context, s domain.BacktestStats) error {
	fmt.Fprintf(c.out, "\n=== Rolling Backtest (%d tickers tested, %d skipped) ===\n", s.TickersTested, s.TickersSkipped)
	if s.NoTrades {
		fmt.Fprintln(c.out, "No qualifying trades found.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Trades", "Wins", "Losses", "Win Rate", "Total Return", "Start", "End")
	table.Append(
		fmt.Sprintf("%d", s.Trades),
		fmt.Sprintf("%d", s.Wins),
		fmt.Sprintf("%d", s.Losses),
		fmt.Sprintf("%.2f%%", s.WinRatePct),
		fmt.Sprintf("%.2f%%", s.TotalReturnPct),
		fmt.Sprintf("$%.2f", s.StartingCapital),
		fmt.Sprintf("$%.2f", s.FinalCapital),
	)
	table.Render()
	return nil
}

// NotifyTicker imprime el informe manual de un ticker.
func (c *Console) NotifyTicker(_ context.Context, r domain.TickerReport) error {
	fmt.Fprintf(c.out, "\n%s Current Price: $%.2f\n", r.Ticker, r.Price)
	fmt.Fprintf(c.out, "%s Trend Score: %d\n", r.Ticker, r.TrendScore)

	if !r.HasOptions {
		fmt.Fprintln(c.out, "No options found for this ticker.")
		return nil
	}

	fmt.Fprintf(c.out, "Nearest expiration: %s\n", r.Expiration.Format("2006-01-02"))
	c.printRaw("Top Calls", r.TopCalls)
	c.printRaw("Top Puts", r.TopPuts)
	return nil
}

func (c *Console) printRaw(title string, cs []domain.OptionContractRaw) {
	fmt.Fprintf(c.out, "\n%s\n", title)
	table := tablewriter.NewWriter(c.out)
	table.Header("Contract", "Strike", "Bid", "Ask", "Last", "Vol", "OI", "IV")
	for _, o := range cs {
		iv := "-"
		if o.ImpliedVolatility != nil {
			iv = fmt.Sprintf("%.2f", *o.ImpliedVolatility)
		}
		table.Append(
			o.Symbol,
			fmt.Sprintf("%.2f", o.Strike),
			fmt.Sprintf("%.2f", o.Bid),
			fmt.Sprintf("%.2f", o.Ask),
			fmt.Sprintf("%.2f", o.LastPrice),
			fmt.Sprintf("%d", o.Volume),
			fmt.Sprintf("%d", o.OpenInterest),
			iv,
		)
	}
	table.Render()
}

// formatReasons devuelve "reason=n" ordenado por nombre para salida estable.
func formatReasons(counts map[domain.SkipReason]int) string {
	parts := make([]string, 0, len(counts))
	for reason, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
