// internal/report/console.go
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/rovshanmuradov/solana-arb-bot/internal/scanner"
)

// Console renders each cycle's opportunity set as a table on stdout.
// It implements scanner.Sink.
type Console struct {
	out io.Writer
}

// NewConsole creates a console renderer writing to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a console renderer for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PublishCycle prints the cycle result.
func (c *Console) PublishCycle(_ context.Context, opportunities []scanner.Opportunity) error {
	now := time.Now().Format("15:04:05")
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", now)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d opportunities\n", now, len(opportunities))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Pair", "Direction", "Capital", "Net Profit", "Profit %", "Buy", "Sell", "Found At")

	for i, opp := range opportunities {
		table.Append(
			fmt.Sprintf("%d", i+1),
			opp.Pair,
			string(opp.Direction),
			opp.Capital,
			opp.NetProfitHuman(),
			fmt.Sprintf("%.4f%%", opp.ProfitPercent),
			opp.BuyVenue,
			opp.SellVenue,
			opp.DiscoveredAt.Format(timestampLayout),
		)
	}

	table.Render()
	return nil
}
