package backtest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/stats"
)

// Results is the value an Engine run produces: final statistics and
// portfolio state for every registered strategy, plus the timeline span
// actually covered.
type Results struct {
	Statistics map[string]*stats.AlgorithmStatistics
	StartTime  time.Time
	EndTime    time.Time
	Portfolios map[string]*portfolio.Portfolio

	// RunIDs maps each algorithm ID to the journal run ID its trades and
	// equity snapshots were recorded under, if a Journal was configured.
	RunIDs map[string]string
}

// String renders a human-readable report: the backtest's time span
// followed by every strategy's AlgorithmStatistics report, in a stable
// (sorted by algorithm ID) order.
func (r *Results) String() string {
	var b strings.Builder
	b.WriteString("Backtest Results\n")
	b.WriteString("================\n")
	fmt.Fprintf(&b, "Period: %s to %s\n", r.StartTime, r.EndTime)
	b.WriteString("----------------\n")

	ids := make([]string, 0, len(r.Statistics))
	for id := range r.Statistics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		b.WriteString(r.Statistics[id].String())
		b.WriteString("----------------\n")
	}

	return b.String()
}
