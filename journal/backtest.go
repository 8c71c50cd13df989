package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

// BacktestRun mirrors the backtest_runs table: one row per completed
// engine.Run, enough to list and compare past runs without replaying them.
type BacktestRun struct {
	RunID       string
	Created     time.Time
	AlgorithmID string
	Tickers     []string
	Start       time.Time
	End         time.Time

	InitialValue float64
	FinalValue   float64
	TotalTrades  int
	MaxDrawdown  float64
	SharpeRatio  float64

	Notes       []string
	NextActions []string

	OrgPath string
}

func (r *BacktestRun) netPL() float64 {
	return r.FinalValue - r.InitialValue
}

func (r *BacktestRun) returnPct() float64 {
	if r.InitialValue == 0 {
		return 0
	}
	return r.netPL() / r.InitialValue * 100
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// WriteBacktestOrg renders this run as an Org-mode block and writes it
// to OrgPath, for pasting into a trading journal or research notebook.
func (r *BacktestRun) WriteBacktestOrg() error {
	t, err := template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate)
	if err != nil {
		return err
	}

	data := struct {
		*BacktestRun
		NetPL     float64
		ReturnPct float64
		Tickers   string
	}{
		BacktestRun: r,
		NetPL:       r.netPL(),
		ReturnPct:   r.returnPct(),
		Tickers:     strings.Join(r.Tickers, ", "),
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return err
	}
	return os.WriteFile(r.OrgPath, buf.Bytes(), 0644)
}

const BacktestOrgTemplate = `
* BACKTEST: {{.AlgorithmID}} [{{.Tickers}}]
:PROPERTIES:
:RUN_ID:       {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:ALGORITHM:    {{.AlgorithmID}}
:TICKERS:      {{.Tickers}}
:START_DATE:   {{.Start.Format "2006-01-02 15:04"}}
:END_DATE:     {{.End.Format "2006-01-02 15:04"}}
:INITIAL_VAL:  {{printf "%.2f" .InitialValue}}
:FINAL_VAL:    {{printf "%.2f" .FinalValue}}
:NET_PL:       {{printf "%.2f" .NetPL}}
:RETURN_PCT:   {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:   {{printf "%.2f" (mul100 .MaxDrawdown)}}
:SHARPE:       {{printf "%.3f" .SharpeRatio}}
:TRADES:       {{.TotalTrades}}
:CREATED:      [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:        *{{printf "%.2f" .NetPL}}*
- Return:         *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:   *{{printf "%.2f" (mul100 .MaxDrawdown)}}%*
- Sharpe Ratio:   *{{printf "%.3f" .SharpeRatio}}*
- Total Trades:   {{.TotalTrades}}

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}
** Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`

// String renders a compact one-line summary, used for CLI run listings.
func (r *BacktestRun) String() string {
	return fmt.Sprintf("%s  %-20s  net %+.2f (%.2f%%)  trades=%d  sharpe=%.3f",
		r.RunID, r.AlgorithmID, r.netPL(), r.returnPct(), r.TotalTrades, r.SharpeRatio)
}
