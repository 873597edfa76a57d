package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohamedkhairy/pineseries/internal/catalog"
	"github.com/mohamedkhairy/pineseries/internal/feed"
	"github.com/mohamedkhairy/pineseries/internal/models"
	"github.com/mohamedkhairy/pineseries/pkg/runtime"
	"github.com/mohamedkhairy/pineseries/pkg/series"
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Run an indicator catalog over a CSV of candles",
	Long: `Compute loads candles from a CSV file, runs every indicator in the
catalog over them and prints the resulting plot columns.

The CSV needs a header with symbol, timestamp, open, high, low and close
columns; a volume column is optional. Timestamps are RFC3339 or unix
milliseconds.

Examples:
  scan compute -i bars.csv
  scan compute -i bars.csv -c catalog.yaml -s AAPL
  scan compute -i bars.csv --format json --last 0`,
	RunE: runCompute,
}

var (
	computeInput   string
	computeCatalog string
	computeSymbol  string
	computeFormat  string
	computeLast    int
)

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVarP(&computeInput, "input", "i", "", "CSV file of candles")
	computeCmd.Flags().StringVarP(&computeCatalog, "catalog", "c", "", "catalog YAML file (default: built-in set)")
	computeCmd.Flags().StringVarP(&computeSymbol, "symbol", "s", "", "symbol to compute (default: first in file)")
	computeCmd.Flags().StringVar(&computeFormat, "format", "table", "output format: table or json")
	computeCmd.Flags().IntVar(&computeLast, "last", 10, "trailing rows to print, 0 for all")
	computeCmd.MarkFlagRequired("input")
}

func runCompute(cmd *cobra.Command, args []string) error {
	candles, err := feed.LoadCSV(computeInput)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles in %s", computeInput)
	}

	symbol := computeSymbol
	if symbol == "" {
		symbol = candles[0].Symbol
	}

	data := series.NewBarData()
	for _, c := range candles {
		if c.Symbol != symbol {
			continue
		}
		data.Append(series.NewBarWithVolume(c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume))
	}
	if data.Len() == 0 {
		return fmt.Errorf("no candles for symbol %q in %s", symbol, computeInput)
	}

	set, err := loadSet(computeCatalog)
	if err != nil {
		return err
	}
	bindings, err := set.Compile()
	if err != nil {
		return fmt.Errorf("compile catalog: %w", err)
	}

	rctx := runtime.New(data)
	for _, b := range bindings {
		if err := b.Apply(rctx); err != nil {
			return err
		}
	}

	decls := rctx.Plots()
	switch computeFormat {
	case "table":
		return printTable(data, decls, computeLast)
	case "json":
		return printJSON(symbol, data, decls, computeLast)
	default:
		return fmt.Errorf("unknown format %q (want table or json)", computeFormat)
	}
}

func printTable(data *series.BarData, decls []runtime.PlotDecl, last int) error {
	bars := data.Bars()
	cols := make([][]float64, len(decls))
	for i, d := range decls {
		cols[i] = d.Series.ToArray()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "time\tclose")
	for _, d := range decls {
		fmt.Fprintf(w, "\t%s", d.ID)
	}
	fmt.Fprintln(w)

	for i := startRow(len(bars), last); i < len(bars); i++ {
		fmt.Fprintf(w, "%s\t%s", bars[i].Time.UTC().Format(time.RFC3339), formatValue(bars[i].Close))
		for _, col := range cols {
			fmt.Fprintf(w, "\t%s", formatValue(col[i]))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

type computeRow struct {
	Time   string                     `json:"time"`
	Close  float64                    `json:"close"`
	Values map[string]models.NullFloat `json:"values"`
}

func printJSON(symbol string, data *series.BarData, decls []runtime.PlotDecl, last int) error {
	bars := data.Bars()
	cols := make([][]float64, len(decls))
	for i, d := range decls {
		cols[i] = d.Series.ToArray()
	}

	rows := make([]computeRow, 0, len(bars))
	for i := startRow(len(bars), last); i < len(bars); i++ {
		values := make(map[string]models.NullFloat, len(decls))
		for j, d := range decls {
			values[d.ID] = models.NullFloat(cols[j][i])
		}
		rows = append(rows, computeRow{
			Time:   bars[i].Time.UTC().Format(time.RFC3339),
			Close:  bars[i].Close,
			Values: values,
		})
	}

	out, err := json.MarshalIndent(map[string]interface{}{
		"symbol": symbol,
		"rows":   rows,
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(out))
	return err
}

func startRow(total, last int) int {
	if last > 0 && total > last {
		return total - last
	}
	return 0
}

// formatValue prints NaN the way chart tooltips do.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "na"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func loadSet(path string) (*catalog.Set, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	set, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return set, nil
}
