package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"bribecast/internal/bribes"
	"bribecast/internal/config"
)

// Export renders the stored ledger as CSV and/or a per-round dollars chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	pair, err := config.ParsePair(opts.Pair)
	if err != nil {
		return err
	}

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = a.Config.Export.MaxRounds
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	epochs, err := store.ListEpochs(ctx, pair.Platform.String(), pair.Protocol.String())
	if err != nil {
		return err
	}
	if len(epochs) == 0 {
		a.Logger.Info().Msg("no epochs found for export")
		return nil
	}
	if len(epochs) > maxRounds {
		epochs = epochs[len(epochs)-maxRounds:]
	}

	a.Logger.Info().Int("rounds", len(epochs)).Msg("exporting ledger")

	if opts.CSVPath != "" {
		if err := writeEpochsCSV(opts.CSVPath, epochs); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeEpochsPNG(opts.PNGPath, epochs); err != nil {
			return err
		}
	}

	return nil
}

func writeEpochsCSV(path string, epochs []bribes.PersistedEpoch) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"round", "end_ts", "proposal", "bribe_count", "pool_count", "total_dollars"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, epoch := range epochs {
		record := []string{
			strconv.Itoa(epoch.Round),
			time.Unix(epoch.End, 0).UTC().Format(time.RFC3339),
			epoch.Proposal,
			strconv.Itoa(len(epoch.Bribes)),
			strconv.Itoa(len(epoch.Bribed)),
			totalDollars(epoch).StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeEpochsPNG(path string, epochs []bribes.PersistedEpoch) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	rounds := make([]float64, len(epochs))
	dollars := make([]float64, len(epochs))
	for i, epoch := range epochs {
		rounds[i] = float64(epoch.Round)
		dollars[i] = totalDollars(epoch).InexactFloat64()
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Name: "Round",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		YAxis: chart.YAxis{
			Name: "Bribes (USD)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Total bribe dollars",
				XValues: rounds,
				YValues: dollars,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
