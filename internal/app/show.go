package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"bribecast/internal/bribes"
	"bribecast/internal/config"
)

// Show prints the stored rounds for a pair, most recent last, and marks the
// latest finished one.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	pair, err := config.ParsePair(opts.Pair)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show epochs")
	}
	if closeStore != nil {
		defer closeStore()
	}

	epochs, err := store.ListEpochs(ctx, pair.Platform.String(), pair.Protocol.String())
	if err != nil {
		return err
	}
	if len(epochs) == 0 {
		fmt.Fprintln(os.Stdout, "no epochs found")
		return nil
	}

	if opts.Limit > 0 && len(epochs) > opts.Limit {
		epochs = epochs[len(epochs)-opts.Limit:]
	}

	now := nowUnix()
	latestFinished := -1
	for i, epoch := range epochs {
		if epoch.Finished(now) {
			latestFinished = i
		}
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Round\tEnd (UTC)\tProposal\tBribes\tPools\tTotal $\t")

	for i, epoch := range epochs {
		marker := ""
		if i == latestFinished {
			marker = "latest finished"
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			epoch.Round,
			time.Unix(epoch.End, 0).UTC().Format(time.RFC3339),
			epoch.Proposal,
			len(epoch.Bribes),
			len(epoch.Bribed),
			totalDollars(epoch).StringFixed(2),
			marker,
		)
	}

	writer.Flush()
	return nil
}

func totalDollars(epoch bribes.PersistedEpoch) decimal.Decimal {
	total := decimal.Zero
	for _, bribe := range epoch.Bribes {
		total = total.Add(bribe.AmountDollars)
	}
	return total
}
