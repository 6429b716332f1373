package driver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/courtsim/internal/config"
	"github.com/derekprior/courtsim/internal/report"
	"github.com/derekprior/courtsim/internal/schedule"
	"github.com/derekprior/courtsim/internal/strategy"
)

// SweepOptions describes a range of player counts to simulate.
type SweepOptions struct {
	From, To, Step int
	// Parallel bounds concurrent runs. Zero means one.
	Parallel int
	Logger   zerolog.Logger
}

// Sweep runs one headless simulation per player count in [From, To] with
// the configured facility, splitting each count by the facility's female
// ratio. Rows come back in player-count order.
func Sweep(ctx context.Context, cfg *config.Config, opts SweepOptions) ([]report.SweepRow, error) {
	if opts.Step <= 0 {
		return nil, fmt.Errorf("%w: sweep step must be positive, got %d", config.ErrInvalid, opts.Step)
	}
	if opts.From > opts.To {
		return nil, fmt.Errorf("%w: sweep range %d..%d is empty", config.ErrInvalid, opts.From, opts.To)
	}

	var counts []int
	for n := opts.From; n <= opts.To; n += opts.Step {
		counts = append(counts, n)
	}
	rows := make([]report.SweepRow, len(counts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallel, 1))
	for i, n := range counts {
		g.Go(func() error {
			row, err := sweepOne(ctx, cfg, n)
			if err != nil {
				return fmt.Errorf("%d players: %w", n, err)
			}
			opts.Logger.Debug().Int("players", n).Int("matches", row.Matches).Msg("sweep run finished")
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func sweepOne(ctx context.Context, cfg *config.Config, players int) (report.SweepRow, error) {
	f := cfg.Facility
	f.Players = players
	f.Men, f.Women, f.Roster = nil, nil, nil

	scorer, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return report.SweepRow{}, err
	}
	s, err := schedule.New(f, scorer, schedule.Options{})
	if err != nil {
		return report.SweepRow{}, err
	}
	if err := Run(ctx, s, cfg.Run.Minutes, nil); err != nil {
		return report.SweepRow{}, err
	}
	return report.SweepRowFor(report.Build(s)), nil
}
