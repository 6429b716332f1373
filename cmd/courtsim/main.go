package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/derekprior/courtsim/internal/config"
	"github.com/derekprior/courtsim/internal/driver"
	"github.com/derekprior/courtsim/internal/excel"
	"github.com/derekprior/courtsim/internal/report"
	"github.com/derekprior/courtsim/internal/roster"
	"github.com/derekprior/courtsim/internal/schedule"
	"github.com/derekprior/courtsim/internal/strategy"
	"github.com/derekprior/courtsim/internal/validator"
)

const defaultConfigFile = "courtsim.yaml"

// resolveConfigPath returns "" when no config is given and none exists in
// the current directory; callers then fall back to the default facility.
func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		if _, err := os.Stat(configFlag); err != nil {
			return "", fmt.Errorf("config file %s: %w", configFlag, err)
		}
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", nil
}

func loadConfig(configFlag string) (*config.Config, error) {
	path, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, err
	}
	if path == "" {
		fmt.Printf("No %s found; using the default facility\n", defaultConfigFile)
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

type simFlags struct {
	configFile string
	logLevel   string
	strict     bool
	minutes    int
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "courtsim",
		Short: "Multi-court open play rotation simulator",
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter courtsim.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	simCmd := &cobra.Command{
		Use:   "sim",
		Short: "Run, sweep, serve and validate simulations",
	}

	var flags simFlags
	simCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to config file, YAML or TOML (default: courtsim.yaml in current directory)")
	simCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	simCmd.PersistentFlags().BoolVar(&flags.strict, "strict", false, "Check scheduling invariants after every minute")
	simCmd.PersistentFlags().IntVar(&flags.minutes, "minutes", 0, "Override the configured run length")

	var outputFile string
	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Simulate one session and write a report",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(cmd.Context(), flags, outputFile)
		},
	}
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "report.xlsx", "Output Excel file path")

	var sweep driver.SweepOptions
	var sweepOutput string
	sweepCmd := &cobra.Command{
		Use:          "sweep",
		Short:        "Simulate a range of player counts",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), flags, sweep, sweepOutput)
		},
	}
	sweepCmd.Flags().IntVar(&sweep.From, "from", 20, "Smallest player count")
	sweepCmd.Flags().IntVar(&sweep.To, "to", 60, "Largest player count")
	sweepCmd.Flags().IntVar(&sweep.Step, "step", 2, "Player count increment")
	sweepCmd.Flags().IntVar(&sweep.Parallel, "parallel", 4, "Simulations to run at once")
	sweepCmd.Flags().StringVarP(&sweepOutput, "output", "o", "", "Optional Excel file for the sweep table")

	var serve serveFlags
	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run a paced session and stream it over a websocket",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags, serve)
		},
	}
	serveCmd.Flags().StringVar(&serve.addr, "addr", "localhost:8080", "Listen address")
	serveCmd.Flags().DurationVar(&serve.interval, "interval", time.Second, "Wall-clock time per simulated minute")

	validateCmd := &cobra.Command{
		Use:          "validate <report.xlsx>",
		Short:        "Check a run report for scheduling errors",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}

	simCmd.AddCommand(runCmd, sweepCmd, serveCmd, validateCmd)
	rootCmd.AddCommand(initCmd, simCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Open Play Court Configuration
# =============================
# This file describes the facility and how long to simulate it.

facility:
  # Number of courts. Courts are numbered from 1.
  courts: 6

  # Player pool. Give either a total with a female ratio, explicit counts,
  # or a named roster. A roster wins over counts, counts win over the ratio.
  # When counts are given, players must be their sum or left out.
  players: 38
  female_ratio: 0.5
  # men: 19
  # women: 19
  #
  # roster:
  #   - name: Ann
  #     gender: F
  #   - name: Carl
  #     gender: M

  # Minutes per match: "standard" (17.5), "short" (11) or any positive number.
  match_duration: standard

  # Matches kept waiting for a court.
  pending_target: 3

run:
  # Simulated minutes.
  minutes: 360

# Strategy scores candidate groups.
# "wait_weighted" favors long waits and penalizes games already played.
# "wait_weighted_history" also penalizes repeat partners and opponents.
strategy: wait_weighted
`

func newSession(cfg *config.Config, flags simFlags, log zerolog.Logger) (*schedule.Session, error) {
	scorer, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return schedule.New(cfg.Facility, scorer, schedule.Options{
		Logger:          log,
		CheckInvariants: flags.strict,
	})
}

func runMinutes(cfg *config.Config, flags simFlags) int {
	if flags.minutes > 0 {
		return flags.minutes
	}
	return cfg.Run.Minutes
}

func runSim(ctx context.Context, flags simFlags, outputPath string) error {
	log, err := newLogger(flags.logLevel)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags.configFile)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, flags, log)
	if err != nil {
		return err
	}

	minutes := runMinutes(cfg, flags)
	men, women := cfg.Facility.Headcount()
	fmt.Printf("Simulating %d minutes on %d courts with %d men and %d women...\n",
		minutes, cfg.Facility.Courts, men, women)

	if err := driver.Run(ctx, s, minutes, nil); err != nil {
		if errors.Is(err, schedule.ErrInvariant) {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", err)
		}
		return fmt.Errorf("simulation stopped at minute %d: %w", s.Now(), err)
	}

	res := report.Build(s)
	fmt.Printf("✓ %d matches placed", len(res.Matches))
	for _, typ := range schedule.MatchTypes {
		fmt.Printf(", %d %s", res.TypeCounts[typ], typ.Label())
	}
	fmt.Println()

	fmt.Println("\nPer Player Metrics:")
	fmt.Printf("  %-12s %6s %5s %7s %6s %8s %8s\n", "Player", "Games", "Mens", "Womens", "Mixed", "AvgWait", "MaxWait")
	for _, g := range []roster.Gender{roster.Male, roster.Female} {
		for _, p := range res.PlayersByGender(g) {
			fmt.Printf("  %-12s %6d %5d %7d %6d %8.1f %8.0f\n",
				p.ID, p.Games, p.Mens, p.Womens, p.Mixed, p.AvgWait, p.MaxWait)
		}
	}

	fmt.Println("\nCourt Utilization:")
	for _, c := range res.Courts {
		fmt.Printf("  Court %-3d %4d matches %6.1f%%\n", c.ID, c.Matches, c.Utilization*100)
	}

	fmt.Printf("\nGames per player: min %.0f, max %.0f, mean %.2f\n", res.Games.Min, res.Games.Max, res.Games.Mean)
	fmt.Printf("Wait at placement: mean %.1f, p90 %.1f, max %.0f minutes\n", res.Waits.Mean, res.Waits.P90, res.Waits.Max)

	if len(res.Warnings) > 0 {
		fmt.Printf("\nFairness warnings (%d):\n", len(res.Warnings))
		for _, w := range res.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No fairness warnings")
	}

	f, err := excel.Generate(cfg, res)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Report saved to %s\n", outputPath)
	return nil
}

func runSweep(ctx context.Context, flags simFlags, opts driver.SweepOptions, outputPath string) error {
	log, err := newLogger(flags.logLevel)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags.configFile)
	if err != nil {
		return err
	}
	cfg.Run.Minutes = runMinutes(cfg, flags)
	opts.Logger = log

	fmt.Printf("Sweeping %d..%d players (step %d) over %d minutes on %d courts...\n",
		opts.From, opts.To, opts.Step, cfg.Run.Minutes, cfg.Facility.Courts)
	rows, err := driver.Sweep(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	fmt.Printf("\n  %7s %4s %5s %7s %5s %5s %6s %8s %8s\n",
		"Players", "Men", "Women", "Matches", "Min", "Max", "Avg", "AvgWait", "MaxWait")
	for _, r := range rows {
		fmt.Printf("  %7d %4d %5d %7d %5d %5d %6.2f %8.1f %8.0f\n",
			r.Players, r.Men, r.Women, r.Matches, r.MinGames, r.MaxGames, r.AvgGames, r.AvgWait, r.MaxWait)
	}

	if outputPath == "" {
		return nil
	}
	f, err := excel.GenerateSweep(rows)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Sweep saved to %s\n", outputPath)
	return nil
}

func runValidate(reportPath string) error {
	violations, err := validator.Validate(reportPath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ %s row %d: %s\n", v.Sheet, v.Row, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ %s row %d: %s\n", v.Sheet, v.Row, v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d errors, %d warnings\n", errors, warnings)
	if errors > 0 {
		return fmt.Errorf("%d scheduling errors found", errors)
	}
	return nil
}
