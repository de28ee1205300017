package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/goldencross/internal/app"
	"github.com/newthinker/goldencross/internal/config"
)

const (
	dateLayout    = "2006-01-02"
	defaultSymbol = "AAPL"
	// defaultLookback gives the 200-day window several years to cross
	defaultLookback = 5
)

var (
	backtestSymbols  []string
	backtestFrom     string
	backtestTo       string
	backtestBudget   float64
	backtestShort    int
	backtestLong     int
	backtestProvider string
	backtestFormat   string
	backtestOutput   string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the moving average crossover",
	Long: `Fetch daily closes for each symbol, simulate the crossover strategy and
write a timestamped trade_results file per run. Symbol and dates that are
not given as flags are prompted for.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBacktest,
}

func init() {
	defaults := config.Defaults()

	backtestCmd.Flags().StringSliceVarP(&backtestSymbols, "symbol", "s", nil, "Symbol(s) to backtest, comma separated")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD")
	backtestCmd.Flags().Float64Var(&backtestBudget, "budget", defaults.Backtest.Budget, "Initial cash budget")
	backtestCmd.Flags().IntVar(&backtestShort, "short", defaults.Backtest.ShortWindow, "Short moving average window")
	backtestCmd.Flags().IntVar(&backtestLong, "long", defaults.Backtest.LongWindow, "Long moving average window")
	backtestCmd.Flags().StringVar(&backtestProvider, "provider", defaults.Collector.Provider, "Market data provider (yahoo, polygon, binance, csv)")
	backtestCmd.Flags().StringVar(&backtestFormat, "format", defaults.Output.Format, "Result file format (text, json, yaml)")
	backtestCmd.Flags().StringVarP(&backtestOutput, "output", "o", defaults.Output.Path, "Result directory (or key prefix for s3)")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	req, err := buildRequest(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== goldencross backtest ===")
	fmt.Fprintf(out, "Symbols:  %s\n", strings.Join(req.Symbols, ", "))
	fmt.Fprintf(out, "Period:   %s to %s\n", req.Start.Format(dateLayout), req.End.Format(dateLayout))
	fmt.Fprintf(out, "Windows:  %d/%d\n", req.Params.ShortWindow, req.Params.LongWindow)
	fmt.Fprintf(out, "Budget:   %.2f\n", req.Params.InitialBudget)
	fmt.Fprintln(out)

	a := app.New(cfg, log, app.WithOutput(out))
	if _, err := a.Run(ctx, req); err != nil {
		log.Debug("backtest finished with errors", zap.Error(err))
		return err
	}
	return nil
}

// applyBacktestFlags lets explicit flags win over config file values
func applyBacktestFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("budget") {
		cfg.Backtest.Budget = backtestBudget
	}
	if flags.Changed("short") {
		cfg.Backtest.ShortWindow = backtestShort
	}
	if flags.Changed("long") {
		cfg.Backtest.LongWindow = backtestLong
	}
	if flags.Changed("provider") {
		cfg.Collector.Provider = backtestProvider
	}
	if flags.Changed("format") {
		cfg.Output.Format = backtestFormat
	}
	if flags.Changed("output") {
		if cfg.Output.Type == "s3" {
			cfg.Output.S3.Prefix = backtestOutput
		} else {
			cfg.Output.Path = backtestOutput
		}
	}
}

// buildRequest fills the run request from flags, prompting for whatever
// is missing
func buildRequest(cmd *cobra.Command, cfg *config.Config) (app.Request, error) {
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	symbols := normalizeSymbols(backtestSymbols)
	if len(symbols) == 0 {
		answer, err := p.ask("Enter the stock symbol (e.g. AAPL or MSFT)", defaultSymbol)
		if err != nil {
			return app.Request{}, err
		}
		symbols = normalizeSymbols(strings.Split(answer, ","))
		if len(symbols) == 0 {
			symbols = []string{defaultSymbol}
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	to := backtestTo
	if to == "" {
		answer, err := p.ask("Enter the end date (YYYY-MM-DD)", today.Format(dateLayout))
		if err != nil {
			return app.Request{}, err
		}
		to = answer
	}
	end, err := parseDate("end", to)
	if err != nil {
		return app.Request{}, err
	}

	from := backtestFrom
	if from == "" {
		answer, err := p.ask("Enter the start date (YYYY-MM-DD)", end.AddDate(-defaultLookback, 0, 0).Format(dateLayout))
		if err != nil {
			return app.Request{}, err
		}
		from = answer
	}
	start, err := parseDate("start", from)
	if err != nil {
		return app.Request{}, err
	}

	if end.Before(start) {
		return app.Request{}, fmt.Errorf("end date must be after start date")
	}

	return app.Request{
		Symbols: symbols,
		Start:   start,
		End:     end,
		Params:  cfg.Params(),
	}, nil
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date format (expected YYYY-MM-DD): %w", name, err)
	}
	return t, nil
}

// normalizeSymbols trims and upper-cases symbols, dropping blanks and repeats
func normalizeSymbols(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var symbols []string
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	return symbols
}
