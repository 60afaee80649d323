package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/rustyeddy/advisor/config"
	"github.com/rustyeddy/advisor/journal"
	"github.com/rustyeddy/advisor/logger"
	"github.com/rustyeddy/advisor/session"
	"github.com/rustyeddy/advisor/strategy"
	"github.com/rustyeddy/advisor/terminal/paper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a trading session over a tick file",
	Long: `Run one trading session on the paper terminal, replaying ticks from a CSV
file (time,symbol,bid,ask[,last[,volume]]) or from Dukascopy tick archives
(a single HHh_ticks.bi5 file or a SYMBOL/YYYY/MM/DD day directory).

The session opens, holds and reverses a single position according to the
configured strategy, stops taking entries once the window is finishing and
closes everything at the end of the day. Ctrl-C closes the open position
before exiting.

Example:
  advisor run -f advisor.yaml --ticks eurusd-2024-03-04.csv`,
	RunE: runRun,
}

var (
	runConfigPath string
	runTicksPath  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON); defaults apply when empty")
	runCmd.Flags().StringVarP(&runTicksPath, "ticks", "t", "", "tick CSV, .bi5 file or .bi5 day directory (overrides paper.ticks)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if runTicksPath != "" {
		cfg.Paper.Ticks = runTicksPath
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Log)
	return runSession(ctx, cfg, log, cmd.OutOrStdout())
}

// runSession wires the paper terminal, journal, session and runner from
// cfg and runs the day.
func runSession(ctx context.Context, cfg *config.Config, log *logrus.Logger, out io.Writer) (err error) {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Paper.Ticks == "" {
		return fmt.Errorf("no tick file: set paper.ticks or pass --ticks")
	}

	info, err := cfg.SymbolInfo()
	if err != nil {
		return err
	}
	sc, err := cfg.SessionConfig(version)
	if err != nil {
		return err
	}
	strat, err := strategy.New(cfg.Runner.Strategy, cfg.Runner.Params)
	if err != nil {
		return err
	}
	interval, err := cfg.Runner.ParseInterval()
	if err != nil {
		return err
	}

	feed, err := paper.OpenFeed(cfg.Paper.Ticks, info)
	if err != nil {
		return fmt.Errorf("open ticks: %w", err)
	}
	defer func() { err = multierr.Append(err, feed.Close()) }()

	j, err := journal.Open(cfg.Journal.Type, cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { err = multierr.Append(err, j.Close()) }()

	term := paper.New(cfg.Paper.Balance, info)
	sess, err := session.New(sc, term,
		session.WithLogger(logger.WithComponent(log, "session")),
		session.WithClock(term.Now),
		session.WithJournal(j),
	)
	if err != nil {
		return err
	}

	// Stops hit inside the terminal never pass through the session.
	term.SetCloseListener(func(d paper.Deal) {
		sess.Record(d.Position, d.ClosePrice, d.CloseTime, d.Profit, d.Reason)
	})

	bars := cfg.Runner.Bars
	if b, ok := strat.(interface{ Bars() int }); ok && b.Bars() > bars {
		bars = b.Bars()
	}

	runner := &session.Runner{
		Session:           sess,
		Signal:            strategy.SignalFunc(strat, logger.WithComponent(log, "strategy")),
		Bars:              bars,
		Timeframe:         cfg.Runner.Timeframe,
		Interval:          interval,
		Comment:           cfg.Runner.Comment,
		EmergencyFallback: cfg.Runner.EmergencyFallback,
		Step:              func(context.Context) error { return paper.Pump(feed, term) },
		Log:               logger.WithComponent(log, "runner").WithField("run", sess.RunID()),
	}

	log.WithFields(logrus.Fields{
		"symbol":   sc.Symbol,
		"strategy": strat.Name(),
		"ticks":    cfg.Paper.Ticks,
		"journal":  cfg.Journal.Type,
	}).Info("starting session")

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	st := sess.Statistics()
	fmt.Fprintf(out, "\nRun %s finished\n", sess.RunID())
	fmt.Fprintf(out, "  Deals: %d (%d profit, %d loss)\n", st.TotalDeals, st.ProfitDeals, st.LossDeals)
	fmt.Fprintf(out, "  Gross: %.2f  Fees: %.2f  Net: %.2f\n", st.Balance, st.Fees, st.Net())
	fmt.Fprintf(out, "  Accuracy: %.2f%%\n", st.Accuracy())
	fmt.Fprintf(out, "  Paper balance: %.2f\n", term.Balance())
	if cfg.Journal.Type != journal.KindNone && cfg.Journal.Type != "" {
		fmt.Fprintf(out, "\nDeals saved to: %s\n", cfg.Journal.Path)
	}
	return nil
}
