package session

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/terminal"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// SignalFunc turns a market snapshot into a trading signal.
type SignalFunc func(market.Snapshot) Signal

// StepFunc advances a simulated feed by one tick. Returning io.EOF ends
// the run.
type StepFunc func(ctx context.Context) error

const (
	DefaultBars         = 100
	defaultCloseTimeout = 30 * time.Second
)

// Runner drives a Session tick by tick until the trading day ends, the
// context is cancelled or a non-transient error occurs. Whatever the
// reason, it closes the open position before returning.
type Runner struct {
	Session *Session
	Signal  SignalFunc

	Bars      int
	Timeframe market.Timeframe
	Interval  time.Duration
	Comment   string

	// EmergencyFallback retries an entry once with the emergency
	// distances when the terminal rejects the regular stops.
	EmergencyFallback bool

	// Step is called before each iteration. Replays use it to publish the
	// next tick to the paper terminal.
	Step StepFunc

	Log logrus.FieldLogger

	lastTick time.Time
}

// Run returns nil when the day ends, the feed runs dry or ctx is
// cancelled and the final close succeeds.
func (r *Runner) Run(ctx context.Context) (err error) {
	if r.Session == nil || r.Signal == nil {
		return errors.New("runner: session and signal are required")
	}
	if r.Log == nil {
		r.Log = r.Session.log
	}
	if r.Bars <= 0 {
		r.Bars = DefaultBars
	}
	if r.Timeframe == 0 {
		r.Timeframe = market.M1
	}

	if _, err := r.Session.PrepareSymbol(ctx); err != nil {
		return err
	}

	reason := "shutdown"
	defer func() {
		if ctx.Err() != nil {
			reason = "interrupted"
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultCloseTimeout)
		defer cancel()
		out, cerr := r.Session.ClosePosition(cctx, reason)
		if cerr != nil {
			r.Log.WithError(cerr).Error("final close failed")
		} else if out.Action == Closed {
			r.Log.WithField("reason", reason).Info("position closed on exit")
			r.Session.LogStatistics()
		}
		err = multierr.Append(err, cerr)
	}()

	for {
		if ctx.Err() != nil {
			r.Log.Info("run interrupted")
			return nil
		}

		if r.Step != nil {
			if serr := r.Step(ctx); serr != nil {
				if errors.Is(serr, io.EOF) {
					reason = "end of data"
					r.Log.Info("feed exhausted")
					return nil
				}
				if ctx.Err() != nil {
					continue
				}
				return serr
			}
		}

		done, ierr := r.iterate(ctx)
		switch {
		case done:
			return nil
		case ierr != nil && ctx.Err() != nil:
			continue
		case ierr != nil:
			if ferr := fatal(ierr); ferr != nil {
				return ferr
			}
			r.Log.WithError(ierr).Warn("transient terminal error, continuing")
		}

		if r.Interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.Interval):
			}
		}
	}
}

// iterate runs one pass of the trading loop. It reports done once the
// position has been closed at the end of the day.
func (r *Runner) iterate(ctx context.Context) (bool, error) {
	s := r.Session

	if s.DaysEnd() {
		if _, err := s.ClosePosition(ctx, "end of day"); err != nil {
			return false, err
		}
		s.LogStatistics()
		return true, nil
	}

	snap, err := market.TakeSnapshot(ctx, s.term, s.cfg.Symbol, r.Bars, r.Timeframe)
	if errors.Is(err, market.ErrNoTick) {
		return false, nil
	}
	if err != nil {
		return false, tradeErr("snapshot", err)
	}
	if !snap.Tick.Time.IsZero() && snap.Tick.Time.Equal(r.lastTick) {
		return false, nil
	}
	r.lastTick = snap.Tick.Time

	var errs error
	sig := r.Signal(snap)
	out, err := s.OpenPosition(ctx, sig, r.Comment)
	if err != nil && r.EmergencyFallback && out.Action == Skipped {
		if code, ok := terminal.RejectCodeOf(err); ok && code == terminal.RejectInvalidStops {
			r.Log.WithError(err).Warn("regular stops rejected, trying emergency stops")
			out, err = s.OpenPositionWith(ctx, sig, r.Comment, Emergency)
		}
	}
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	r.logOutcome("open", out)

	out, err = s.StopAndGain(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	r.logOutcome("stop and gain", out)

	return false, errs
}

func (r *Runner) logOutcome(op string, out Outcome) {
	if out.Action == Skipped {
		r.Log.WithField("op", op).Debug(out.Reason)
		return
	}
	r.Log.WithFields(logrus.Fields{
		"op":     op,
		"action": out.Action.String(),
		"ticket": out.Ticket,
		"reason": out.Reason,
	}).Debug("outcome")
}

// fatal returns the first error in err that is not worth retrying.
func fatal(err error) error {
	for _, e := range multierr.Errors(err) {
		if !terminal.IsTransient(e) {
			return e
		}
	}
	return nil
}
