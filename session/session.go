// Package session runs one expert advisor on one symbol for one trading
// day: it opens, holds, reverses and closes a single position through a
// terminal, within a daily time window.
//
// A Session keeps no position state of its own. Every operation starts by
// asking the terminal what is open for the symbol and magic number, so a
// position closed by a stop on the server is never mistaken for one still
// held.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/advisor/journal"
	"github.com/rustyeddy/advisor/ledger"
	"github.com/rustyeddy/advisor/logger"
	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/pkg/id"
	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/terminal"
	"github.com/rustyeddy/advisor/window"
	"github.com/sirupsen/logrus"
)

// Session is not safe for concurrent use.
type Session struct {
	cfg     Config
	term    terminal.Terminal
	ledger  *ledger.Ledger
	journal journal.Journal
	log     logrus.FieldLogger
	now     func() time.Time
	runID   string

	info     market.SymbolInfo
	prepared bool
	stats    Stats
}

type Option func(*Session)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces time.Now for window checks. Replays pass the feed's
// clock so the window follows market time.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithJournal(j journal.Journal) Option {
	return func(s *Session) { s.journal = j }
}

// WithRunID tags journal records. A fresh ULID is used otherwise.
func WithRunID(runID string) Option {
	return func(s *Session) { s.runID = runID }
}

func New(cfg Config, term terminal.Terminal, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if term == nil {
		return nil, errors.New("session: nil terminal")
	}
	s := &Session{
		cfg:     cfg,
		term:    term,
		ledger:  ledger.New(term, cfg.Symbol, cfg.Magic),
		journal: journal.Discard{},
		log:     logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = id.New()
	}
	s.log = s.log.WithFields(logrus.Fields{
		"symbol": cfg.Symbol,
		"magic":  cfg.Magic,
	})
	return s, nil
}

func (s *Session) Config() Config         { return s.cfg }
func (s *Session) RunID() string          { return s.runID }
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// Symbol returns the metadata cached by PrepareSymbol.
func (s *Session) Symbol() (market.SymbolInfo, bool) { return s.info, s.prepared }

// PrepareSymbol selects the symbol in the terminal and caches its
// metadata. Calling it again returns the cached metadata.
func (s *Session) PrepareSymbol(ctx context.Context) (market.SymbolInfo, error) {
	if s.prepared {
		return s.info, nil
	}

	info, err := s.term.SelectSymbol(ctx, s.cfg.Symbol)
	if err != nil {
		return market.SymbolInfo{}, tradeErr("prepare", err)
	}
	if err := risk.CheckVolume(s.cfg.Lot, info.MinLot, info.MaxLot, info.LotStep); err != nil {
		return market.SymbolInfo{}, fmt.Errorf("%w: lot %v for %s: %w", ErrInvalidConfig, s.cfg.Lot, info.Name, err)
	}

	s.info = info
	s.prepared = true
	s.logSummary()
	s.warnTradeMode()
	s.warnDistances(Regular)
	s.warnDistances(Emergency)
	if e, r := s.cfg.Emergency, s.cfg.Regular; e.StopLoss < r.StopLoss || e.TakeProfit < r.TakeProfit {
		s.log.Warn("emergency distances are tighter than the regular ones")
	}
	return info, nil
}

func (s *Session) logSummary() {
	s.log.WithFields(logrus.Fields{
		"expert":     s.cfg.ExpertName,
		"version":    s.cfg.Version,
		"run":        s.runID,
		"lot":        s.cfg.Lot,
		"sl":         s.cfg.Regular.StopLoss,
		"tp":         s.cfg.Regular.TakeProfit,
		"window":     fmt.Sprintf("%s-%s-%s", s.cfg.Window.Start, s.cfg.Window.Finishing, s.cfg.Window.Ending),
		"point":      s.info.Point,
		"tick_size":  s.info.TickSize,
		"tick_value": s.info.TickValue,
		"steps":      s.info.Steps(),
		"stops":      s.info.StopsLevel,
		"trade_mode": s.info.TradeMode.String(),
	}).Info("symbol prepared")
}

func (s *Session) warnTradeMode() {
	switch s.info.TradeMode {
	case market.TradeDisabled:
		s.log.Warn("trading is disabled for the symbol")
	case market.TradeCloseOnly:
		s.log.Warn("only closing positions is allowed for the symbol")
	case market.TradeLongOnly:
		s.log.Warn("only buy positions are allowed for the symbol")
	case market.TradeShortOnly:
		s.log.Warn("only sell positions are allowed for the symbol")
	}
}

// warnDistances flags distances the broker would refuse: tighter than the
// stops level, or not a multiple of the tick size in points.
func (s *Session) warnDistances(p Profile) {
	d := s.cfg.Distances(p)
	steps := s.info.Steps()
	for name, v := range map[string]float64{"stop loss": d.StopLoss, "take profit": d.TakeProfit} {
		if v == 0 {
			continue
		}
		if s.info.StopsLevel > 0 && v < float64(s.info.StopsLevel) {
			s.log.Warnf("%s %s of %v points is inside the stops level %d", p, name, v, s.info.StopsLevel)
		}
		if steps > 1 && risk.Points(v, steps) != float64(int64(risk.Points(v, steps))) {
			s.log.Warnf("%s %s of %v points is not a multiple of %v", p, name, v, steps)
		}
	}
}

// State classifies the session clock against the trading window.
func (s *Session) State() window.State {
	return s.cfg.Window.ClassifyTime(s.now(), s.cfg.location())
}

// TradingTime reports whether new positions may be opened now.
func (s *Session) TradingTime() bool { return s.State() == window.Trading }

// DaysEnd reports whether the window has ended for the day.
func (s *Session) DaysEnd() bool { return s.State() == window.EndOfDay }

// Exposure is the position currently held, read from the terminal.
func (s *Session) Exposure(ctx context.Context) (ledger.Exposure, error) {
	exp, err := s.ledger.Current(ctx)
	return exp, tradeErr("exposure", err)
}

// OpenPosition acts on a strategy signal with the regular distances.
func (s *Session) OpenPosition(ctx context.Context, sig Signal, comment string) (Outcome, error) {
	return s.OpenPositionWith(ctx, sig, comment, Regular)
}

// OpenPositionWith acts on a strategy signal: it opens a position when
// flat, holds one already on the signalled side and reverses one on the
// other side. Nothing is sent outside the Trading state.
func (s *Session) OpenPositionWith(ctx context.Context, sig Signal, comment string, p Profile) (Outcome, error) {
	if !s.prepared {
		return Outcome{}, ErrNotPrepared
	}
	if st := s.State(); st != window.Trading {
		return skip(fmt.Sprintf("%s (%s)", ReasonOutsideWindow, st)), nil
	}
	if sig.Ambiguous() {
		s.log.Warn("buy and sell signalled together, ignoring")
		return skip(ReasonAmbiguous), nil
	}
	dir, ok := sig.Direction()
	if !ok {
		return skip(ReasonNoSignal), nil
	}
	if reason := s.entryBlocked(dir); reason != "" {
		s.log.Warnf("%s signal not traded: %s", dir, reason)
		return skip(reason), nil
	}

	exp, err := s.ledger.Current(ctx)
	if err != nil {
		return Outcome{}, tradeErr("open", err)
	}
	held, ok := exp.Direction()
	switch {
	case !ok:
		return s.open(ctx, dir, comment, p)
	case held == dir:
		return Outcome{Action: Held, Reason: "already " + exp.Kind.String(), Ticket: exp.Position.Ticket}, nil
	}

	closed, err := s.closeExposure(ctx, exp, "reversal")
	if err != nil {
		return Outcome{}, err
	}
	closed.Action = Closed

	if st := s.State(); st != window.Trading {
		closed.Reason = fmt.Sprintf("reversal stopped: %s (%s)", ReasonOutsideWindow, st)
		return closed, nil
	}
	after, err := s.ledger.Current(ctx)
	if err != nil {
		closed.Reason = "reversal stopped: position check failed"
		return closed, tradeErr("open", err)
	}
	if !after.IsFlat() {
		closed.Reason = "reversal stopped: position still open"
		return closed, tradeErr("open", fmt.Errorf("%w: %s", ErrInconsistent, after))
	}

	opened, err := s.open(ctx, dir, comment, p)
	if err != nil {
		closed.Reason = "reversal stopped: open failed"
		return closed, err
	}
	opened.Action = Reversed
	opened.Profit = closed.Profit
	return opened, nil
}

// entryBlocked returns why the symbol's trade mode forbids an entry on
// dir, or "" if it is allowed.
func (s *Session) entryBlocked(dir risk.Direction) string {
	switch s.info.TradeMode {
	case market.TradeDisabled, market.TradeCloseOnly:
		return fmt.Sprintf("%s: %s", ReasonTradeMode, s.info.TradeMode)
	case market.TradeLongOnly:
		if dir == risk.Short {
			return fmt.Sprintf("%s: %s", ReasonTradeMode, s.info.TradeMode)
		}
	case market.TradeShortOnly:
		if dir == risk.Long {
			return fmt.Sprintf("%s: %s", ReasonTradeMode, s.info.TradeMode)
		}
	}
	return ""
}

func (s *Session) open(ctx context.Context, dir risk.Direction, comment string, p Profile) (Outcome, error) {
	tick, err := s.term.CurrentTick(ctx, s.cfg.Symbol)
	if err != nil {
		return Outcome{}, tradeErr("open", err)
	}
	price := tick.Ask
	if dir == risk.Short {
		price = tick.Bid
	}

	levels := risk.Compute(dir, price, s.info.Point, s.cfg.Distances(p))
	req := terminal.OrderRequest{
		Symbol:     s.cfg.Symbol,
		Side:       dir,
		Volume:     s.cfg.Lot,
		Price:      price,
		StopLoss:   risk.Normalize(levels.StopLoss, s.info.TickSize, s.info.Digits),
		TakeProfit: risk.Normalize(levels.TakeProfit, s.info.TickSize, s.info.Digits),
		Deviation:  s.cfg.Deviation,
		Magic:      s.cfg.Magic,
		Comment:    comment,
	}

	res, err := s.term.PlaceOrder(ctx, req)
	if err != nil {
		s.log.WithError(err).WithField("profile", p.String()).Warnf("%s order failed", dir)
		return Outcome{}, tradeErr("open", err)
	}

	s.log.WithFields(logrus.Fields{
		"ticket":  res.Ticket,
		"price":   res.Price,
		"sl":      req.StopLoss,
		"tp":      req.TakeProfit,
		"lot":     req.Volume,
		"profile": p.String(),
	}).Infof("%s position opened", dir)

	return Outcome{Action: Opened, Ticket: res.Ticket, Price: res.Price}, nil
}

// ClosePosition closes the open position for the symbol and magic number.
// It does nothing when flat.
func (s *Session) ClosePosition(ctx context.Context, reason string) (Outcome, error) {
	if !s.prepared {
		return Outcome{}, ErrNotPrepared
	}
	exp, err := s.ledger.Current(ctx)
	if err != nil {
		return Outcome{}, tradeErr("close", err)
	}
	if exp.IsFlat() {
		return skip(ReasonFlat), nil
	}
	if s.info.TradeMode == market.TradeDisabled {
		err := terminal.Reject(terminal.RejectTradeDisabled, "cannot close %s", exp.Position.Ticket)
		s.log.WithError(err).Warn("close refused")
		return skip(fmt.Sprintf("%s: %s", ReasonTradeMode, s.info.TradeMode)), tradeErr("close", err)
	}
	return s.closeExposure(ctx, exp, reason)
}

// StopAndGain closes the open position once its profit reaches the take
// profit or its loss reaches the stop loss, both in points, measured at
// the price the position would close at.
func (s *Session) StopAndGain(ctx context.Context) (Outcome, error) {
	if !s.prepared {
		return Outcome{}, ErrNotPrepared
	}
	exp, err := s.ledger.Current(ctx)
	if err != nil {
		return Outcome{}, tradeErr("stop and gain", err)
	}
	dir, ok := exp.Direction()
	if !ok {
		return skip(ReasonFlat), nil
	}
	tick, err := s.term.CurrentTick(ctx, s.cfg.Symbol)
	if err != nil {
		return Outcome{}, tradeErr("stop and gain", err)
	}

	var pts float64
	if dir == risk.Long {
		pts = risk.Points(tick.Bid-exp.Position.OpenPrice, s.info.Point)
	} else {
		pts = risk.Points(exp.Position.OpenPrice-tick.Ask, s.info.Point)
	}

	d := s.cfg.Regular
	switch {
	case d.TakeProfit > 0 && pts >= d.TakeProfit:
		return s.closeExposure(ctx, exp, "take profit")
	case d.StopLoss > 0 && pts <= -d.StopLoss:
		return s.closeExposure(ctx, exp, "stop loss")
	}
	return skip(ReasonWithinRange), nil
}

func (s *Session) closeExposure(ctx context.Context, exp ledger.Exposure, reason string) (Outcome, error) {
	pos := exp.Position
	res, err := s.term.ClosePosition(ctx, pos, reason)
	if err != nil {
		s.log.WithError(err).WithField("ticket", pos.Ticket).Warn("close failed")
		return Outcome{}, tradeErr("close", err)
	}

	s.Record(pos, res.Price, res.Time, res.Profit, reason)
	s.log.WithFields(logrus.Fields{
		"ticket": pos.Ticket,
		"price":  res.Price,
		"profit": res.Profit,
		"reason": reason,
	}).Infof("%s position closed", pos.Side)

	return Outcome{Action: Closed, Reason: reason, Ticket: pos.Ticket, Price: res.Price, Profit: res.Profit}, nil
}

// Record adds a closed deal to the statistics and the journal. The
// session calls it for its own closes; callers use it for positions the
// terminal closed on a stop-loss or take-profit.
func (s *Session) Record(pos terminal.Position, closePrice float64, closeTime time.Time, profit float64, reason string) {
	s.stats.record(profit, s.cfg.Fee)

	rec := journal.DealRecord{
		DealID:     id.At(closeTime),
		RunID:      s.runID,
		Ticket:     pos.Ticket,
		Symbol:     pos.Symbol,
		Magic:      pos.Magic,
		Side:       pos.Side.String(),
		Volume:     pos.Volume,
		OpenPrice:  pos.OpenPrice,
		ClosePrice: closePrice,
		OpenTime:   pos.OpenTime,
		CloseTime:  closeTime,
		Profit:     profit,
		Fee:        s.cfg.Fee,
		Reason:     reason,
	}
	if closeTime.IsZero() {
		rec.DealID = id.New()
	}
	if err := s.journal.RecordDeal(rec); err != nil {
		s.log.WithError(err).WithField("ticket", pos.Ticket).Error("journal write failed")
	}
}

// Statistics returns the totals for deals closed so far.
func (s *Session) Statistics() Stats { return s.stats }

func (s *Session) LogStatistics() {
	st := s.stats
	s.log.WithFields(logrus.Fields{
		"deals":    st.TotalDeals,
		"profit":   st.ProfitDeals,
		"loss":     st.LossDeals,
		"balance":  st.Balance,
		"fees":     st.Fees,
		"net":      st.Net(),
		"accuracy": fmt.Sprintf("%.2f%%", st.Accuracy()),
	}).Info("session statistics")
}

func skip(reason string) Outcome {
	return Outcome{Action: Skipped, Reason: reason}
}
