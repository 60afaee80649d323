package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/terminal"
	"github.com/rustyeddy/advisor/terminal/paper"
	"github.com/rustyeddy/advisor/window"
)

var ctx = context.Background()

func TestNew_Validates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbol", func(c *Config) { c.Symbol = "" }},
		{"zero lot", func(c *Config) { c.Lot = 0 }},
		{"negative stop", func(c *Config) { c.Regular.StopLoss = -1 }},
		{"negative emergency take", func(c *Config) { c.Emergency.TakeProfit = -1 }},
		{"negative fee", func(c *Config) { c.Fee = -0.1 }},
		{"negative deviation", func(c *Config) { c.Deviation = -3 }},
		{"window out of order", func(c *Config) { c.Window.Start = window.At(18, 0, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, newFake())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := New(testConfig(), nil)
	assert.Error(t, err)
}

func TestPrepareSymbol(t *testing.T) {
	t.Parallel()

	t.Run("idempotent", func(t *testing.T) {
		f := newFake()
		s, _ := prepared(t, f)
		info, err := s.PrepareSymbol(ctx)
		require.NoError(t, err)
		assert.Equal(t, "EURUSD", info.Name)
		assert.Equal(t, 1, f.selects)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		cfg := testConfig()
		cfg.Symbol = "XAUUSD"
		s, err := New(cfg, newFake())
		require.NoError(t, err)
		_, err = s.PrepareSymbol(ctx)
		assert.ErrorIs(t, err, terminal.ErrSymbolUnavailable)
		var te *TradeError
		assert.ErrorAs(t, err, &te)
	})

	t.Run("lot off step", func(t *testing.T) {
		cfg := testConfig()
		cfg.Lot = 0.015
		s, err := New(cfg, newFake())
		require.NoError(t, err)
		_, err = s.PrepareSymbol(ctx)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, risk.ErrInvalidVolume)
	})

	t.Run("operations need a prepared symbol", func(t *testing.T) {
		s, err := New(testConfig(), newFake())
		require.NoError(t, err)
		_, err = s.OpenPosition(ctx, Buy(), "")
		assert.ErrorIs(t, err, ErrNotPrepared)
		_, err = s.ClosePosition(ctx, "")
		assert.ErrorIs(t, err, ErrNotPrepared)
		_, err = s.StopAndGain(ctx)
		assert.ErrorIs(t, err, ErrNotPrepared)
	})
}

func TestState_FollowsClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour, minute int
		want         window.State
	}{
		{9, 0, window.BeforeStart},
		{9, 15, window.Trading},
		{12, 0, window.Trading},
		{17, 30, window.Finishing},
		{17, 49, window.Finishing},
		{17, 50, window.EndOfDay},
		{23, 0, window.EndOfDay},
	}
	s, c := prepared(t, newFake())
	for _, tt := range tests {
		c.t = day(tt.hour, tt.minute)
		assert.Equal(t, tt.want, s.State(), "%02d:%02d", tt.hour, tt.minute)
		assert.Equal(t, tt.want == window.Trading, s.TradingTime())
		assert.Equal(t, tt.want == window.EndOfDay, s.DaysEnd())
	}
}

func TestOpenPosition_FromFlat(t *testing.T) {
	t.Parallel()

	t.Run("buy at ask", func(t *testing.T) {
		f := newFake()
		s, _ := prepared(t, f)
		out, err := s.OpenPosition(ctx, Buy(), "ma cross")
		require.NoError(t, err)
		assert.Equal(t, Opened, out.Action)
		assert.Equal(t, 1.10010, out.Price)

		require.Len(t, f.placed, 1)
		req := f.placed[0]
		assert.Equal(t, risk.Long, req.Side)
		assert.Equal(t, 0.1, req.Volume)
		assert.Equal(t, int64(testMagic), req.Magic)
		assert.Equal(t, "ma cross", req.Comment)
		assert.Equal(t, 1.09910, req.StopLoss)
		assert.Equal(t, 1.10210, req.TakeProfit)
	})

	t.Run("sell at bid", func(t *testing.T) {
		f := newFake()
		s, _ := prepared(t, f)
		out, err := s.OpenPosition(ctx, Sell(), "")
		require.NoError(t, err)
		assert.Equal(t, Opened, out.Action)

		require.Len(t, f.placed, 1)
		req := f.placed[0]
		assert.Equal(t, risk.Short, req.Side)
		assert.Equal(t, 1.10000, req.Price)
		assert.Equal(t, 1.10100, req.StopLoss)
		assert.Equal(t, 1.09800, req.TakeProfit)
	})

	t.Run("emergency distances", func(t *testing.T) {
		f := newFake()
		s, _ := prepared(t, f)
		_, err := s.OpenPositionWith(ctx, Buy(), "", Emergency)
		require.NoError(t, err)
		require.Len(t, f.placed, 1)
		assert.Equal(t, 1.09710, f.placed[0].StopLoss)
		assert.Equal(t, 1.10610, f.placed[0].TakeProfit)
	})
}

func TestOpenPosition_SkipsWithoutOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sig    Signal
		hour   int
		minute int
		reason string
	}{
		{"ambiguous", Signal{Buy: true, Sell: true}, 10, 0, ReasonAmbiguous},
		{"no signal", Signal{}, 10, 0, ReasonNoSignal},
		{"before start", Buy(), 9, 0, ReasonOutsideWindow},
		{"finishing", Buy(), 17, 40, ReasonOutsideWindow},
		{"end of day", Sell(), 17, 51, ReasonOutsideWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			s, c := prepared(t, f)
			c.t = day(tt.hour, tt.minute)
			out, err := s.OpenPosition(ctx, tt.sig, "")
			require.NoError(t, err)
			assert.Equal(t, Skipped, out.Action)
			assert.Contains(t, out.Reason, tt.reason)
			assert.Empty(t, f.placed)
		})
	}
}

func TestOpenPosition_HoldsSameSide(t *testing.T) {
	t.Parallel()

	f := newFake()
	f.hold(risk.Long, 1.09950)
	s, _ := prepared(t, f)

	out, err := s.OpenPosition(ctx, Buy(), "")
	require.NoError(t, err)
	assert.Equal(t, Held, out.Action)
	assert.Equal(t, "T1", out.Ticket)
	assert.Empty(t, f.placed)
	assert.Empty(t, f.closed)
}

func TestOpenPosition_Reverses(t *testing.T) {
	t.Parallel()

	f := newFake()
	f.hold(risk.Long, 1.09950)
	f.closeProfit = 5
	s, _ := prepared(t, f)

	out, err := s.OpenPosition(ctx, Sell(), "")
	require.NoError(t, err)
	assert.Equal(t, Reversed, out.Action)
	assert.Equal(t, 5.0, out.Profit)

	require.Len(t, f.closed, 1)
	assert.Equal(t, "T1", f.closed[0].Ticket)
	require.Len(t, f.placed, 1)
	assert.Equal(t, risk.Short, f.placed[0].Side)

	require.Len(t, f.positions, 1)
	assert.Equal(t, risk.Short, f.positions[0].Side)
	assert.Equal(t, 1, s.Statistics().TotalDeals)
}

func TestOpenPosition_ReversalOpenFailsLeavesFlat(t *testing.T) {
	t.Parallel()

	f := newFake()
	f.hold(risk.Short, 1.10100)
	s, _ := prepared(t, f)
	f.placeErr = terminal.Reject(terminal.RejectNoMoney, "margin")

	out, err := s.OpenPosition(ctx, Buy(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, terminal.ErrOrderRejected)
	var te *TradeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "open", te.Op)

	assert.Equal(t, Closed, out.Action)
	assert.Empty(t, f.positions)

	exp, err := s.Exposure(ctx)
	require.NoError(t, err)
	assert.True(t, exp.IsFlat())
}

func TestOpenPosition_NoReversalOutsideWindow(t *testing.T) {
	t.Parallel()

	f := newFake()
	f.hold(risk.Long, 1.09950)
	s, c := prepared(t, f)
	c.t = day(17, 35)

	out, err := s.OpenPosition(ctx, Sell(), "")
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.Action)
	assert.Empty(t, f.closed)
	assert.Len(t, f.positions, 1)
}

func TestOpenPosition_TradeModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode   market.TradeMode
		sig    Signal
		opened bool
	}{
		{market.TradeDisabled, Buy(), false},
		{market.TradeCloseOnly, Sell(), false},
		{market.TradeLongOnly, Buy(), true},
		{market.TradeLongOnly, Sell(), false},
		{market.TradeShortOnly, Sell(), true},
		{market.TradeShortOnly, Buy(), false},
		{market.TradeFull, Sell(), true},
	}
	for _, tt := range tests {
		f := newFake()
		f.info.TradeMode = tt.mode
		s, _ := prepared(t, f)

		out, err := s.OpenPosition(ctx, tt.sig, "")
		require.NoError(t, err)
		if tt.opened {
			assert.Equal(t, Opened, out.Action, "%v %+v", tt.mode, tt.sig)
			assert.Len(t, f.placed, 1)
			continue
		}
		assert.Equal(t, Skipped, out.Action, "%v %+v", tt.mode, tt.sig)
		assert.Contains(t, out.Reason, ReasonTradeMode)
		assert.Empty(t, f.placed)
	}
}

func TestOpenPosition_TerminalErrors(t *testing.T) {
	t.Parallel()

	t.Run("positions unavailable", func(t *testing.T) {
		f := newFake()
		s, _ := prepared(t, f)
		f.positionsErr = errors.New("socket closed")

		_, err := s.OpenPosition(ctx, Buy(), "")
		assert.ErrorIs(t, err, terminal.ErrUnavailable)
		assert.True(t, terminal.IsTransient(err))
		assert.Empty(t, f.placed)
	})

	t.Run("rejected", func(t *testing.T) {
		f := newFake()
		s, _ := prepared(t, f)
		f.placeErr = terminal.Reject(terminal.RejectInvalidStops, "too close")

		out, err := s.OpenPosition(ctx, Buy(), "")
		assert.Equal(t, Skipped, out.Action)
		assert.ErrorIs(t, err, terminal.ErrOrderRejected)
		code, ok := terminal.RejectCodeOf(err)
		assert.True(t, ok)
		assert.Equal(t, terminal.RejectInvalidStops, code)
	})

	t.Run("several positions", func(t *testing.T) {
		f := newFake()
		f.hold(risk.Long, 1.1)
		f.hold(risk.Long, 1.1)
		s, _ := prepared(t, f)

		_, err := s.OpenPosition(ctx, Sell(), "")
		assert.Error(t, err)
		assert.Empty(t, f.placed)
		assert.Empty(t, f.closed)
	})
}

func TestClosePosition(t *testing.T) {
	t.Parallel()

	t.Run("flat is a no-op", func(t *testing.T) {
		f := newFake()
		s, _ := prepared(t, f)
		out, err := s.ClosePosition(ctx, "end of day")
		require.NoError(t, err)
		assert.Equal(t, Skipped, out.Action)
		assert.Equal(t, ReasonFlat, out.Reason)
		assert.Zero(t, s.Statistics().TotalDeals)
	})

	t.Run("closes once", func(t *testing.T) {
		f := newFake()
		f.hold(risk.Long, 1.09950)
		f.closeProfit = 5
		j := &memJournal{}
		s, _ := prepared(t, f, WithJournal(j), WithRunID("run-1"))

		out, err := s.ClosePosition(ctx, "end of day")
		require.NoError(t, err)
		assert.Equal(t, Closed, out.Action)
		assert.Equal(t, "end of day", out.Reason)

		out, err = s.ClosePosition(ctx, "end of day")
		require.NoError(t, err)
		assert.Equal(t, Skipped, out.Action)
		assert.Len(t, f.closed, 1)

		require.Len(t, j.records, 1)
		rec := j.records[0]
		assert.Equal(t, "run-1", rec.RunID)
		assert.Equal(t, "T1", rec.Ticket)
		assert.Equal(t, "Buy", rec.Side)
		assert.Equal(t, 1.09950, rec.OpenPrice)
		assert.Equal(t, 1.10000, rec.ClosePrice)
		assert.Equal(t, 5.0, rec.Profit)
		assert.Equal(t, 0.5, rec.Fee)
		assert.Equal(t, "end of day", rec.Reason)
		assert.NotEmpty(t, rec.DealID)
	})

	t.Run("allowed after the window", func(t *testing.T) {
		f := newFake()
		f.hold(risk.Short, 1.1)
		s, c := prepared(t, f)
		c.t = day(18, 0)
		out, err := s.ClosePosition(ctx, "end of day")
		require.NoError(t, err)
		assert.Equal(t, Closed, out.Action)
	})

	t.Run("trade disabled", func(t *testing.T) {
		f := newFake()
		f.info.TradeMode = market.TradeDisabled
		f.hold(risk.Long, 1.1)
		s, _ := prepared(t, f)
		out, err := s.ClosePosition(ctx, "")
		assert.ErrorIs(t, err, terminal.ErrOrderRejected)
		assert.Equal(t, Skipped, out.Action)
		assert.Empty(t, f.closed)
	})

	t.Run("close fails", func(t *testing.T) {
		f := newFake()
		f.hold(risk.Long, 1.1)
		s, _ := prepared(t, f)
		f.closeErr = terminal.ErrUnavailable
		_, err := s.ClosePosition(ctx, "")
		assert.ErrorIs(t, err, terminal.ErrUnavailable)
		assert.Len(t, f.positions, 1)
		assert.Zero(t, s.Statistics().TotalDeals)
	})

	t.Run("journal failure does not fail the close", func(t *testing.T) {
		f := newFake()
		f.hold(risk.Long, 1.1)
		s, _ := prepared(t, f, WithJournal(&memJournal{err: errors.New("disk full")}))
		out, err := s.ClosePosition(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, Closed, out.Action)
	})
}

func TestStopAndGain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		side     risk.Direction
		bid, ask float64
		action   Action
		reason   string
	}{
		{"long take profit", risk.Long, 1.10200, 1.10210, Closed, "take profit"},
		{"long stop loss", risk.Long, 1.09900, 1.09910, Closed, "stop loss"},
		{"long in range", risk.Long, 1.10050, 1.10060, Skipped, ReasonWithinRange},
		{"short take profit", risk.Short, 1.09790, 1.09800, Closed, "take profit"},
		{"short stop loss", risk.Short, 1.10090, 1.10100, Closed, "stop loss"},
		{"short in range", risk.Short, 1.09990, 1.10000, Skipped, ReasonWithinRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			f.hold(tt.side, 1.10000)
			f.tick.Bid, f.tick.Ask = tt.bid, tt.ask
			s, _ := prepared(t, f)

			out, err := s.StopAndGain(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.action, out.Action)
			assert.Equal(t, tt.reason, out.Reason)
		})
	}

	f := newFake()
	s, _ := prepared(t, f)
	out, err := s.StopAndGain(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonFlat, out.Reason)
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	f := newFake()
	s, _ := prepared(t, f)

	st := s.Statistics()
	assert.Zero(t, st.TotalDeals)
	assert.Zero(t, st.Accuracy())
	assert.Zero(t, st.Net())
	s.LogStatistics()

	f.hold(risk.Long, 1.1)
	f.closeProfit = 10
	_, err := s.ClosePosition(ctx, "")
	require.NoError(t, err)

	f.hold(risk.Short, 1.1)
	f.closeProfit = -4
	_, err = s.ClosePosition(ctx, "")
	require.NoError(t, err)

	s.Record(f.closed[0], 1.1, day(11, 0), 0, "StopLoss")

	st = s.Statistics()
	assert.Equal(t, 3, st.TotalDeals)
	assert.Equal(t, 1, st.ProfitDeals)
	assert.Equal(t, 1, st.LossDeals)
	assert.InDelta(t, 6.0, st.Balance, 1e-9)
	assert.InDelta(t, 1.5, st.Fees, 1e-9)
	assert.InDelta(t, 4.5, st.Net(), 1e-9)
	assert.InDelta(t, 33.333, st.Accuracy(), 1e-3)
}

// A position opened during the day survives into the finishing phase,
// where new signals are ignored, and is closed at the end.
func TestSession_DayOnPaperTerminal(t *testing.T) {
	t.Parallel()

	term := paper.New(10_000, market.Symbols["EURUSD"])
	tick := func(hour, minute int, bid float64) {
		require.NoError(t, term.UpdateTick(market.Tick{Symbol: "EURUSD", Time: day(hour, minute), Bid: bid, Ask: bid + 0.00010}))
	}
	tick(9, 0, 1.10000)

	s, err := New(testConfig(), term, WithClock(term.Now))
	require.NoError(t, err)
	_, err = s.PrepareSymbol(ctx)
	require.NoError(t, err)

	out, err := s.OpenPosition(ctx, Buy(), "")
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.Action)

	tick(10, 0, 1.10000)
	out, err = s.OpenPosition(ctx, Buy(), "")
	require.NoError(t, err)
	require.Equal(t, Opened, out.Action)
	assert.Equal(t, 1.10010, out.Price)

	tick(17, 40, 1.10060)
	assert.Equal(t, window.Finishing, s.State())
	out, err = s.OpenPosition(ctx, Sell(), "")
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.Action)
	require.Len(t, term.Positions(), 1)

	tick(17, 51, 1.10060)
	assert.True(t, s.DaysEnd())
	out, err = s.ClosePosition(ctx, "end of day")
	require.NoError(t, err)
	assert.Equal(t, Closed, out.Action)
	assert.InDelta(t, 5.0, out.Profit, 1e-6)

	assert.Empty(t, term.Positions())
	st := s.Statistics()
	assert.Equal(t, 1, st.TotalDeals)
	assert.Equal(t, 1, st.ProfitDeals)
	assert.InDelta(t, 10_005.0, term.Balance(), 1e-6)
}
