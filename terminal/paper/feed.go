package paper

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/rustyeddy/advisor/market"
)

// Feed is a finite source of ticks for the paper terminal.
type Feed interface {
	Next() (market.Tick, error)
	Close() error
}

// OpenFeed picks the feed for path: Dukascopy .bi5 files or day
// directories, CSV otherwise.
func OpenFeed(path string, info market.SymbolInfo) (Feed, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() || strings.HasSuffix(path, ".bi5") {
		return OpenBi5Feed(path, info)
	}
	return OpenCSVFeed(path, info.Name)
}

// Pump feeds the next tick of f into t. It returns io.EOF when the feed
// is exhausted.
func Pump(f Feed, t *Terminal) error {
	tk, err := f.Next()
	if err != nil {
		return err
	}
	return t.UpdateTick(tk)
}

// CSVFeed streams ticks from a CSV file with columns
//
//	time,symbol,bid,ask[,last[,volume]]
//
// time is RFC3339 or Unix seconds. A header row is allowed.
type CSVFeed struct {
	f      io.Closer
	r      *csv.Reader
	symbol string

	sawFirst bool
}

// OpenCSVFeed opens path. A non-empty symbol skips rows for other symbols.
func OpenCSVFeed(path, symbol string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	feed := NewCSVFeed(f, symbol)
	feed.f = f
	return feed, nil
}

func NewCSVFeed(r io.Reader, symbol string) *CSVFeed {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVFeed{r: cr, symbol: symbol}
}

func (f *CSVFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

// Next returns the next tick, or io.EOF at the end of the file.
func (f *CSVFeed) Next() (market.Tick, error) {
	for {
		row, err := f.r.Read()
		if err != nil {
			return market.Tick{}, err
		}
		if len(row) == 0 {
			continue
		}

		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		if len(row) < 4 {
			return market.Tick{}, fmt.Errorf("tick row %v: want at least 4 columns", row)
		}
		tk, err := parseTickRow(row)
		if err != nil {
			return market.Tick{}, err
		}
		if f.symbol != "" && tk.Symbol != f.symbol {
			continue
		}
		return tk, nil
	}
}

func (f *CSVFeed) Pump(t *Terminal) error {
	return Pump(f, t)
}

func parseTickRow(row []string) (market.Tick, error) {
	ts, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return market.Tick{}, err
	}

	tk := market.Tick{Time: ts, Symbol: strings.TrimSpace(row[1])}
	if tk.Symbol == "" {
		return market.Tick{}, errors.New("tick row: empty symbol")
	}
	if tk.Bid, err = cast.ToFloat64E(strings.TrimSpace(row[2])); err != nil {
		return market.Tick{}, fmt.Errorf("bad bid %q: %w", row[2], err)
	}
	if tk.Ask, err = cast.ToFloat64E(strings.TrimSpace(row[3])); err != nil {
		return market.Tick{}, fmt.Errorf("bad ask %q: %w", row[3], err)
	}
	if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
		if tk.Last, err = cast.ToFloat64E(strings.TrimSpace(row[4])); err != nil {
			return market.Tick{}, fmt.Errorf("bad last %q: %w", row[4], err)
		}
	} else {
		tk.Last = tk.Mid()
	}
	if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
		if tk.Volume, err = cast.ToFloat64E(strings.TrimSpace(row[5])); err != nil {
			return market.Tick{}, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
	}
	return tk, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	sec, err := cast.ToInt64E(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q", s)
	}
	return time.Unix(sec, 0).UTC(), nil
}
