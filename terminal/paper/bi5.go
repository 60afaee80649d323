package paper

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ulikunitz/xz/lzma"

	"github.com/rustyeddy/advisor/market"
)

// bi5RecordSize is the size of one decompressed Dukascopy tick record:
// ms offset, ask, bid (uint32) and ask/bid volume (float32), big endian.
const bi5RecordSize = 20

// Dukascopy stores one hour per file under SYMBOL/YYYY/MM/DD/HHh_ticks.bi5
// with a zero-based month.
var bi5PathRe = regexp.MustCompile(`([A-Z0-9]+)/(\d{4})/(\d{2})/(\d{2})/(\d{2})h_ticks\.bi5$`)

// ParseBi5Path extracts the symbol and the starting hour (UTC) from a
// Dukascopy tick file path.
func ParseBi5Path(path string) (string, time.Time, error) {
	m := bi5PathRe.FindStringSubmatch(filepath.ToSlash(path))
	if m == nil {
		return "", time.Time{}, fmt.Errorf("not a dukascopy tick file: %s", path)
	}
	year, _ := strconv.Atoi(m[2])
	month0, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[4])
	hour, _ := strconv.Atoi(m[5])
	if month0 > 11 || day < 1 || day > 31 || hour > 23 {
		return "", time.Time{}, fmt.Errorf("bad dukascopy path: %s", path)
	}
	at := time.Date(year, time.Month(month0+1), day, hour, 0, 0, 0, time.UTC)
	return m[1], at, nil
}

// Bi5Feed streams ticks from one or more Dukascopy hourly tick files in
// chronological order.
type Bi5Feed struct {
	info  market.SymbolInfo
	files []string

	hour time.Time
	rc   io.Closer
	r    *bufio.Reader
	buf  [bi5RecordSize]byte
}

// OpenBi5Feed opens a single .bi5 file or every HHh_ticks.bi5 file in a
// day directory. Prices are scaled by info.Digits.
func OpenBi5Feed(path string, info market.SymbolInfo) (*Bi5Feed, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	files := []string{path}
	if st.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*h_ticks.bi5"))
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no tick files in %s", path)
		}
		sort.Strings(files)
	}
	for _, f := range files {
		sym, _, err := ParseBi5Path(f)
		if err != nil {
			return nil, err
		}
		if info.Name != "" && sym != info.Name {
			return nil, fmt.Errorf("%s holds %s ticks, want %s", f, sym, info.Name)
		}
	}
	return &Bi5Feed{info: info, files: files}, nil
}

// Next returns the next tick, or io.EOF once every file is consumed.
func (f *Bi5Feed) Next() (market.Tick, error) {
	for {
		if f.r == nil {
			if len(f.files) == 0 {
				return market.Tick{}, io.EOF
			}
			if err := f.openNext(); err != nil {
				return market.Tick{}, err
			}
			continue
		}

		_, err := io.ReadFull(f.r, f.buf[:])
		if errors.Is(err, io.EOF) {
			if err := f.closeCurrent(); err != nil {
				return market.Tick{}, err
			}
			continue
		}
		if err != nil {
			return market.Tick{}, fmt.Errorf("read tick record: %w", err)
		}
		return f.decode(f.buf[:]), nil
	}
}

func (f *Bi5Feed) Pump(t *Terminal) error {
	return Pump(f, t)
}

func (f *Bi5Feed) Close() error {
	f.files = nil
	return f.closeCurrent()
}

func (f *Bi5Feed) openNext() error {
	path := f.files[0]
	f.files = f.files[1:]

	_, hour, err := ParseBi5Path(path)
	if err != nil {
		return err
	}
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	// Hours without ticks are published as empty files.
	if st, err := fh.Stat(); err == nil && st.Size() == 0 {
		return fh.Close()
	}
	zr, err := lzma.NewReader(bufio.NewReader(fh))
	if err != nil {
		fh.Close()
		return fmt.Errorf("decompress %s: %w", path, err)
	}
	f.hour = hour
	f.rc = fh
	f.r = bufio.NewReader(zr)
	return nil
}

func (f *Bi5Feed) closeCurrent() error {
	f.r = nil
	if f.rc == nil {
		return nil
	}
	err := f.rc.Close()
	f.rc = nil
	return err
}

func (f *Bi5Feed) decode(b []byte) market.Tick {
	ms := binary.BigEndian.Uint32(b[0:4])
	ask := binary.BigEndian.Uint32(b[4:8])
	bid := binary.BigEndian.Uint32(b[8:12])
	askVol := math.Float32frombits(binary.BigEndian.Uint32(b[12:16]))
	bidVol := math.Float32frombits(binary.BigEndian.Uint32(b[16:20]))

	tk := market.Tick{
		Symbol: f.info.Name,
		Time:   f.hour.Add(time.Duration(ms) * time.Millisecond),
		Ask:    f.scale(ask),
		Bid:    f.scale(bid),
		Volume: float64(askVol) + float64(bidVol),
	}
	tk.Last = tk.Mid()
	return tk
}

func (f *Bi5Feed) scale(raw uint32) float64 {
	return decimal.New(int64(raw), -int32(f.info.Digits)).InexactFloat64()
}
