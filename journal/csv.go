package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"deal_id", "run_id", "ticket", "symbol", "magic", "side", "volume",
	"open_price", "close_price", "open_time", "close_time", "profit", "fee", "reason",
}

type CSV struct {
	w *csv.Writer
	f *os.File
}

// NewCSV creates path, truncating an existing file, and writes the header.
func NewCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &CSV{w: w, f: f}, nil
}

func (j *CSV) RecordDeal(d DealRecord) error {
	err := j.w.Write([]string{
		d.DealID,
		d.RunID,
		d.Ticket,
		d.Symbol,
		strconv.FormatInt(d.Magic, 10),
		d.Side,
		f(d.Volume),
		f(d.OpenPrice),
		f(d.ClosePrice),
		d.OpenTime.Format(time.RFC3339),
		d.CloseTime.Format(time.RFC3339),
		f(d.Profit),
		f(d.Fee),
		d.Reason,
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
