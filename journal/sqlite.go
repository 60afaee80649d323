package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordDeal(d DealRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO deals
		(deal_id, run_id, ticket, symbol, magic, side, volume, open_price, close_price, open_time, close_time, profit, fee, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DealID, d.RunID, d.Ticket, d.Symbol, d.Magic, d.Side, d.Volume,
		d.OpenPrice, d.ClosePrice, d.OpenTime, d.CloseTime, d.Profit, d.Fee, d.Reason,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
