package journal

import (
	"database/sql"
	"fmt"
)

const dealColumns = `deal_id, run_id, ticket, symbol, magic, side, volume, open_price, close_price, open_time, close_time, profit, fee, reason`

// GetDeal returns a single deal by ID.
func (j *SQLite) GetDeal(dealID string) (DealRecord, error) {
	row := j.db.QueryRow(`SELECT `+dealColumns+` FROM deals WHERE deal_id = ?`, dealID)

	rec, err := scanDeal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return DealRecord{}, fmt.Errorf("deal %q not found", dealID)
		}
		return DealRecord{}, err
	}
	return rec, nil
}

// ListDeals returns deals ordered by close time. An empty runID lists every
// run.
func (j *SQLite) ListDeals(runID string) ([]DealRecord, error) {
	q := `SELECT ` + dealColumns + ` FROM deals`
	var args []any
	if runID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	q += ` ORDER BY close_time ASC, deal_id ASC`

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DealRecord
	for rows.Next() {
		rec, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns the distinct run IDs in the journal, oldest first.
func (j *SQLite) ListRuns() ([]string, error) {
	rows, err := j.db.Query(`SELECT run_id FROM deals GROUP BY run_id ORDER BY MIN(close_time) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(s scanner) (DealRecord, error) {
	var rec DealRecord
	err := s.Scan(
		&rec.DealID,
		&rec.RunID,
		&rec.Ticket,
		&rec.Symbol,
		&rec.Magic,
		&rec.Side,
		&rec.Volume,
		&rec.OpenPrice,
		&rec.ClosePrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.Profit,
		&rec.Fee,
		&rec.Reason,
	)
	return rec, err
}
