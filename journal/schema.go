// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS deals (
	deal_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	ticket TEXT NOT NULL,
	symbol TEXT NOT NULL,
	magic INTEGER NOT NULL,
	side TEXT NOT NULL,
	volume REAL NOT NULL,
	open_price REAL NOT NULL,
	close_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	profit REAL NOT NULL,
	fee REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_run ON deals(run_id);
CREATE INDEX IF NOT EXISTS idx_deals_close_time ON deals(close_time);
`
