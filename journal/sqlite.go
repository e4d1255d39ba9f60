package journal

import (
	"database/sql"
	"encoding/json"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, entry_price, exit_price, quantity, pnl, pnl_percent, reason, strategy, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, t.EntryPrice, t.ExitPrice, t.Quantity,
		t.PnL, t.PnLPercent, t.Reason, t.Strategy, t.OpenedAt, t.ClosedAt,
	)
	return err
}

func (j *SQLiteJournal) RecordAdaptation(a Adaptation) error {
	params, err := json.Marshal(a.Params)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(`
		INSERT INTO adaptations (adaptation_id, time, changes, params)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.Time, strings.Join(a.Changes, "\n"), string(params),
	)
	return err
}

// Trades returns the recorded trades ordered by close time, newest
// first, limited to n (0 means all). Used by the report command.
func (j *SQLiteJournal) Trades(n int) ([]TradeRecord, error) {
	q := `SELECT trade_id, symbol, entry_price, exit_price, quantity, pnl, pnl_percent, reason, strategy, opened_at, closed_at
		FROM trades ORDER BY closed_at DESC`
	args := []any{}
	if n > 0 {
		q += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.Symbol, &t.EntryPrice, &t.ExitPrice, &t.Quantity,
			&t.PnL, &t.PnLPercent, &t.Reason, &t.Strategy, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
