package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/quill-sh/quill/internal/events"
)

// UsageLedger accumulates per-session token usage from LLM telemetry events
// into a SQLite database.
type UsageLedger struct {
	db          *sql.DB
	unsubscribe func()
}

// UsageRow is one (session, model) accumulation.
type UsageRow struct {
	SessionID    string
	Model        string
	Calls        int
	TokensInput  int
	TokensOutput int
}

// OpenUsageLedger opens (creating if needed) the ledger database and
// subscribes to LLM call events on the bus. Pass a nil bus to open the
// ledger read-only for reporting.
func OpenUsageLedger(path string, bus *events.Bus) (*UsageLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("usage ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open usage ledger: %w", err)
	}
	// modernc sqlite is happiest with a single writer connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("usage ledger pragma: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("usage ledger pragma: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS usage (
			session_id    TEXT NOT NULL,
			model         TEXT NOT NULL,
			calls         INTEGER NOT NULL DEFAULT 0,
			tokens_input  INTEGER NOT NULL DEFAULT 0,
			tokens_output INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, model)
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("usage ledger schema: %w", err)
	}

	ul := &UsageLedger{db: db}
	if bus != nil {
		ul.unsubscribe = bus.Subscribe(ul.handleEvent, events.EventLLMCall)
	}
	return ul, nil
}

// Close detaches from the bus and closes the database.
func (ul *UsageLedger) Close() error {
	if ul.unsubscribe != nil {
		ul.unsubscribe()
	}
	return ul.db.Close()
}

func (ul *UsageLedger) handleEvent(e events.Event) {
	payload, ok := events.ExtractPayload[events.LLMCallPayload](e)
	if !ok || payload.Phase != "response" {
		return
	}
	if payload.TokensInput == 0 && payload.TokensOutput == 0 {
		return
	}
	if err := ul.Record(e.SessionID, payload.Model, payload.TokensInput, payload.TokensOutput); err != nil {
		slog.Error("usage ledger record failed", "session_id", e.SessionID, "error", err)
	}
}

// Record adds one call's token counts to the (session, model) row.
func (ul *UsageLedger) Record(sessionID, model string, tokensIn, tokensOut int) error {
	_, err := ul.db.Exec(`
		INSERT INTO usage (session_id, model, calls, tokens_input, tokens_output)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (session_id, model) DO UPDATE SET
			calls         = calls + 1,
			tokens_input  = tokens_input + excluded.tokens_input,
			tokens_output = tokens_output + excluded.tokens_output;
	`, sessionID, model, tokensIn, tokensOut)
	return err
}

// SessionUsage returns the rows for one session.
func (ul *UsageLedger) SessionUsage(sessionID string) ([]UsageRow, error) {
	return ul.query(`
		SELECT session_id, model, calls, tokens_input, tokens_output
		FROM usage WHERE session_id = ? ORDER BY model;
	`, sessionID)
}

// Totals returns the accumulated usage per model across all sessions.
func (ul *UsageLedger) Totals() ([]UsageRow, error) {
	return ul.query(`
		SELECT '' AS session_id, model,
			SUM(calls), SUM(tokens_input), SUM(tokens_output)
		FROM usage GROUP BY model ORDER BY model;
	`)
}

func (ul *UsageLedger) query(q string, args ...any) ([]UsageRow, error) {
	rows, err := ul.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var r UsageRow
		if err := rows.Scan(&r.SessionID, &r.Model, &r.Calls, &r.TokensInput, &r.TokensOutput); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
