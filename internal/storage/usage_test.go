package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/quill-sh/quill/internal/events"
)

func openTestLedger(t *testing.T, bus *events.Bus) *UsageLedger {
	t.Helper()
	ul, err := OpenUsageLedger(filepath.Join(t.TempDir(), "usage.db"), bus)
	if err != nil {
		t.Fatalf("OpenUsageLedger: %v", err)
	}
	t.Cleanup(func() { ul.Close() })
	return ul
}

func TestUsageLedgerAccumulates(t *testing.T) {
	ul := openTestLedger(t, nil)

	if err := ul.Record("s1", "claude-sonnet-4", 100, 50); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ul.Record("s1", "claude-sonnet-4", 30, 20); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ul.Record("s1", "gpt-4o", 10, 5); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rows, err := ul.SessionUsage("s1")
	if err != nil {
		t.Fatalf("SessionUsage: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	claude := rows[0]
	if claude.Model != "claude-sonnet-4" || claude.Calls != 2 ||
		claude.TokensInput != 130 || claude.TokensOutput != 70 {
		t.Errorf("claude row = %+v", claude)
	}
}

func TestUsageLedgerTotals(t *testing.T) {
	ul := openTestLedger(t, nil)

	ul.Record("s1", "gpt-4o", 10, 5)
	ul.Record("s2", "gpt-4o", 20, 10)

	totals, err := ul.Totals()
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if len(totals) != 1 || totals[0].TokensInput != 30 || totals[0].Calls != 2 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestUsageLedgerFromBusEvents(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ul := openTestLedger(t, bus)

	bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.LLMCallPayload{
		Phase:        "response",
		Model:        "claude-sonnet-4",
		TokensInput:  42,
		TokensOutput: 7,
	}, "s1"))
	// request-phase and empty events must be ignored
	bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.LLMCallPayload{
		Phase: "request",
		Model: "claude-sonnet-4",
	}, "s1"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rows, err := ul.SessionUsage("s1")
		if err != nil {
			t.Fatalf("SessionUsage: %v", err)
		}
		if len(rows) == 1 {
			if rows[0].TokensInput != 42 || rows[0].Calls != 1 {
				t.Errorf("row = %+v", rows[0])
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("ledger never recorded the bus event")
}
