package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openSQLite(t *testing.T) *SQLiteStore[planDoc] {
	t.Helper()

	st, err := NewSQLiteStore[planDoc](filepath.Join(t.TempDir(), "steps.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// TestSQLiteStore_Steps verifies step persistence against a real database
// file.
func TestSQLiteStore_Steps(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip and latest", func(t *testing.T) {
		st := openSQLite(t)

		for i := 1; i <= 3; i++ {
			if err := st.SaveStep(ctx, "run-1", i, "phase", planDoc{Count: i}); err != nil {
				t.Fatalf("SaveStep(%d) failed: %v", i, err)
			}
		}

		state, step, err := st.LoadLatest(ctx, "run-1")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if step != 3 || state.Count != 3 {
			t.Errorf("expected step 3 state 3, got step %d state %+v", step, state)
		}
	})

	t.Run("save same step twice upserts", func(t *testing.T) {
		st := openSQLite(t)

		if err := st.SaveStep(ctx, "run-2", 1, "phase", planDoc{Count: 1}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-2", 1, "phase", planDoc{Count: 9}); err != nil {
			t.Fatalf("SaveStep upsert failed: %v", err)
		}

		state, _, err := st.LoadLatest(ctx, "run-2")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if state.Count != 9 {
			t.Errorf("expected upserted state 9, got %d", state.Count)
		}
	})

	t.Run("unknown run returns ErrNotFound", func(t *testing.T) {
		st := openSQLite(t)

		_, _, err := st.LoadLatest(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("history ordered by step", func(t *testing.T) {
		st := openSQLite(t)

		for _, i := range []int{3, 1, 2} {
			if err := st.SaveStep(ctx, "run-3", i, "phase", planDoc{Count: i}); err != nil {
				t.Fatalf("SaveStep(%d) failed: %v", i, err)
			}
		}

		history, err := st.History(ctx, "run-3")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 records, got %d", len(history))
		}
		for i, rec := range history {
			if rec.Step != i+1 {
				t.Errorf("record %d: expected step %d, got %d", i, i+1, rec.Step)
			}
		}
	})

	t.Run("checkpoint round trip", func(t *testing.T) {
		st := openSQLite(t)

		if err := st.SaveCheckpoint(ctx, "cp-1", planDoc{Phase: "review", Count: 4}, 4); err != nil {
			t.Fatalf("SaveCheckpoint failed: %v", err)
		}

		state, step, err := st.LoadCheckpoint(ctx, "cp-1")
		if err != nil {
			t.Fatalf("LoadCheckpoint failed: %v", err)
		}
		if step != 4 || state.Count != 4 {
			t.Errorf("expected step 4 state 4, got step %d state %+v", step, state)
		}
	})

	t.Run("closed store rejects operations", func(t *testing.T) {
		st := openSQLite(t)
		if err := st.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-4", 1, "phase", planDoc{}); err == nil {
			t.Error("expected error after Close")
		}
	})
}
