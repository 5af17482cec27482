package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestLogEmitter_Text verifies the human-readable output mode.
func TestLogEmitter_Text(t *testing.T) {
	t.Run("basic event", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{
			RunID: "run-001",
			Step:  3,
			Phase: "draft",
			Msg:   "phase completed",
		})

		out := buf.String()
		if !strings.Contains(out, "[phase completed]") {
			t.Errorf("expected message marker, got %q", out)
		}
		if !strings.Contains(out, "runID=run-001") {
			t.Errorf("expected runID, got %q", out)
		}
		if !strings.Contains(out, "step=3") {
			t.Errorf("expected step, got %q", out)
		}
		if !strings.Contains(out, "phase=draft") {
			t.Errorf("expected phase, got %q", out)
		}
	})

	t.Run("metadata rendered as json", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{
			RunID: "run-002",
			Msg:   "run paused",
			Meta:  map[string]interface{}{"iteration": 2},
		})

		out := buf.String()
		if !strings.Contains(out, "meta=") {
			t.Errorf("expected meta section, got %q", out)
		}
		if !strings.Contains(out, "\"iteration\":2") {
			t.Errorf("expected meta payload, got %q", out)
		}
	})
}

// TestLogEmitter_JSON verifies the JSONL output mode.
func TestLogEmitter_JSON(t *testing.T) {
	t.Run("event is one parseable line", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, true)

		emitter.Emit(Event{
			RunID: "run-003",
			Step:  5,
			Phase: "refine",
			Msg:   "phase completed",
		})

		line := strings.TrimSpace(buf.String())
		var decoded struct {
			RunID string `json:"runID"`
			Step  int    `json:"step"`
			Phase string `json:"phase"`
			Msg   string `json:"msg"`
		}
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v (%q)", err, line)
		}
		if decoded.RunID != "run-003" || decoded.Step != 5 || decoded.Phase != "refine" {
			t.Errorf("unexpected decoded event: %+v", decoded)
		}
	})

	t.Run("multiple events are separate lines", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, true)

		emitter.Emit(Event{RunID: "r", Step: 1, Msg: "a"})
		emitter.Emit(Event{RunID: "r", Step: 2, Msg: "b"})

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines, got %d", len(lines))
		}
	})
}

// TestNullEmitter verifies the no-op emitter is safe to call.
func TestNullEmitter(t *testing.T) {
	emitter := NewNullEmitter()
	emitter.Emit(Event{RunID: "run", Msg: "anything"})
}
