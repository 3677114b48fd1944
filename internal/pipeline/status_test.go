package pipeline_test

import (
	"testing"

	"zepul/pipeline-service/internal/pipeline"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"SCREENING", "SCHEDULED", "SUBMITTED", "SHORTLISTED", "REJECTED"}
	for _, s := range valid {
		got, err := pipeline.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := pipeline.ParseStatus("UNKNOWN")
	if err == nil {
		t.Error("ParseStatus(\"UNKNOWN\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := pipeline.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

// ParseStatus must be case-sensitive — lowercase variants must not be valid.
func TestParseStatus_CaseSensitive(t *testing.T) {
	lowercase := []string{"screening", "scheduled", "submitted", "shortlisted", "rejected"}
	for _, s := range lowercase {
		_, err := pipeline.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject lowercase value, got nil error", s)
		}
	}
}

// ── IsTransitionAllowed — valid edges ──────────────────────────────────────

func TestIsTransitionAllowed_ValidEdges(t *testing.T) {
	cases := []struct {
		from pipeline.Status
		to   pipeline.Status
	}{
		{pipeline.StatusScreening, pipeline.StatusScheduled},
		{pipeline.StatusScreening, pipeline.StatusSubmitted},
		{pipeline.StatusScreening, pipeline.StatusShortlisted},
		{pipeline.StatusScreening, pipeline.StatusRejected},
		{pipeline.StatusScheduled, pipeline.StatusSubmitted},
		{pipeline.StatusScheduled, pipeline.StatusShortlisted},
		{pipeline.StatusScheduled, pipeline.StatusRejected},
		{pipeline.StatusSubmitted, pipeline.StatusShortlisted},
		{pipeline.StatusSubmitted, pipeline.StatusRejected},
	}
	for _, c := range cases {
		if !pipeline.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — terminal states have no outgoing transitions ─────

func TestIsTransitionAllowed_FromTerminal(t *testing.T) {
	terminals := []pipeline.Status{pipeline.StatusShortlisted, pipeline.StatusRejected}
	targets := []pipeline.Status{
		pipeline.StatusScreening,
		pipeline.StatusScheduled,
		pipeline.StatusSubmitted,
		pipeline.StatusShortlisted,
		pipeline.StatusRejected,
	}
	for _, from := range terminals {
		for _, to := range targets {
			if pipeline.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false (terminal state)", from, to)
			}
		}
	}
}

// ── IsTransitionAllowed — backwards movements are forbidden ───────────────

func TestIsTransitionAllowed_Backwards(t *testing.T) {
	cases := []struct {
		from pipeline.Status
		to   pipeline.Status
	}{
		{pipeline.StatusScheduled, pipeline.StatusScreening},
		{pipeline.StatusSubmitted, pipeline.StatusScreening},
		{pipeline.StatusSubmitted, pipeline.StatusScheduled},
	}
	for _, c := range cases {
		if pipeline.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (backwards)", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — self-transitions are forbidden ──────────────────

func TestIsTransitionAllowed_Self(t *testing.T) {
	all := []pipeline.Status{
		pipeline.StatusScreening, pipeline.StatusScheduled, pipeline.StatusSubmitted,
		pipeline.StatusShortlisted, pipeline.StatusRejected,
	}
	for _, s := range all {
		if pipeline.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (self)", s, s)
		}
	}
}

// SCREENING is the mandatory initial state for any new candidate.
// Verify it is never reachable from any other state.
func TestIsTransitionAllowed_ScreeningIsNeverReachable(t *testing.T) {
	sources := []pipeline.Status{
		pipeline.StatusScheduled,
		pipeline.StatusSubmitted,
		pipeline.StatusShortlisted,
		pipeline.StatusRejected,
	}
	for _, from := range sources {
		if pipeline.IsTransitionAllowed(from, pipeline.StatusScreening) {
			t.Errorf(
				"IsTransitionAllowed(%s → SCREENING) must be false: SCREENING is only an initial state",
				from,
			)
		}
	}
}

// ── IsTerminal ─────────────────────────────────────────────────────────────

func TestIsTerminal(t *testing.T) {
	for _, s := range []pipeline.Status{pipeline.StatusShortlisted, pipeline.StatusRejected} {
		if !pipeline.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should be true", s)
		}
	}
	for _, s := range []pipeline.Status{
		pipeline.StatusScreening, pipeline.StatusScheduled, pipeline.StatusSubmitted,
	} {
		if pipeline.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should be false", s)
		}
	}
}
