package ui

import (
	"strings"
	"testing"

	"github.com/thedittmer/podcast-skill/internal/models"
)

func TestSpoken(t *testing.T) {
	got := Spoken("Episode 3")
	if !strings.Contains(got, "🔊") || !strings.Contains(got, "Episode 3") {
		t.Errorf("Spoken() = %q", got)
	}
}

func TestConfidence(t *testing.T) {
	for _, c := range []models.Confidence{models.Generic, models.Category, models.Title, models.Exact} {
		if got := Confidence(c); !strings.Contains(got, c.String()) {
			t.Errorf("Confidence(%v) = %q", c, got)
		}
	}
}

func TestMatchLine(t *testing.T) {
	got := MatchLine(models.Match{Name: "Science Hour", Score: 0.7407, Confidence: models.Title})
	for _, want := range []string{"Science Hour", "TITLE", "(0.74)"} {
		if !strings.Contains(got, want) {
			t.Errorf("MatchLine() = %q, missing %q", got, want)
		}
	}
}

func TestState(t *testing.T) {
	if got := State(models.StatePlaying); !strings.Contains(got, "playing") {
		t.Errorf("State(playing) = %q", got)
	}
	if got := State(models.StateIdle); !strings.Contains(got, "idle") {
		t.Errorf("State(idle) = %q", got)
	}
}
