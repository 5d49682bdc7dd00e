// Package matcher selects which configured podcast feed a spoken phrase refers to.
//
// Every configured slot name is scored against the phrase with a sequence-matcher
// ratio; a phrase that mentions "podcast" earns a small bonus. A slot whose name
// appears verbatim in the phrase always wins with Exact confidence.
package matcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/thedittmer/podcast-skill/internal/models"
)

const (
	podcastKeyword = "podcast"
	podcastBonus   = 0.1

	exactThreshold    = 0.9
	titleThreshold    = 0.6
	categoryThreshold = 0.1
)

// Select picks the feed slot that best matches phrase.
func Select(phrase string, slots []models.FeedSlot) models.Match {
	scores := Scores(phrase, slots)

	best := -1
	bestScore := 0.0
	for i, score := range scores {
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if slot, i, ok := Find(phrase, slots); ok {
		return models.Match{
			Phrase:     phrase,
			Name:       slot.Name,
			URL:        slot.URL,
			Slot:       i,
			Score:      scores[i],
			Confidence: models.Exact,
		}
	}

	if best < 0 {
		return models.NoMatch(phrase)
	}

	return models.Match{
		Phrase:     phrase,
		Name:       slots[best].Name,
		URL:        slots[best].URL,
		Slot:       best,
		Score:      bestScore,
		Confidence: Tier(bestScore),
	}
}

// Scores returns the fuzzy score of every slot against phrase, including the
// "podcast" bonus and capped at 1. Unconfigured slots score 0.
func Scores(phrase string, slots []models.FeedSlot) []float64 {
	lowered := fold(phrase)

	bonus := 0.0
	if strings.Contains(lowered, podcastKeyword) {
		bonus = podcastBonus
	}

	scores := make([]float64, len(slots))
	for i, slot := range slots {
		if slot.Empty() {
			continue
		}
		scores[i] = min(Similarity(fold(slot.Name), lowered)+bonus, 1.0)
	}
	return scores
}

// Find returns the first configured slot whose name appears in phrase,
// ignoring case.
func Find(phrase string, slots []models.FeedSlot) (models.FeedSlot, int, bool) {
	lowered := fold(phrase)
	for i, slot := range slots {
		if slot.Empty() {
			continue
		}
		if strings.Contains(lowered, fold(strings.TrimSpace(slot.Name))) {
			return slot, i, true
		}
	}
	return models.FeedSlot{}, -1, false
}

// Tier maps a similarity score to a confidence tier.
func Tier(score float64) models.Confidence {
	switch {
	case score > exactThreshold:
		return models.Exact
	case score > titleThreshold:
		return models.Title
	case score > categoryThreshold:
		return models.Category
	default:
		return models.Generic
	}
}

// Similarity returns 2*M/T for the matching characters M of a and b,
// where T is their combined length.
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}
