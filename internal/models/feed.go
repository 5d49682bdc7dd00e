package models

import (
	"fmt"
	"strings"
	"time"
)

// MaxSlots is the number of feed slots the skill settings expose.
const MaxSlots = 3

// FeedSlot is one configured podcast: the spoken name and its feed URL.
type FeedSlot struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Empty reports whether the slot is unconfigured.
func (s FeedSlot) Empty() bool {
	return strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.URL) == ""
}

type Episode struct {
	Title       string
	AudioURL    string
	Description string
	Published   time.Time
}

// AudioURLs returns the playable URLs in feed order.
func AudioURLs(episodes []Episode) []string {
	urls := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		urls = append(urls, ep.AudioURL)
	}
	return urls
}

// Titles returns the episode titles in feed order.
func Titles(episodes []Episode) []string {
	titles := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		titles = append(titles, ep.Title)
	}
	return titles
}

// Confidence is how sure the selector is that a phrase names a feed.
type Confidence int

const (
	Generic Confidence = iota
	Category
	Title
	Exact
)

func (c Confidence) String() string {
	switch c {
	case Exact:
		return "EXACT"
	case Title:
		return "TITLE"
	case Category:
		return "CATEGORY"
	default:
		return "GENERIC"
	}
}

// MarshalText renders the tier name in JSON responses.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "EXACT":
		*c = Exact
	case "TITLE":
		*c = Title
	case "CATEGORY":
		*c = Category
	case "GENERIC", "":
		*c = Generic
	default:
		return fmt.Errorf("unknown confidence %q", text)
	}
	return nil
}

// Match is the outcome of selecting a feed for a phrase.
type Match struct {
	Phrase     string     `json:"phrase"`
	Name       string     `json:"name,omitempty"`
	URL        string     `json:"url,omitempty"`
	Slot       int        `json:"slot"`
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
}

// NoMatch is the result for a phrase that names no configured feed.
func NoMatch(phrase string) Match {
	return Match{Phrase: phrase, Slot: -1, Confidence: Generic}
}

// Matched reports whether the match selected a feed.
func (m Match) Matched() bool {
	return m.URL != ""
}
