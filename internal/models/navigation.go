package models

// Step describes what a next/previous request did to the navigation index.
type Step int

const (
	StepMoved Step = iota
	StepAtNewest
	StepAtOldest
	StepEmpty
)

func (s Step) String() string {
	switch s {
	case StepMoved:
		return "moved"
	case StepAtNewest:
		return "at-newest"
	case StepAtOldest:
		return "at-oldest"
	default:
		return "empty"
	}
}

// Navigation is the episode position of one playback session.
// Index 0 is the newest episode; the index only ever moves between 0 and
// len(Titles)-1. Methods return a new value instead of mutating the receiver.
type Navigation struct {
	SessionID string   `json:"session_id,omitempty"`
	FeedName  string   `json:"feed_name,omitempty"`
	FeedURL   string   `json:"feed_url,omitempty"`
	Titles    []string `json:"titles,omitempty"`
	Index     int      `json:"index"`
}

// NewNavigation starts a session at the newest episode.
func NewNavigation(sessionID, feedName, feedURL string, episodes []Episode) Navigation {
	return Navigation{
		SessionID: sessionID,
		FeedName:  feedName,
		FeedURL:   feedURL,
		Titles:    Titles(episodes),
		Index:     0,
	}
}

// Len returns the number of episodes in the session.
func (n Navigation) Len() int {
	return len(n.Titles)
}

// Active reports whether the navigation holds a loaded episode list.
func (n Navigation) Active() bool {
	return len(n.Titles) > 0
}

// Current returns the title at the current index.
func (n Navigation) Current() (string, bool) {
	if n.Index < 0 || n.Index >= len(n.Titles) {
		return "", false
	}
	return n.Titles[n.Index], true
}

// Next steps towards the newest episode.
func (n Navigation) Next() (Navigation, Step) {
	if !n.Active() {
		return n, StepEmpty
	}
	if n.Index == 0 {
		return n, StepAtNewest
	}
	n.Index--
	return n, StepMoved
}

// Previous steps towards the oldest episode.
func (n Navigation) Previous() (Navigation, Step) {
	if !n.Active() {
		return n, StepEmpty
	}
	if n.Index == len(n.Titles)-1 {
		return n, StepAtOldest
	}
	n.Index++
	return n, StepMoved
}
