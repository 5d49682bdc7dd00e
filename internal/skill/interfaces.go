package skill

import (
	"context"

	"github.com/thedittmer/podcast-skill/internal/feed"
	"github.com/thedittmer/podcast-skill/internal/models"
)

// AudioService is the host's playback engine.
type AudioService interface {
	Play(ctx context.Context, urls []string) error
	Stop(ctx context.Context) error
	IsPlaying() bool
	TrackInfo(ctx context.Context) (models.TrackInfo, error)
}

// Speaker turns text into speech.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// FeedLoader fetches and parses one feed.
type FeedLoader interface {
	Load(ctx context.Context, url string) (feed.Result, error)
	LatestTitles(ctx context.Context, slots []models.FeedSlot) []feed.SlotTitle
}
