package models

// PlaybackState is the skill's view of the audio session.
type PlaybackState string

const (
	StateIdle    PlaybackState = "idle"
	StatePlaying PlaybackState = "playing"
)

// TrackInfo is what the audio service reports about the current track.
type TrackInfo struct {
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	PlaylistPos int    `json:"playlist_pos"`
	Paused      bool   `json:"paused"`
	Running     bool   `json:"running"`
}
