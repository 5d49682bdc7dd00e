// Package skill implements the podcast voice skill: choosing a feed from a
// spoken phrase, starting playback and tracking which episode is announced.
package skill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/thedittmer/podcast-skill/internal/bus"
	"github.com/thedittmer/podcast-skill/internal/dialog"
	"github.com/thedittmer/podcast-skill/internal/feed"
	"github.com/thedittmer/podcast-skill/internal/matcher"
	"github.com/thedittmer/podcast-skill/internal/models"
)

var ErrNoMatch = errors.New("phrase matches no configured podcast")

type Options struct {
	Slots   []models.FeedSlot
	Audio   AudioService
	Speaker Speaker
	Loader  FeedLoader
	Dialogs *dialog.Renderer
	Logger  *slog.Logger
	// NewSessionID defaults to random UUIDs.
	NewSessionID func() string
}

// Skill handles intents and playback events. Its methods are serialized, so
// the host may call them from any goroutine.
type Skill struct {
	mu sync.Mutex

	slots   []models.FeedSlot
	audio   AudioService
	speaker Speaker
	loader  FeedLoader
	dialogs *dialog.Renderer
	logger  *slog.Logger
	newID   func() string

	state models.PlaybackState
	nav   models.Navigation
}

func New(opts Options) (*Skill, error) {
	if opts.Audio == nil || opts.Speaker == nil || opts.Loader == nil {
		return nil, errors.New("skill requires audio service, speaker, and feed loader")
	}
	if opts.Dialogs == nil {
		opts.Dialogs = dialog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.NewSessionID == nil {
		opts.NewSessionID = uuid.NewString
	}
	return &Skill{
		slots:   append([]models.FeedSlot(nil), opts.Slots...),
		audio:   opts.Audio,
		speaker: opts.Speaker,
		loader:  opts.Loader,
		dialogs: opts.Dialogs,
		logger:  opts.Logger.With("component", "skill"),
		newID:   opts.NewSessionID,
		state:   models.StateIdle,
	}, nil
}

// Register subscribes the playback control handlers.
func (s *Skill) Register(b *bus.Bus) {
	b.Subscribe(bus.Next, "podcast-skill", s.Next)
	b.Subscribe(bus.Previous, "podcast-skill", s.Previous)
	b.Subscribe(bus.Pause, "podcast-skill", s.Pause)
	b.Subscribe(bus.Resume, "podcast-skill", s.Resume)
}

// UpdateSlots replaces the configured feeds, e.g. after a settings change.
func (s *Skill) UpdateSlots(slots []models.FeedSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append([]models.FeedSlot(nil), slots...)
}

// MatchQueryPhrase reports which feed, if any, phrase asks for and how confident
// the match is.
func (s *Skill) MatchQueryPhrase(phrase string) models.Match {
	s.mu.Lock()
	slots := s.slots
	s.mu.Unlock()

	for i, score := range matcher.Scores(phrase, slots) {
		s.logger.Debug("slot score", "index", i, "name", slots[i].Name, "score", score)
	}

	m := matcher.Select(phrase, slots)
	s.logger.Info("phrase matched",
		"phrase", phrase,
		"confidence", m.Confidence.String(),
		"url", m.URL,
		"score", m.Score,
	)
	return m
}

// Play matches phrase and starts playback of the selected feed.
func (s *Skill) Play(ctx context.Context, phrase string) (models.Match, error) {
	m := s.MatchQueryPhrase(phrase)
	if !m.Matched() {
		return m, ErrNoMatch
	}
	return m, s.Start(ctx, m)
}

// Start loads the matched feed, announces the newest episode and hands the
// whole episode list to the audio service.
func (s *Skill) Start(ctx context.Context, m models.Match) error {
	if !m.Matched() {
		return ErrNoMatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("starting playback", "phrase", m.Phrase, "url", m.URL)

	res, err := s.loader.Load(ctx, m.URL)
	if err != nil {
		s.logger.Warn("feed load failed", "url", m.URL, "error", err)
		if speakErr := s.speakDialog(ctx, failureDialog(err), nil); speakErr != nil {
			return errors.Join(err, speakErr)
		}
		return err
	}
	if len(res.Episodes) == 0 {
		err := &feed.Error{Kind: feed.KindBadFeed, URL: m.URL, Err: errors.New("feed has no playable episodes")}
		s.logger.Warn("feed has no episodes", "url", m.URL)
		if speakErr := s.speakDialog(ctx, dialog.BadFeed, nil); speakErr != nil {
			return errors.Join(err, speakErr)
		}
		return err
	}

	nav := models.NewNavigation(s.newID(), m.Name, m.URL, res.Episodes)
	title, _ := nav.Current()
	if err := s.speak(ctx, title); err != nil {
		return err
	}
	if err := s.audio.Play(ctx, models.AudioURLs(res.Episodes)); err != nil {
		return fmt.Errorf("start audio: %w", err)
	}

	s.nav = nav
	s.state = models.StatePlaying
	s.logger.Info("playback started",
		"session", nav.SessionID,
		"feed", nav.FeedName,
		"episodes", nav.Len(),
	)
	return nil
}

// Next announces the next newer episode. The audio service keeps playing its
// own playlist position; only the announced title moves.
func (s *Skill) Next(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("next called")
	s.logTrackInfo(ctx)
	if !s.audio.IsPlaying() {
		return nil
	}

	nav, step := s.nav.Next()
	s.nav = nav
	return s.announce(ctx, step, dialog.LatestEpisodeNotice)
}

// Previous announces the next older episode. Like Next it does not seek audio.
func (s *Skill) Previous(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("previous called")
	s.logTrackInfo(ctx)
	if !s.audio.IsPlaying() {
		return nil
	}

	nav, step := s.nav.Previous()
	s.nav = nav
	return s.announce(ctx, step, dialog.NoMoreEpisodes)
}

func (s *Skill) announce(ctx context.Context, step models.Step, boundary string) error {
	switch step {
	case models.StepMoved:
		title, _ := s.nav.Current()
		s.logger.Info("episode changed", "session", s.nav.SessionID, "index", s.nav.Index, "title", title)
		return s.speak(ctx, title)
	case models.StepEmpty:
		s.logger.Debug("no podcast session to navigate")
		return nil
	default:
		s.logger.Info("navigation at boundary", "session", s.nav.SessionID, "index", s.nav.Index, "step", step.String())
		return s.speakDialog(ctx, boundary, nil)
	}
}

// Pause only reports the audio service status; the host pauses the audio.
func (s *Skill) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("pause called")
	s.logTrackInfo(ctx)
	return nil
}

// Resume only reports the audio service status; the host resumes the audio.
func (s *Skill) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("resume called")
	s.logTrackInfo(ctx)
	return nil
}

func (s *Skill) logTrackInfo(ctx context.Context) {
	info, err := s.audio.TrackInfo(ctx)
	if err != nil {
		s.logger.Info("audio service status unavailable", "error", err)
		return
	}
	s.logger.Info("audio service status",
		"title", info.Title,
		"playlist_pos", info.PlaylistPos,
		"paused", info.Paused,
		"running", info.Running,
	)
}

// LatestEpisodes speaks the newest episode title of every configured podcast.
func (s *Skill) LatestEpisodes(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.loader.LatestTitles(ctx, s.slots)
	if len(results) == 0 {
		return s.speakDialog(ctx, dialog.NoFeeds, nil)
	}

	var (
		elements []string
		firstErr error
	)
	for _, r := range results {
		if r.Err != nil {
			s.logger.Warn("latest episode unavailable", "podcast", r.Name, "error", r.Err)
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		elements = append(elements, r.Name+": "+r.Episode)
	}

	if len(elements) == 0 {
		return s.speakDialog(ctx, failureDialog(firstErr), nil)
	}
	return s.speakDialog(ctx, dialog.LatestEpisodes, map[string]string{
		"episodes": dialog.JoinSpoken(elements),
	})
}

// LatestEpisode speaks the newest episode of the podcast named in utterance.
func (s *Skill) LatestEpisode(ctx context.Context, utterance string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, _, ok := matcher.Find(utterance, s.slots)
	if !ok {
		s.logger.Info("no podcast named in utterance", "utterance", utterance)
		return s.speakDialog(ctx, dialog.NoPodcastFound, nil)
	}

	res, err := s.loader.Load(ctx, slot.URL)
	if err != nil {
		s.logger.Warn("feed load failed", "url", slot.URL, "error", err)
		return s.speakDialog(ctx, failureDialog(err), nil)
	}
	latest, _ := res.Latest()
	return s.speakDialog(ctx, dialog.LatestEpisode, map[string]string{
		"podcast": slot.Name,
		"episode": latest.Title,
	})
}

// Stop halts playback. It reports whether anything was playing.
func (s *Skill) Stop(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.audio.IsPlaying() {
		return false, nil
	}
	if err := s.audio.Stop(ctx); err != nil {
		return false, fmt.Errorf("stop audio: %w", err)
	}
	s.logger.Info("playback stopped", "session", s.nav.SessionID)
	s.state = models.StateIdle
	s.nav = models.Navigation{}
	return true, nil
}

// Shutdown stops audio the skill started.
func (s *Skill) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.StateIdle {
		return nil
	}
	s.state = models.StateIdle
	s.nav = models.Navigation{}
	if err := s.audio.Stop(ctx); err != nil {
		return fmt.Errorf("stop audio: %w", err)
	}
	return nil
}

// Status is a snapshot of the skill's playback session.
type Status struct {
	State     models.PlaybackState `json:"state"`
	SessionID string               `json:"session_id,omitempty"`
	FeedName  string               `json:"feed_name,omitempty"`
	FeedURL   string               `json:"feed_url,omitempty"`
	Index     int                  `json:"index"`
	Episodes  int                  `json:"episodes"`
	Title     string               `json:"title,omitempty"`
}

func (s *Skill) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	title, _ := s.nav.Current()
	return Status{
		State:     s.state,
		SessionID: s.nav.SessionID,
		FeedName:  s.nav.FeedName,
		FeedURL:   s.nav.FeedURL,
		Index:     s.nav.Index,
		Episodes:  s.nav.Len(),
		Title:     title,
	}
}

// Slots returns the configured feeds.
func (s *Skill) Slots() []models.FeedSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FeedSlot(nil), s.slots...)
}

func (s *Skill) speak(ctx context.Context, text string) error {
	if err := s.speaker.Speak(ctx, text); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

func (s *Skill) speakDialog(ctx context.Context, name string, data map[string]string) error {
	text, err := s.dialogs.Render(name, data)
	if err != nil {
		return err
	}
	return s.speak(ctx, text)
}

func failureDialog(err error) string {
	if errors.Is(err, feed.ErrUnreachable) {
		return dialog.Unreachable
	}
	return dialog.BadFeed
}
