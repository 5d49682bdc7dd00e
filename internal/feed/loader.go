package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/thedittmer/podcast-skill/internal/models"
)

// DefaultUserAgent is sent with every feed request; some podcast hosts refuse
// clients that do not look like a browser.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.11 (KHTML, like Gecko) Chrome/23.0.1271.64 Safari/537.11"

const (
	defaultTimeout = 15 * time.Second
	retryBackoff   = 500 * time.Millisecond
	maxErrorBody   = 2048
)

type Config struct {
	UserAgent string
	Timeout   time.Duration
	Retries   int
	Client    *http.Client
}

type Loader struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{cfg: cfg, client: client, logger: logger}
}

// Result is a parsed feed.
type Result struct {
	Title    string
	Episodes []models.Episode
}

// Latest returns the newest episode.
func (r Result) Latest() (models.Episode, bool) {
	if len(r.Episodes) == 0 {
		return models.Episode{}, false
	}
	return r.Episodes[0], true
}

// Load fetches feedURL and parses it into an episode list in feed order.
// Failures are returned as *Error so callers can tell a bad feed from an
// unreachable host.
func (l *Loader) Load(ctx context.Context, feedURL string) (Result, error) {
	body, err := l.fetchWithRetry(ctx, feedURL)
	if err != nil {
		return Result{}, err
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return Result{}, &Error{Kind: KindBadFeed, URL: feedURL, Err: err}
	}

	res := Result{Title: parsed.Title}
	skipped := 0
	for _, item := range parsed.Items {
		ep, ok := episodeFromItem(item)
		if !ok {
			skipped++
			continue
		}
		res.Episodes = append(res.Episodes, ep)
	}

	if len(res.Episodes) == 0 {
		return Result{}, &Error{Kind: KindBadFeed, URL: feedURL, Err: errNoEpisodes}
	}

	l.logger.Debug("feed parsed",
		"url", feedURL,
		"title", res.Title,
		"episodes", len(res.Episodes),
		"skipped", skipped,
	)
	return res, nil
}

func episodeFromItem(item *gofeed.Item) (models.Episode, bool) {
	if item == nil || len(item.Enclosures) == 0 {
		return models.Episode{}, false
	}
	audioURL := strings.TrimSpace(item.Enclosures[0].URL)
	if audioURL == "" {
		return models.Episode{}, false
	}
	ep := models.Episode{
		Title:       strings.TrimSpace(item.Title),
		AudioURL:    audioURL,
		Description: item.Description,
	}
	if item.PublishedParsed != nil {
		ep.Published = *item.PublishedParsed
	}
	return ep, true
}

func (l *Loader) fetchWithRetry(ctx context.Context, feedURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= l.cfg.Retries; attempt++ {
		if attempt > 0 {
			l.logger.Warn("retrying feed fetch", "url", feedURL, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, &Error{Kind: KindUnreachable, URL: feedURL, Err: ctx.Err()}
			case <-time.After(retryBackoff):
			}
		}

		body, retry, err := l.fetch(ctx, feedURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, &Error{Kind: KindUnreachable, URL: feedURL, Err: lastErr}
}

// fetch performs one bounded GET. The bool result reports whether the failure
// is worth retrying.
func (l *Loader) fetch(ctx context.Context, feedURL string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, !errors.Is(err, context.Canceled), fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("unexpected status: %d %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return nil, resp.StatusCode >= 500, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

// SlotTitle is the newest episode title of one configured slot.
type SlotTitle struct {
	Slot    int
	Name    string
	Episode string
	Err     error
}

// LatestTitles fetches the newest episode of every configured slot. Results
// keep slot order; a failing slot carries its error instead of aborting the rest.
func (l *Loader) LatestTitles(ctx context.Context, slots []models.FeedSlot) []SlotTitle {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[int]SlotTitle, len(slots))
	)

	for i, slot := range slots {
		if slot.Empty() {
			continue
		}
		wg.Add(1)
		go func(i int, slot models.FeedSlot) {
			defer wg.Done()
			st := SlotTitle{Slot: i, Name: slot.Name}
			res, err := l.Load(ctx, slot.URL)
			if err != nil {
				st.Err = err
			} else if latest, ok := res.Latest(); ok {
				st.Episode = latest.Title
			}

			mu.Lock()
			results[i] = st
			mu.Unlock()
		}(i, slot)
	}
	wg.Wait()

	out := make([]SlotTitle, 0, len(results))
	for i := range slots {
		if st, ok := results[i]; ok {
			out = append(out, st)
		}
	}
	return out
}
