package config

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/thedittmer/podcast-skill/internal/models"
)

//go:embed sample_config.toml
var sampleConfig string

// Player configures the mpv audio service.
type Player struct {
	Binary    string   `toml:"binary"`
	Args      []string `toml:"args"`
	IPCSocket string   `toml:"ipc_socket"`
}

// Speech configures an optional text-to-speech command.
type Speech struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Server configures the HTTP host.
type Server struct {
	Bind string `toml:"bind"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Sheets configures the Google Sheets export of the latest-episodes report.
type Sheets struct {
	CredentialsFile string `toml:"credentials_file"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	FolderID        string `toml:"folder_id"`
}

type Config struct {
	NameOne   string `toml:"name_one"`
	FeedOne   string `toml:"feed_one"`
	NameTwo   string `toml:"name_two"`
	FeedTwo   string `toml:"feed_two"`
	NameThree string `toml:"name_three"`
	FeedThree string `toml:"feed_three"`
	FeedsFile string `toml:"feeds_file"`

	UserAgent           string `toml:"user_agent"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	FetchRetries        int    `toml:"fetch_retries"`

	DataDir    string `toml:"data_dir"`
	DialogFile string `toml:"dialog_file"`

	Player Player `toml:"player"`
	Speech Speech `toml:"speech"`
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`
	Sheets Sheets `toml:"sheets"`

	// slots holds the resolved feed slots after normalize.
	slots []models.FeedSlot
}

const (
	defaultFetchTimeout = 15
	defaultFetchRetries = 1
	defaultBind         = "127.0.0.1:8765"
)

func Default() Config {
	return Config{
		FetchTimeoutSeconds: defaultFetchTimeout,
		FetchRetries:        defaultFetchRetries,
		DataDir:             defaultDataDir(),
		Player:              Player{Binary: "mpv"},
		Server:              Server{Bind: defaultBind},
		Log:                 Log{Level: "info", Format: "console"},
	}
}

// DefaultPath is the config file location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "podcast-skill.toml"
	}
	return filepath.Join(dir, "podcast-skill", "config.toml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".podcast-skill"
	}
	return filepath.Join(home, ".podcast-skill")
}

// Load reads the config at path, or DefaultPath when path is empty. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the commented sample config to path.
func WriteSample(path string) error {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	if c.FetchTimeoutSeconds == 0 {
		c.FetchTimeoutSeconds = defaultFetchTimeout
	}
	c.DataDir = expandHome(strings.TrimSpace(c.DataDir))
	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}
	c.DialogFile = expandHome(strings.TrimSpace(c.DialogFile))
	c.FeedsFile = expandHome(strings.TrimSpace(c.FeedsFile))
	c.Player.IPCSocket = expandHome(strings.TrimSpace(c.Player.IPCSocket))
	c.Sheets.CredentialsFile = expandHome(strings.TrimSpace(c.Sheets.CredentialsFile))
	if strings.TrimSpace(c.Player.Binary) == "" {
		c.Player.Binary = "mpv"
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		c.Server.Bind = defaultBind
	}
	if c.Sheets.CredentialsFile == "" {
		c.Sheets.CredentialsFile = filepath.Join(c.DataDir, "credentials.json")
	}

	c.slots = []models.FeedSlot{
		{Name: strings.TrimSpace(c.NameOne), URL: strings.TrimSpace(c.FeedOne)},
		{Name: strings.TrimSpace(c.NameTwo), URL: strings.TrimSpace(c.FeedTwo)},
		{Name: strings.TrimSpace(c.NameThree), URL: strings.TrimSpace(c.FeedThree)},
	}

	if c.FeedsFile != "" {
		extra, err := LoadFeedsFromFile(c.FeedsFile)
		if err != nil {
			return fmt.Errorf("load feeds file: %w", err)
		}
		c.slots = fillSlots(c.slots, extra)
	}
	return nil
}

// fillSlots puts extra feeds into the empty slots, in order.
func fillSlots(slots, extra []models.FeedSlot) []models.FeedSlot {
	out := append([]models.FeedSlot(nil), slots...)
	next := 0
	for i := range out {
		if next >= len(extra) {
			break
		}
		if out[i].Empty() {
			out[i] = extra[next]
			next++
		}
	}
	return out
}

// Validate checks the normalized configuration.
func (c *Config) Validate() error {
	var errs []error
	for i, slot := range c.slots {
		if strings.TrimSpace(slot.Name) == "" {
			continue
		}
		if strings.TrimSpace(slot.URL) == "" {
			errs = append(errs, fmt.Errorf("slot %d (%s) has a name but no feed URL", i+1, slot.Name))
			continue
		}
		if err := validateFeedURL(slot.URL); err != nil {
			errs = append(errs, fmt.Errorf("slot %d (%s): %w", i+1, slot.Name, err))
		}
	}
	if c.FetchTimeoutSeconds < 0 {
		errs = append(errs, errors.New("fetch_timeout_seconds must be positive"))
	}
	if c.FetchRetries < 0 || c.FetchRetries > 1 {
		errs = append(errs, errors.New("fetch_retries must be 0 or 1"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported value %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func validateFeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid feed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid feed url %q (must start with http:// or https://)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid feed url %q (missing host)", raw)
	}
	return nil
}

// Slots returns the three feed slots; unconfigured slots are empty.
func (c *Config) Slots() []models.FeedSlot {
	return append([]models.FeedSlot(nil), c.slots...)
}

// FetchTimeout is the per-attempt feed request timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// LoadFeedsFromFile reads "Name | URL" lines. Blank lines and lines starting
// with # are skipped. At most MaxSlots feeds are returned.
func LoadFeedsFromFile(filename string) ([]models.FeedSlot, error) {
	var feeds []models.FeedSlot

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, feedURL, ok := strings.Cut(line, "|")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"name | url\"", lineNum)
		}
		slot := models.FeedSlot{Name: strings.TrimSpace(name), URL: strings.TrimSpace(feedURL)}
		if err := validateFeedURL(slot.URL); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		feeds = append(feeds, slot)
		if len(feeds) == models.MaxSlots {
			break
		}
	}

	return feeds, scanner.Err()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
