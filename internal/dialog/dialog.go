// Package dialog renders the skill's spoken responses from named templates.
package dialog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dialogs.yaml
var defaultDialogs []byte

// Template names used by the skill.
const (
	BadFeed             = "badrss"
	Unreachable         = "unreachable"
	LatestEpisodes      = "latestEpisodes"
	LatestEpisode       = "latestEpisode"
	NoPodcastFound      = "nopodcastfound"
	LatestEpisodeNotice = "latestepisodenotice"
	NoMoreEpisodes      = "nomoreepisodes"
	NoFeeds             = "nofeeds"
)

var ErrUnknownTemplate = errors.New("unknown dialog template")

type Renderer struct {
	templates map[string][]string
	pick      func(n int) int
}

// Default returns a renderer over the embedded templates.
func Default() *Renderer {
	r, err := parse(defaultDialogs)
	if err != nil {
		panic(fmt.Sprintf("embedded dialogs: %v", err))
	}
	return r
}

// LoadFile reads templates from path. Templates missing from the file fall back
// to the embedded set.
func LoadFile(path string) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialogs: %w", err)
	}
	override, err := parse(data)
	if err != nil {
		return nil, err
	}
	r := Default()
	for name, variants := range override.templates {
		r.templates[name] = variants
	}
	return r, nil
}

func parse(data []byte) (*Renderer, error) {
	var templates map[string][]string
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parse dialogs: %w", err)
	}
	for name, variants := range templates {
		if len(variants) == 0 {
			return nil, fmt.Errorf("dialog %q has no variants", name)
		}
	}
	return &Renderer{templates: templates, pick: rand.IntN}, nil
}

// WithPicker replaces the variant chooser; tests pin it to a fixed index.
func (r *Renderer) WithPicker(pick func(n int) int) *Renderer {
	r.pick = pick
	return r
}

// Render fills one variant of the named template with data.
func (r *Renderer) Render(name string, data map[string]string) (string, error) {
	variants, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	text := variants[r.pick(len(variants))]
	for key, value := range data {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text, nil
}

// JoinSpoken joins items the way they are read aloud: "a, b and c".
func JoinSpoken(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	head := items[:len(items)-2]
	tail := items[len(items)-2] + " and " + items[len(items)-1]
	return strings.Join(append(append([]string{}, head...), tail), ", ")
}
