package dialog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRender(t *testing.T) {
	r := Default().WithPicker(func(int) int { return 0 })

	got, err := r.Render(LatestEpisode, map[string]string{"podcast": "Tech Talk", "episode": "Episode 3"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "The latest episode of Tech Talk is Episode 3."
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderEveryTemplate(t *testing.T) {
	r := Default()
	for _, name := range []string{BadFeed, Unreachable, LatestEpisodes, LatestEpisode, NoPodcastFound, LatestEpisodeNotice, NoMoreEpisodes, NoFeeds} {
		if _, err := r.Render(name, nil); err != nil {
			t.Errorf("Render(%q) failed: %v", name, err)
		}
	}
}

func TestRenderUnknown(t *testing.T) {
	_, err := Default().Render("nope", nil)
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialogs.yaml")
	content := "nopodcastfound:\n  - \"Never heard of it.\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write dialogs: %v", err)
	}

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	got, _ := r.Render(NoPodcastFound, nil)
	if got != "Never heard of it." {
		t.Errorf("override not applied, got %q", got)
	}
	if _, err := r.Render(NoMoreEpisodes, nil); err != nil {
		t.Errorf("embedded template missing after override: %v", err)
	}
}

func TestLoadFileRejectsEmptyTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialogs.yaml")
	if err := os.WriteFile(path, []byte("badrss: []\n"), 0644); err != nil {
		t.Fatalf("write dialogs: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for template without variants")
	}
}

func TestJoinSpoken(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"empty", nil, ""},
		{"one", []string{"a: x"}, "a: x"},
		{"two", []string{"a: x", "b: y"}, "a: x and b: y"},
		{"three", []string{"a: x", "b: y", "c: z"}, "a: x, b: y and c: z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinSpoken(tt.items); got != tt.want {
				t.Errorf("JoinSpoken() = %q, want %q", got, tt.want)
			}
		})
	}
}
