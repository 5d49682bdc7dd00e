package skill

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/thedittmer/podcast-skill/internal/audio"
	"github.com/thedittmer/podcast-skill/internal/bus"
	"github.com/thedittmer/podcast-skill/internal/dialog"
	"github.com/thedittmer/podcast-skill/internal/models"
)

// newPlayerFixture wires the skill to the mpv adapter driving a sleeping
// stand-in binary, subscribed to the bus the way serve does it.
func newPlayerFixture(t *testing.T) (*Skill, *audio.MPV, *bus.Bus, *fakeSpeaker) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("player control relies on POSIX signals")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-mpv")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755); err != nil {
		t.Fatalf("write fake player: %v", err)
	}

	player := audio.NewMPV(audio.Config{Binary: bin, IPCSocket: filepath.Join(dir, "mpv.sock")}, nil)
	t.Cleanup(func() { _ = player.Stop(context.Background()) })

	f := newFixture(t, defaultSlots()...)
	speaker := &fakeSpeaker{}
	s, err := New(Options{
		Slots:        defaultSlots(),
		Audio:        player,
		Speaker:      speaker,
		Loader:       f.loader,
		Dialogs:      dialog.Default().WithPicker(func(int) int { return 0 }),
		NewSessionID: func() string { return "session-1" },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	b := bus.New(nil)
	player.Register(b)
	s.Register(b)
	return s, player, b, speaker
}

func TestStopAfterPause(t *testing.T) {
	s, player, b, _ := newPlayerFixture(t)
	ctx := context.Background()

	if _, err := s.Play(ctx, "play tech talk"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := b.Publish(ctx, bus.Pause); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	stopped, err := s.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !stopped {
		t.Error("Stop should report the paused session as stopped")
	}
	if player.IsPlaying() {
		t.Error("player still running after Stop")
	}
	if st := s.Status(); st.State != models.StateIdle {
		t.Errorf("state = %s, want idle", st.State)
	}
}

func TestNavigateWhilePaused(t *testing.T) {
	s, _, b, speaker := newPlayerFixture(t)
	ctx := context.Background()

	if _, err := s.Play(ctx, "play tech talk"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := b.Publish(ctx, bus.Pause); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if err := b.Publish(ctx, bus.Previous); err != nil {
		t.Fatalf("previous failed: %v", err)
	}
	if speaker.last() != "tech-2" {
		t.Errorf("announced %q, want tech-2", speaker.last())
	}
}
