package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/thedittmer/podcast-skill/internal/bus"
	"github.com/thedittmer/podcast-skill/internal/models"
)

const stopGrace = 3 * time.Second

type Config struct {
	Binary    string
	Args      []string
	IPCSocket string
	// Output receives the player's stdout and stderr. Nil discards them.
	Output io.Writer
}

// MPV plays episode playlists through an mpv subprocess.
type MPV struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	done   chan struct{}
	urls   []string
	paused bool
}

func NewMPV(cfg Config, logger *slog.Logger) *MPV {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "mpv"
	}
	if strings.TrimSpace(cfg.IPCSocket) == "" {
		cfg.IPCSocket = filepath.Join(os.TempDir(), "podcast-skill-mpv.sock")
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MPV{cfg: cfg, logger: logger.With("component", "audio")}
}

// Register subscribes pause and resume so the player reacts before the skill
// logs the event. Next and previous are left to the skill.
func (m *MPV) Register(b *bus.Bus) {
	b.Subscribe(bus.Pause, "audio", m.Pause)
	b.Subscribe(bus.Resume, "audio", m.Resume)
}

// Play replaces any running playback with urls as the playlist.
func (m *MPV) Play(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return errors.New("missing audio URLs")
	}
	if err := m.Stop(ctx); err != nil {
		return err
	}

	bin, err := exec.LookPath(m.cfg.Binary)
	if err != nil {
		return fmt.Errorf("find player %q: %w", m.cfg.Binary, err)
	}

	args := []string{"--no-video", "--force-window=no", "--quiet", "--input-ipc-server=" + m.cfg.IPCSocket}
	args = append(args, m.cfg.Args...)
	args = append(args, "--")
	args = append(args, urls...)

	// Playback outlives the request that started it, so no CommandContext.
	cmd := exec.Command(bin, args...)
	cmd.Stdout = m.cfg.Output
	cmd.Stderr = m.cfg.Output
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		m.logger.Debug("player exited", "pid", cmd.Process.Pid, "error", err)
		close(done)
	}()

	m.mu.Lock()
	m.cmd = cmd
	m.done = done
	m.urls = append([]string(nil), urls...)
	m.paused = false
	m.mu.Unlock()

	m.logger.Info("player started", "pid", cmd.Process.Pid, "tracks", len(urls))
	return nil
}

// Stop terminates the player, killing it if it ignores SIGTERM. Stopping when
// nothing plays is not an error.
func (m *MPV) Stop(context.Context) error {
	m.mu.Lock()
	cmd, done := m.cmd, m.done
	m.cmd, m.done, m.urls, m.paused = nil, nil, nil, false
	m.mu.Unlock()

	if cmd == nil || exited(done) {
		return nil
	}

	// A stopped process must be continued before it can handle SIGTERM.
	_ = cmd.Process.Signal(syscall.SIGCONT)
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal player: %w", err)
	}
	select {
	case <-done:
	case <-time.After(stopGrace):
		m.logger.Warn("player ignored SIGTERM, killing", "pid", cmd.Process.Pid)
		_ = cmd.Process.Kill()
		<-done
	}
	m.logger.Info("player stopped", "pid", cmd.Process.Pid)
	return nil
}

func (m *MPV) Pause(ctx context.Context) error {
	return m.setPaused(ctx, true)
}

func (m *MPV) Resume(ctx context.Context) error {
	return m.setPaused(ctx, false)
}

func (m *MPV) setPaused(ctx context.Context, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil || exited(m.done) {
		return nil
	}
	if m.paused == paused {
		return nil
	}

	if _, err := ipcCommand(ctx, m.cfg.IPCSocket, "set_property", "pause", paused); err != nil {
		// Without IPC, freeze or thaw the process instead.
		m.logger.Debug("player ipc unavailable, using signals", "error", err)
		sig := syscall.SIGCONT
		if paused {
			sig = syscall.SIGSTOP
		}
		if err := m.cmd.Process.Signal(sig); err != nil {
			return fmt.Errorf("signal player: %w", err)
		}
	}
	m.paused = paused
	m.logger.Info("player paused state changed", "paused", paused)
	return nil
}

// IsPlaying reports whether a playlist is loaded, paused or not. TrackInfo
// carries the paused flag.
func (m *MPV) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cmd != nil && !exited(m.done)
}

// TrackInfo asks mpv what it is playing, falling back to what was requested
// when the IPC socket does not answer.
func (m *MPV) TrackInfo(ctx context.Context) (models.TrackInfo, error) {
	m.mu.Lock()
	running := m.cmd != nil && !exited(m.done)
	info := models.TrackInfo{Running: running, Paused: m.paused}
	if len(m.urls) > 0 {
		info.URL = m.urls[0]
	}
	urls := m.urls
	paused := m.paused
	m.mu.Unlock()

	// A SIGSTOPped player cannot answer.
	if !running || paused {
		return info, nil
	}

	var pos int
	if err := ipcGet(ctx, m.cfg.IPCSocket, "playlist-pos", &pos); err != nil {
		m.logger.Debug("player ipc query failed", "error", err)
		return info, nil
	}
	info.PlaylistPos = pos
	if pos >= 0 && pos < len(urls) {
		info.URL = urls[pos]
	}
	_ = ipcGet(ctx, m.cfg.IPCSocket, "media-title", &info.Title)
	_ = ipcGet(ctx, m.cfg.IPCSocket, "pause", &info.Paused)
	return info, nil
}

func exited(done chan struct{}) bool {
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}
