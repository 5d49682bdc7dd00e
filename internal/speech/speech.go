// Package speech provides the speakers the skill talks through.
package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/thedittmer/podcast-skill/internal/ui"
)

// Terminal prints each spoken line, styled when out is a terminal. When a
// text-to-speech command is configured the line is also piped to it.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	styled  bool
	command string
	args    []string
	logger  *slog.Logger
}

type TerminalOptions struct {
	Out io.Writer
	// Command, if set, receives each line on stdin (e.g. "espeak").
	Command string
	Args    []string
	Logger  *slog.Logger
}

func NewTerminal(opts TerminalOptions) *Terminal {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Terminal{
		out:     opts.Out,
		styled:  IsTerminal(opts.Out),
		command: strings.TrimSpace(opts.Command),
		args:    opts.Args,
		logger:  opts.Logger,
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) Speak(ctx context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := text
	if t.styled {
		line = ui.Spoken(text)
	}
	if _, err := fmt.Fprintln(t.out, line); err != nil {
		return fmt.Errorf("write speech: %w", err)
	}

	if t.command == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, t.command, t.args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.logger.Warn("text-to-speech failed", "command", t.command, "error", err, "output", strings.TrimSpace(string(out)))
		return fmt.Errorf("run %s: %w", t.command, err)
	}
	return nil
}

// Recorder collects spoken lines. The HTTP host uses one per request so
// responses can carry what the skill said.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *Recorder) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
	return nil
}

// Drain returns the recorded lines and clears the recorder.
func (r *Recorder) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.lines
	r.lines = nil
	return lines
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Tee speaks through every speaker in order, stopping at the first error.
type Tee []Speaker

func (t Tee) Speak(ctx context.Context, text string) error {
	for _, s := range t {
		if err := s.Speak(ctx, text); err != nil {
			return err
		}
	}
	return nil
}
