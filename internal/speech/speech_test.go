package speech

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestTerminalPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewTerminal(TerminalOptions{Out: &buf})

	if err := s.Speak(context.Background(), "Episode 3"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if buf.String() != "Episode 3\n" {
		t.Errorf("output = %q, want plain line", buf.String())
	}
}

func TestTerminalCommandFailure(t *testing.T) {
	var buf bytes.Buffer
	s := NewTerminal(TerminalOptions{Out: &buf, Command: "definitely-not-a-tts-binary"})

	if err := s.Speak(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from missing speech command")
	}
	if buf.String() != "hello\n" {
		t.Errorf("line should still be printed, got %q", buf.String())
	}
}

func TestRecorderDrain(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	r.Speak(ctx, "one")
	r.Speak(ctx, "two")

	lines := r.Drain()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("Drain() = %v", lines)
	}
	if len(r.Drain()) != 0 {
		t.Error("Drain should clear the recorder")
	}
}

type failingSpeaker struct{}

func (failingSpeaker) Speak(context.Context, string) error { return errors.New("muted") }

func TestTee(t *testing.T) {
	var a, b Recorder
	tee := Tee{&a, &b}
	if err := tee.Speak(context.Background(), "hi"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if len(a.Drain()) != 1 || len(b.Drain()) != 1 {
		t.Error("expected both speakers to receive the line")
	}

	var c Recorder
	tee = Tee{failingSpeaker{}, &c}
	if err := tee.Speak(context.Background(), "hi"); err == nil {
		t.Error("expected error from failing speaker")
	}
	if len(c.Drain()) != 0 {
		t.Error("speakers after a failure should not run")
	}
}
