package audio

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// fakePlayer writes a script that ignores its arguments and sleeps, standing
// in for mpv.
func fakePlayer(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("player control relies on POSIX signals")
	}
	path := filepath.Join(t.TempDir(), "fake-mpv")
	script := "#!/bin/sh\nexec sleep 30\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake player: %v", err)
	}
	return path
}

func newTestPlayer(t *testing.T) *MPV {
	t.Helper()
	m := NewMPV(Config{
		Binary:    fakePlayer(t),
		IPCSocket: filepath.Join(t.TempDir(), "mpv.sock"),
	}, nil)
	t.Cleanup(func() { _ = m.Stop(context.Background()) })
	return m
}

func TestPlayStopLifecycle(t *testing.T) {
	m := newTestPlayer(t)
	ctx := context.Background()

	if m.IsPlaying() {
		t.Fatal("expected idle player")
	}
	if err := m.Play(ctx, []string{"http://cdn.example.com/a.mp3", "http://cdn.example.com/b.mp3"}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !m.IsPlaying() {
		t.Fatal("expected playing after Play")
	}

	info, err := m.TrackInfo(ctx)
	if err != nil {
		t.Fatalf("TrackInfo failed: %v", err)
	}
	if !info.Running || info.URL != "http://cdn.example.com/a.mp3" {
		t.Errorf("TrackInfo() = %+v", info)
	}

	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if m.IsPlaying() {
		t.Error("expected idle after Stop")
	}
	if err := m.Stop(ctx); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestPauseResumeWithoutIPC(t *testing.T) {
	m := newTestPlayer(t)
	ctx := context.Background()

	if err := m.Play(ctx, []string{"http://cdn.example.com/a.mp3"}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := m.Pause(ctx); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if !m.IsPlaying() {
		t.Error("paused player still has a playlist loaded")
	}
	info, _ := m.TrackInfo(ctx)
	if !info.Paused || !info.Running {
		t.Errorf("TrackInfo() while paused = %+v", info)
	}

	if err := m.Resume(ctx); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if !m.IsPlaying() {
		t.Error("resumed player should report playing")
	}
	info, _ = m.TrackInfo(ctx)
	if info.Paused {
		t.Errorf("TrackInfo() after resume = %+v", info)
	}
}

func TestStopWhilePaused(t *testing.T) {
	m := newTestPlayer(t)
	ctx := context.Background()

	if err := m.Play(ctx, []string{"http://cdn.example.com/a.mp3"}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	done := m.done
	if err := m.Pause(ctx); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(stopGrace + time.Second):
		t.Fatal("paused player still running after Stop")
	}
	if m.IsPlaying() {
		t.Error("expected idle after Stop")
	}
}

func TestPlayReplacesPrevious(t *testing.T) {
	m := newTestPlayer(t)
	ctx := context.Background()

	if err := m.Play(ctx, []string{"http://cdn.example.com/a.mp3"}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	first := m.done
	if err := m.Play(ctx, []string{"http://cdn.example.com/b.mp3"}); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}
	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("first player still running")
	}
	if !m.IsPlaying() {
		t.Error("expected second playback running")
	}
}

func TestPlayErrors(t *testing.T) {
	m := NewMPV(Config{Binary: filepath.Join(t.TempDir(), "missing-player")}, nil)
	if err := m.Play(context.Background(), []string{"http://cdn.example.com/a.mp3"}); err == nil {
		t.Error("expected error for missing player binary")
	}
	if err := m.Play(context.Background(), nil); err == nil {
		t.Error("expected error for empty playlist")
	}
}

func TestIPCCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	socket := filepath.Join(t.TempDir(), "ipc.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadBytes('\n')
		var req ipcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			return
		}
		conn.Write([]byte(`{"event":"playback-restart"}` + "\n"))
		conn.Write([]byte(`{"data":"Episode 3","error":"success","request_id":1}` + "\n"))
	}()

	var title string
	if err := ipcGet(context.Background(), socket, "media-title", &title); err != nil {
		t.Fatalf("ipcGet failed: %v", err)
	}
	if title != "Episode 3" {
		t.Errorf("title = %q, want Episode 3", title)
	}
}
