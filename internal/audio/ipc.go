package audio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

const ipcTimeout = time.Second

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

type ipcResponse struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID int             `json:"request_id"`
	Event     string          `json:"event"`
}

const ipcRequestID = 1

// ipcCommand sends one command over mpv's JSON IPC socket and returns the data
// of the matching reply. Event lines interleaved with replies are skipped.
func ipcCommand(ctx context.Context, socket string, command ...any) (json.RawMessage, error) {
	deadline := time.Now().Add(ipcTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, fmt.Errorf("dial ipc: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set ipc deadline: %w", err)
	}

	req, err := json.Marshal(ipcRequest{Command: command, RequestID: ipcRequestID})
	if err != nil {
		return nil, fmt.Errorf("encode ipc request: %w", err)
	}
	if _, err := conn.Write(append(req, '\n')); err != nil {
		return nil, fmt.Errorf("write ipc request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			return nil, fmt.Errorf("decode ipc reply: %w", err)
		}
		if resp.Event != "" || resp.RequestID != ipcRequestID {
			continue
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ipc reply: %w", err)
	}
	return nil, errors.New("ipc connection closed before reply")
}

func ipcGet(ctx context.Context, socket, property string, dst any) error {
	data, err := ipcCommand(ctx, socket, "get_property", property)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", property, err)
	}
	return nil
}
