package out

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	notifyout "staywithme/internal/modules/notify/port/out"
	"staywithme/internal/platform/clock"
)

// OutboxMessage is one line of the outbox file.
type OutboxMessage struct {
	To     string    `json:"to"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// FileOutboxChannel appends messages to a JSON-lines file instead of sending
// them. It is the default channel so a fresh install never texts anyone by
// accident.
type FileOutboxChannel struct {
	path  string
	clock clock.Clock
	mu    sync.Mutex
}

func NewFileOutboxChannel(path string, clk clock.Clock) *FileOutboxChannel {
	return &FileOutboxChannel{path: path, clock: clk}
}

var _ notifyout.MessageChannel = (*FileOutboxChannel)(nil)

func (c *FileOutboxChannel) Name() string { return "outbox" }

func (c *FileOutboxChannel) SendText(ctx context.Context, phone, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create outbox dir: %w", err)
	}
	file, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer file.Close()
	payload, err := json.Marshal(OutboxMessage{To: phone, Body: body, SentAt: c.clock.Now()})
	if err != nil {
		return fmt.Errorf("encode outbox message: %w", err)
	}
	if _, err := file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

// Tail returns up to limit of the most recent messages, oldest first.
func (c *FileOutboxChannel) Tail(_ context.Context, limit int) ([]OutboxMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	file, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []OutboxMessage{}, nil
		}
		return nil, fmt.Errorf("open outbox: %w", err)
	}
	defer file.Close()

	buffer := make([]OutboxMessage, 0, limit)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg := OutboxMessage{}
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		if len(buffer) < limit {
			buffer = append(buffer, msg)
			continue
		}
		copy(buffer, buffer[1:])
		buffer[len(buffer)-1] = msg
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan outbox: %w", err)
	}
	return buffer, nil
}
