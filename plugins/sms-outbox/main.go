// Command sms-outbox is a delivery plugin that appends every message to a
// JSON-lines file instead of sending it, in the same format as the built-in
// outbox channel. Point STAYWITHME_PLUGIN_OUTBOX at the file to use for drills.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	pluginrpc "staywithme/internal/modules/plugin/adapter/out/rpc"

	"github.com/google/uuid"
	"github.com/hashicorp/go-plugin"
)

const (
	outboxEnv     = "STAYWITHME_PLUGIN_OUTBOX"
	defaultOutbox = "sms-outbox.jsonl"
	pluginName    = "sms-outbox"
	pluginVersion = "1.0.0"
)

type record struct {
	ID     string    `json:"id"`
	To     string    `json:"to"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type outboxPlugin struct {
	mu   sync.Mutex
	path string
}

func (p *outboxPlugin) GetMetadata(context.Context, *pluginrpc.Empty) (*pluginrpc.Metadata, error) {
	return &pluginrpc.Metadata{Name: pluginName, Version: pluginVersion, Capabilities: []string{"sms"}}, nil
}

func (p *outboxPlugin) SendText(ctx context.Context, in *pluginrpc.SendTextRequest) (*pluginrpc.SendTextResponse, error) {
	if strings.TrimSpace(in.To) == "" {
		return &pluginrpc.SendTextResponse{Detail: "missing recipient"}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := record{ID: uuid.NewString(), To: in.To, Body: in.Body, SentAt: time.Now().UTC()}
	if err := p.append(rec); err != nil {
		return nil, err
	}
	return &pluginrpc.SendTextResponse{MessageID: rec.ID, Accepted: true}, nil
}

func (p *outboxPlugin) append(rec record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode outbox record: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

func main() {
	path := os.Getenv(outboxEnv)
	if path == "" {
		path = defaultOutbox
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(&outboxPlugin{path: path}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
