package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	pluginrpc "staywithme/internal/modules/plugin/adapter/out/rpc"
	"staywithme/internal/modules/plugin/domain"
	pluginout "staywithme/internal/modules/plugin/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const startTimeout = 3 * time.Second

// GRPCHost starts a fresh plugin process for every call and kills it when the
// call returns. Nothing is kept running between escalation messages.
type GRPCHost struct {
	logger hclog.Logger
}

func NewGRPCHost(logger hclog.Logger) pluginout.Host {
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel})
	}
	return &GRPCHost{logger: logger}
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	var out domain.Metadata
	err := h.call(ctx, manifest, func(callCtx context.Context, client pluginrpc.DeliveryPluginClient) error {
		meta, err := client.GetMetadata(callCtx)
		if err != nil {
			return fmt.Errorf("get metadata: %w", err)
		}
		out = domain.Metadata{Name: meta.Name, Version: meta.Version}
		for _, c := range meta.Capabilities {
			out.Capabilities = append(out.Capabilities, domain.Capability(c))
		}
		return nil
	})
	return out, err
}

func (h *GRPCHost) SendText(ctx context.Context, manifest domain.Manifest, message domain.Message) (domain.Receipt, error) {
	var out domain.Receipt
	err := h.call(ctx, manifest, func(callCtx context.Context, client pluginrpc.DeliveryPluginClient) error {
		resp, err := client.SendText(callCtx, &pluginrpc.SendTextRequest{To: message.To, Body: message.Body})
		if err != nil {
			return fmt.Errorf("send text: %w", err)
		}
		out = domain.Receipt{MessageID: resp.MessageID, Accepted: resp.Accepted, Detail: resp.Detail}
		return nil
	})
	return out, err
}

// call bounds fn by the manifest's send timeout unless ctx already carries a
// tighter deadline.
func (h *GRPCHost) call(ctx context.Context, manifest domain.Manifest, fn func(context.Context, pluginrpc.DeliveryPluginClient) error) error {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.CommandContext(ctx, manifest.Binary),
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           h.logger.Named(manifest.Name),
	})
	defer client.Kill()

	protocol, err := client.Client()
	if err != nil {
		return fmt.Errorf("start plugin %s: %w", manifest.Name, err)
	}
	raw, err := protocol.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		return fmt.Errorf("dispense plugin %s: %w", manifest.Name, err)
	}
	delivery, ok := raw.(pluginrpc.DeliveryPluginClient)
	if !ok {
		return fmt.Errorf("plugin %s: unexpected client type %T", manifest.Name, raw)
	}

	callCtx, cancel := context.WithTimeout(ctx, manifest.Timeout())
	defer cancel()
	if err := fn(callCtx, delivery); err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return err
	}
	return nil
}
