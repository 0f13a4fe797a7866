package out

import (
	"context"
	"fmt"

	notifyout "staywithme/internal/modules/notify/port/out"
	plugindto "staywithme/internal/modules/plugin/dto"
	pluginin "staywithme/internal/modules/plugin/port/in"
	apperrors "staywithme/internal/platform/errors"
)

// PluginChannel hands messages to a delivery plugin managed by the plugin
// module.
type PluginChannel struct {
	plugins pluginin.Usecase
	name    string
}

func NewPluginChannel(plugins pluginin.Usecase, name string) notifyout.MessageChannel {
	return &PluginChannel{plugins: plugins, name: name}
}

func (c *PluginChannel) Name() string { return "plugin:" + c.name }

func (c *PluginChannel) SendText(ctx context.Context, phone, body string) error {
	_, err := c.plugins.SendText(ctx, plugindto.SendTextInput{PluginName: c.name, Phone: phone, Body: body})
	if err != nil {
		return fmt.Errorf("%w: plugin %s: %v", apperrors.ErrDeliveryFailure, c.name, err)
	}
	return nil
}
