package in

import (
	"context"

	"staywithme/internal/modules/plugin/dto"
	pluginin "staywithme/internal/modules/plugin/port/in"
)

type CLIHandler struct {
	usecase pluginin.Usecase
}

func NewCLIHandler(usecase pluginin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

func (h CLIHandler) Send(ctx context.Context, pluginName, phone, body string) (dto.SendTextOutput, error) {
	return h.usecase.SendText(ctx, dto.SendTextInput{PluginName: pluginName, Phone: phone, Body: body})
}
