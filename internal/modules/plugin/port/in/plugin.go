package in

import (
	"context"

	"staywithme/internal/modules/plugin/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.PluginInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	SendText(ctx context.Context, input dto.SendTextInput) (dto.SendTextOutput, error)
}
