package usecase

import (
	"context"

	"staywithme/internal/modules/plugin/dto"
	pluginin "staywithme/internal/modules/plugin/port/in"
	"staywithme/internal/modules/plugin/service"
)

type Interactor struct {
	svc *service.PluginService
}

func NewInteractor(svc *service.PluginService) pluginin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) SendText(ctx context.Context, input dto.SendTextInput) (dto.SendTextOutput, error) {
	return i.svc.SendText(ctx, input)
}
