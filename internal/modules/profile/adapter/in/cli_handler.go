package in

import (
	"context"

	"staywithme/internal/modules/profile/dto"
	profilein "staywithme/internal/modules/profile/port/in"
)

type CLIHandler struct {
	usecase profilein.Usecase
}

func NewCLIHandler(usecase profilein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) SaveProfile(ctx context.Context, input dto.ProfileInput) (dto.ProfileOutput, error) {
	return h.usecase.SaveProfile(ctx, input)
}

func (h CLIHandler) GetProfile(ctx context.Context) (dto.ProfileOutput, error) {
	return h.usecase.GetProfile(ctx)
}

func (h CLIHandler) AddContact(ctx context.Context, name, phone string) (dto.ContactOutput, error) {
	return h.usecase.AddContact(ctx, dto.AddContactInput{Name: name, Phone: phone})
}

func (h CLIHandler) ListContacts(ctx context.Context, activeOnly bool) ([]dto.ContactOutput, error) {
	return h.usecase.ListContacts(ctx, activeOnly)
}

func (h CLIHandler) RemoveContact(ctx context.Context, contactID string) error {
	return h.usecase.RemoveContact(ctx, contactID)
}

func (h CLIHandler) SetContactActive(ctx context.Context, contactID string, active bool) (dto.ContactOutput, error) {
	return h.usecase.SetContactActive(ctx, contactID, active)
}
