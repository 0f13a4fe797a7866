package in

import (
	"context"

	"staywithme/internal/modules/profile/dto"
)

type Usecase interface {
	SaveProfile(ctx context.Context, input dto.ProfileInput) (dto.ProfileOutput, error)
	GetProfile(ctx context.Context) (dto.ProfileOutput, error)
	CheckInInterval(ctx context.Context) (int, error)
	AddContact(ctx context.Context, input dto.AddContactInput) (dto.ContactOutput, error)
	ListContacts(ctx context.Context, activeOnly bool) ([]dto.ContactOutput, error)
	RemoveContact(ctx context.Context, contactID string) error
	SetContactActive(ctx context.Context, contactID string, active bool) (dto.ContactOutput, error)
}
