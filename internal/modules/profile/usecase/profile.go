package usecase

import (
	"context"

	"staywithme/internal/modules/profile/domain"
	"staywithme/internal/modules/profile/dto"
	profilein "staywithme/internal/modules/profile/port/in"
	"staywithme/internal/modules/profile/service"
)

type Interactor struct {
	svc *service.ProfileService
}

func NewInteractor(svc *service.ProfileService) profilein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) SaveProfile(ctx context.Context, input dto.ProfileInput) (dto.ProfileOutput, error) {
	saved, err := i.svc.Save(ctx, domain.Profile{
		Name:                   input.Name,
		MedicalInfo:            input.MedicalInfo,
		Notes:                  input.Notes,
		AlertTemplate:          input.AlertTemplate,
		CheckInIntervalMinutes: input.CheckInIntervalMinutes,
	})
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toProfileOutput(saved), nil
}

func (i *Interactor) GetProfile(ctx context.Context) (dto.ProfileOutput, error) {
	profile, err := i.svc.Load(ctx)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toProfileOutput(profile), nil
}

func (i *Interactor) CheckInInterval(ctx context.Context) (int, error) {
	return i.svc.Interval(ctx)
}

func (i *Interactor) AddContact(ctx context.Context, input dto.AddContactInput) (dto.ContactOutput, error) {
	contact, err := i.svc.AddContact(ctx, input.Name, input.Phone)
	if err != nil {
		return dto.ContactOutput{}, err
	}
	return toContactOutput(contact), nil
}

func (i *Interactor) ListContacts(ctx context.Context, activeOnly bool) ([]dto.ContactOutput, error) {
	contacts, err := i.svc.Contacts(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ContactOutput, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toContactOutput(c))
	}
	return out, nil
}

func (i *Interactor) RemoveContact(ctx context.Context, contactID string) error {
	return i.svc.RemoveContact(ctx, contactID)
}

func (i *Interactor) SetContactActive(ctx context.Context, contactID string, active bool) (dto.ContactOutput, error) {
	contact, err := i.svc.SetContactActive(ctx, contactID, active)
	if err != nil {
		return dto.ContactOutput{}, err
	}
	return toContactOutput(contact), nil
}

func toProfileOutput(p domain.Profile) dto.ProfileOutput {
	return dto.ProfileOutput{
		Name:                   p.Name,
		MedicalInfo:            p.MedicalInfo,
		Notes:                  p.Notes,
		AlertTemplate:          p.AlertTemplate,
		CheckInIntervalMinutes: p.CheckInIntervalMinutes,
		UpdatedAt:              p.UpdatedAt,
	}
}

func toContactOutput(c domain.Contact) dto.ContactOutput {
	return dto.ContactOutput{ID: c.ID, Name: c.Name, Phone: c.Phone, Priority: c.Priority, Active: c.Active}
}
