package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"staywithme/internal/modules/profile/domain"
	profileout "staywithme/internal/modules/profile/port/out"
	"staywithme/internal/platform/clock"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/id"
	"staywithme/internal/platform/tx"
)

type ProfileService struct {
	clock    clock.Clock
	idGen    id.Generator
	tx       tx.Manager
	profiles profileout.ProfileStore
	contacts profileout.ContactStore
}

func NewProfileService(clock clock.Clock, idGen id.Generator, txm tx.Manager, profiles profileout.ProfileStore, contacts profileout.ContactStore) *ProfileService {
	if txm == nil {
		txm = tx.None
	}
	return &ProfileService{clock: clock, idGen: idGen, tx: txm, profiles: profiles, contacts: contacts}
}

func (s *ProfileService) Save(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.CheckInIntervalMinutes == 0 {
		profile.CheckInIntervalMinutes = domain.DefaultIntervalMinutes
	}
	if err := profile.Validate(); err != nil {
		return domain.Profile{}, err
	}
	profile.UpdatedAt = s.clock.Now()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func (s *ProfileService) Load(ctx context.Context) (domain.Profile, error) {
	return s.profiles.Load(ctx)
}

// Interval falls back to the default when no profile has been saved yet.
func (s *ProfileService) Interval(ctx context.Context) (int, error) {
	profile, err := s.profiles.Load(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.DefaultIntervalMinutes, nil
	}
	if err != nil {
		return 0, err
	}
	if err := domain.ValidateInterval(profile.CheckInIntervalMinutes); err != nil {
		return 0, err
	}
	return profile.CheckInIntervalMinutes, nil
}

// AddContact appends the contact after the current lowest-priority entry.
func (s *ProfileService) AddContact(ctx context.Context, name, phone string) (domain.Contact, error) {
	var contact domain.Contact
	err := s.tx.Within(ctx, func(txCtx context.Context) error {
		maxPriority, err := s.contacts.MaxPriority(txCtx)
		if err != nil {
			return err
		}
		contact = domain.Contact{
			ID:        s.idGen.New(),
			Name:      strings.TrimSpace(name),
			Phone:     domain.NormalizePhone(phone),
			Priority:  maxPriority + 1,
			Active:    true,
			CreatedAt: s.clock.Now(),
		}
		if contact.Phone == "" {
			contact.Phone = phone
		}
		if err := contact.Validate(); err != nil {
			return err
		}
		return s.contacts.Insert(txCtx, contact)
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

func (s *ProfileService) Contacts(ctx context.Context, activeOnly bool) ([]domain.Contact, error) {
	contacts, err := s.contacts.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	domain.SortByPriority(contacts)
	return contacts, nil
}

func (s *ProfileService) RemoveContact(ctx context.Context, contactID string) error {
	if strings.TrimSpace(contactID) == "" {
		return fmt.Errorf("%w: contact id is required", apperrors.ErrInvalidInput)
	}
	return s.contacts.Delete(ctx, contactID)
}

func (s *ProfileService) SetContactActive(ctx context.Context, contactID string, active bool) (domain.Contact, error) {
	if strings.TrimSpace(contactID) == "" {
		return domain.Contact{}, fmt.Errorf("%w: contact id is required", apperrors.ErrInvalidInput)
	}
	if err := s.contacts.SetActive(ctx, contactID, active); err != nil {
		return domain.Contact{}, err
	}
	return s.contacts.Get(ctx, contactID)
}
