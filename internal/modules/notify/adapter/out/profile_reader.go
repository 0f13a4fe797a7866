package out

import (
	"context"

	"staywithme/internal/modules/notify/domain"
	notifyout "staywithme/internal/modules/notify/port/out"
	profilein "staywithme/internal/modules/profile/port/in"
)

// ProfileReader exposes the user profile and contact list to the dispatcher.
type ProfileReader struct {
	profiles profilein.Usecase
}

func NewProfileReader(profiles profilein.Usecase) notifyout.ProfileReader {
	return &ProfileReader{profiles: profiles}
}

func (r *ProfileReader) MessageProfile(ctx context.Context) (domain.MessageContext, error) {
	p, err := r.profiles.GetProfile(ctx)
	if err != nil {
		return domain.MessageContext{}, err
	}
	return domain.MessageContext{Name: p.Name, MedicalInfo: p.MedicalInfo, AlertTemplate: p.AlertTemplate}, nil
}

// ActiveRecipients returns enabled contacts in priority order.
func (r *ProfileReader) ActiveRecipients(ctx context.Context) ([]domain.Recipient, error) {
	contacts, err := r.profiles.ListContacts(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Recipient, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, domain.Recipient{ContactID: c.ID, Name: c.Name, Phone: c.Phone})
	}
	return out, nil
}
