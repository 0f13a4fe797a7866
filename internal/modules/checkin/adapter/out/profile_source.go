package out

import (
	"context"
	"errors"
	"strings"

	checkinout "staywithme/internal/modules/checkin/port/out"
	profilein "staywithme/internal/modules/profile/port/in"
	apperrors "staywithme/internal/platform/errors"
)

type ProfileSource struct {
	profiles profilein.Usecase
}

func NewProfileSource(profiles profilein.Usecase) checkinout.ProfileSource {
	return &ProfileSource{profiles: profiles}
}

func (p *ProfileSource) CheckInInterval(ctx context.Context) (int, error) {
	return p.profiles.CheckInInterval(ctx)
}

func (p *ProfileSource) HasProfile(ctx context.Context) (bool, error) {
	profile, err := p.profiles.GetProfile(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(profile.Name) != "", nil
}
