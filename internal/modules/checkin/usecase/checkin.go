package usecase

import (
	"context"
	"time"

	"staywithme/internal/modules/checkin/domain"
	"staywithme/internal/modules/checkin/dto"
	checkinin "staywithme/internal/modules/checkin/port/in"
	"staywithme/internal/modules/checkin/service"
)

type Interactor struct {
	sessions    *service.SessionService
	coordinator *service.Coordinator
}

func NewInteractor(sessions *service.SessionService, coordinator *service.Coordinator) checkinin.Usecase {
	return &Interactor{sessions: sessions, coordinator: coordinator}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error) {
	session, err := i.sessions.Start(ctx, input.Duration, input.Substances, input.Notes)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return toSessionOutput(session), nil
}

func (i *Interactor) End(ctx context.Context) (dto.SessionOutput, error) {
	session, err := i.sessions.End(ctx)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return toSessionOutput(session), nil
}

func (i *Interactor) Complete(ctx context.Context, sessionID string) (bool, error) {
	return i.sessions.Complete(ctx, sessionID)
}

func (i *Interactor) Confirm(ctx context.Context, sessionID string) (dto.StatusOutput, error) {
	if sessionID == "" {
		active, err := i.sessions.Active(ctx)
		if err != nil {
			return dto.StatusOutput{}, err
		}
		sessionID = active.ID
	}
	if _, err := i.coordinator.Confirm(ctx, sessionID); err != nil {
		return dto.StatusOutput{}, err
	}
	return i.Status(ctx)
}

func (i *Interactor) Evaluate(ctx context.Context, sessionID string, source string) (dto.EvaluateOutput, error) {
	if sessionID == "" {
		active, err := i.sessions.Active(ctx)
		if err != nil {
			return dto.EvaluateOutput{}, err
		}
		sessionID = active.ID
	}
	outcome, err := i.coordinator.Evaluate(ctx, sessionID, domain.Source(source))
	if err != nil {
		return dto.EvaluateOutput{}, err
	}
	return dto.EvaluateOutput{
		SessionID:     outcome.SessionID,
		Source:        string(outcome.Source),
		PreviousLevel: int(outcome.Previous),
		Level:         int(outcome.Level),
		Dispatched:    outcome.Dispatched,
		Expired:       outcome.Expired,
	}, nil
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	session, interval, now, err := i.sessions.Status(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	return toStatusOutput(session, interval, now), nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.SessionOutput, error) {
	sessions, err := i.sessions.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionOutput(s))
	}
	return out, nil
}

func (i *Interactor) RefreshLocation(ctx context.Context) (bool, error) {
	return i.sessions.RefreshLocation(ctx)
}

func toStatusOutput(session domain.Session, interval int, now time.Time) dto.StatusOutput {
	plan := domain.PlanFor(session, interval)
	elapsed := session.Elapsed(now)
	if elapsed < 0 {
		elapsed = 0
	}
	return dto.StatusOutput{
		Session:          toSessionOutput(session),
		IntervalMinutes:  interval,
		Elapsed:          elapsed,
		Remaining:        session.Remaining(now),
		Expired:          session.Expired(now),
		Level:            int(session.Level),
		LevelName:        session.Level.String(),
		NextCheckInAt:    plan.NextCheckInAt,
		UrgentAt:         plan.UrgentAt,
		CheckInReachable: plan.CheckInReachable,
		UrgentReachable:  plan.UrgentReachable,
		FullCycle:        plan.FullCycle,
		At:               now,
	}
}

func toSessionOutput(s domain.Session) dto.SessionOutput {
	return dto.SessionOutput{
		ID:              s.ID,
		StartedAt:       s.StartedAt,
		EndsAt:          s.EndsAt(),
		Duration:        s.Duration,
		Active:          s.Active,
		Level:           int(s.Level),
		LastConfirmedAt: s.LastConfirmedAt,
		EndedAt:         s.EndedAt,
		Location:        s.Location,
		Substances:      s.Substances,
		Notes:           s.Notes,
	}
}
