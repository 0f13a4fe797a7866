package usecase

import (
	"context"
	"time"

	"staywithme/internal/modules/notify/domain"
	"staywithme/internal/modules/notify/dto"
	notifyin "staywithme/internal/modules/notify/port/in"
	"staywithme/internal/modules/notify/service"
)

type Interactor struct {
	svc *service.Dispatcher
}

func NewInteractor(svc *service.Dispatcher) notifyin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Dispatch(ctx context.Context, input dto.DispatchInput) (dto.DispatchOutput, error) {
	result, err := i.svc.Dispatch(ctx, domain.DispatchRequest{
		SessionID:  input.SessionID,
		Level:      input.Level,
		Location:   input.Location,
		Substances: input.Substances,
		Notes:      input.Notes,
	})
	out := dto.DispatchOutput{
		SessionID: input.SessionID,
		Level:     result.Level,
		Kind:      string(result.Kind),
		Success:   result.Success,
		Delivered: result.Delivered,
		Failed:    result.Failed,
		Message:   result.Message,
	}
	return out, err
}

func (i *Interactor) NotifyCompleted(ctx context.Context, sessionID string) error {
	return i.svc.NotifyCompleted(ctx, sessionID)
}

func (i *Interactor) RecordReset(ctx context.Context, sessionID string) error {
	return i.svc.RecordReset(ctx, sessionID)
}

func (i *Interactor) PreviewMessage(ctx context.Context, input dto.PreviewInput) (string, error) {
	return i.svc.Preview(ctx, domain.MessageContext{
		Location:   input.Location,
		Substances: input.Substances,
		Notes:      input.Notes,
	})
}

func (i *Interactor) ListLogs(ctx context.Context, sessionID string, limit int) ([]dto.LogEntryOutput, error) {
	entries, err := i.svc.Logs(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LogEntryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LogEntryOutput{
			ID:        e.ID,
			SessionID: e.SessionID,
			Kind:      string(e.Kind),
			At:        e.At,
			Success:   e.Success,
			ContactID: e.ContactID,
			Message:   e.Message,
		})
	}
	return out, nil
}

func (i *Interactor) PruneLogs(ctx context.Context, before time.Time) (int64, error) {
	return i.svc.Prune(ctx, before)
}
