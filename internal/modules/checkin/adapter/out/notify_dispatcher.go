package out

import (
	"context"

	"staywithme/internal/modules/checkin/domain"
	checkinout "staywithme/internal/modules/checkin/port/out"
	notifydto "staywithme/internal/modules/notify/dto"
	notifyin "staywithme/internal/modules/notify/port/in"
)

// NotifyDispatcher forwards escalation side effects to the notify module.
type NotifyDispatcher struct {
	notify notifyin.Usecase
}

func NewNotifyDispatcher(notify notifyin.Usecase) checkinout.Dispatcher {
	return &NotifyDispatcher{notify: notify}
}

func (d *NotifyDispatcher) Dispatch(ctx context.Context, session domain.Session, level domain.Level) error {
	_, err := d.notify.Dispatch(ctx, notifydto.DispatchInput{
		SessionID:  session.ID,
		Level:      int(level),
		Location:   session.Location,
		Substances: session.Substances,
		Notes:      session.Notes,
	})
	return err
}

func (d *NotifyDispatcher) NotifyCompleted(ctx context.Context, sessionID string) error {
	return d.notify.NotifyCompleted(ctx, sessionID)
}

func (d *NotifyDispatcher) RecordReset(ctx context.Context, sessionID string) error {
	return d.notify.RecordReset(ctx, sessionID)
}
