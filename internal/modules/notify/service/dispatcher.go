package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"staywithme/internal/modules/notify/domain"
	notifyout "staywithme/internal/modules/notify/port/out"
	"staywithme/internal/platform/clock"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/id"
	"staywithme/internal/platform/metrics"
)

const (
	DefaultTimeout  = 10 * time.Second
	RecentLogLimit  = 50
	LogWriteTimeout = 5 * time.Second
	confirmedReason = "check-in confirmed"
)

// Dispatcher performs the side effect of an escalation level and records it.
// Channel failures are logged as unsuccessful entries; only a failure to write
// the level entry itself is returned.
//
// Every send, notification and log write runs under its own timeout detached
// from the caller's deadline, so one slow contact cannot starve the rest.
type Dispatcher struct {
	clock    clock.Clock
	idGen    id.Generator
	notifier notifyout.Notifier
	channel  notifyout.MessageChannel
	logs     notifyout.LogStore
	profiles notifyout.ProfileReader
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func NewDispatcher(
	clock clock.Clock,
	idGen id.Generator,
	notifier notifyout.Notifier,
	channel notifyout.MessageChannel,
	logs notifyout.LogStore,
	profiles notifyout.ProfileReader,
	timeout time.Duration,
	log *zap.SugaredLogger,
) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{
		clock:    clock,
		idGen:    idGen,
		notifier: notifier,
		channel:  channel,
		logs:     logs,
		profiles: profiles,
		timeout:  timeout,
		log:      log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.DispatchResult, error) {
	kind, err := domain.KindForLevel(req.Level)
	if err != nil {
		return domain.DispatchResult{}, err
	}
	var result domain.DispatchResult
	if req.Level == domain.LevelBroadcast {
		result = d.broadcast(ctx, req)
	} else {
		result = d.showLocal(ctx, req.Level)
	}
	result.Level = req.Level
	result.Kind = kind

	d.log.Infow("dispatched escalation",
		"sessionID", req.SessionID, "level", req.Level, "kind", kind,
		"success", result.Success, "delivered", result.Delivered, "failed", result.Failed)
	if err := d.append(ctx, req.SessionID, kind, "", result.Success, result.Message); err != nil {
		return result, err
	}
	return result, nil
}

func (d *Dispatcher) NotifyCompleted(ctx context.Context, sessionID string) error {
	notice := domain.CompletedNotice()
	success, message := true, notice.Title
	if err := d.show(ctx, notice); err != nil {
		success, message = false, err.Error()
		d.log.Warnw("completion notice not shown", "sessionID", sessionID, "error", err)
	}
	return d.append(ctx, sessionID, domain.KindCompleted, "", success, message)
}

func (d *Dispatcher) RecordReset(ctx context.Context, sessionID string) error {
	return d.append(ctx, sessionID, domain.KindReset, "", true, confirmedReason)
}

func (d *Dispatcher) Preview(ctx context.Context, in domain.MessageContext) (string, error) {
	profile, err := d.messageProfile(ctx)
	if err != nil {
		return "", err
	}
	profile.Location, profile.Substances, profile.Notes = in.Location, in.Substances, in.Notes
	return domain.ComposeEmergencyMessage(profile), nil
}

func (d *Dispatcher) Logs(ctx context.Context, sessionID string, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = RecentLogLimit
	}
	return d.logs.List(ctx, sessionID, limit)
}

func (d *Dispatcher) Prune(ctx context.Context, before time.Time) (int64, error) {
	removed, err := d.logs.PruneBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		d.log.Infow("pruned notification log", "removed", removed, "before", before)
	}
	return removed, nil
}

func (d *Dispatcher) showLocal(ctx context.Context, level int) domain.DispatchResult {
	notification, _ := domain.LocalNotificationFor(level)
	if err := d.show(ctx, notification); err != nil {
		d.log.Warnw("local notification failed", "level", level, "error", err)
		return domain.DispatchResult{Success: false, Message: err.Error()}
	}
	return domain.DispatchResult{Success: true, Message: notification.Title}
}

func (d *Dispatcher) show(ctx context.Context, notification domain.Notification) error {
	if d.notifier == nil {
		return fmt.Errorf("%w: no notifier configured", apperrors.ErrPermissionDenied)
	}
	showCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	return d.notifier.Show(showCtx, notification)
}

func (d *Dispatcher) broadcast(ctx context.Context, req domain.DispatchRequest) domain.DispatchResult {
	profile, err := d.messageProfile(ctx)
	if err != nil {
		d.log.Warnw("profile unavailable for emergency message", "sessionID", req.SessionID, "error", err)
	}
	recipients, err := d.profiles.ActiveRecipients(ctx)
	if err != nil {
		return domain.DispatchResult{Success: false, Message: fmt.Sprintf("load contacts: %v", err)}
	}
	if len(recipients) == 0 {
		return domain.DispatchResult{Success: false, Message: domain.ErrNoContacts.Error()}
	}

	profile.Location, profile.Substances, profile.Notes = req.Location, req.Substances, req.Notes
	body := domain.ComposeEmergencyMessage(profile)

	if d.channel == nil {
		message := apperrors.ErrPermissionDenied.Error() + ": no message channel configured"
		for _, recipient := range recipients {
			if err := d.append(ctx, req.SessionID, domain.KindSMS, recipient.ContactID, false, message); err != nil {
				d.log.Errorw("append contact log", "sessionID", req.SessionID, "contactID", recipient.ContactID, "error", err)
			}
		}
		return domain.DispatchResult{Failed: len(recipients), Message: message}
	}

	result := domain.DispatchResult{}
	for _, recipient := range recipients {
		sendErr := d.send(ctx, recipient, body)
		message := body
		if sendErr != nil {
			result.Failed++
			message = sendErr.Error()
			d.log.Warnw("emergency message not delivered",
				"sessionID", req.SessionID, "contactID", recipient.ContactID, "channel", d.channel.Name(), "error", sendErr)
		} else {
			result.Delivered++
		}
		if err := d.append(ctx, req.SessionID, domain.KindSMS, recipient.ContactID, sendErr == nil, message); err != nil {
			d.log.Errorw("append contact log", "sessionID", req.SessionID, "contactID", recipient.ContactID, "error", err)
		}
	}
	result.Success = result.Delivered > 0
	result.Message = fmt.Sprintf("delivered to %d of %d contacts via %s", result.Delivered, len(recipients), d.channel.Name())
	return result
}

func (d *Dispatcher) send(ctx context.Context, recipient domain.Recipient, body string) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	err := d.channel.SendText(sendCtx, recipient.Phone, body)
	metrics.DeliveryAttempts.WithLabelValues(d.channel.Name(), metrics.Result(err)).Inc()
	if err != nil && !errors.Is(err, apperrors.ErrDeliveryFailure) && !errors.Is(err, apperrors.ErrPermissionDenied) {
		err = fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailure, err)
	}
	return err
}

func (d *Dispatcher) messageProfile(ctx context.Context) (domain.MessageContext, error) {
	if d.profiles == nil {
		return domain.MessageContext{}, nil
	}
	profile, err := d.profiles.MessageProfile(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.MessageContext{}, nil
	}
	return profile, err
}

func (d *Dispatcher) append(ctx context.Context, sessionID string, kind domain.Kind, contactID string, success bool, message string) error {
	entry := domain.LogEntry{
		ID:        d.idGen.New(),
		SessionID: sessionID,
		Kind:      kind,
		At:        d.clock.Now(),
		Success:   success,
		ContactID: contactID,
		Message:   message,
	}
	result := "success"
	if !success {
		result = "failure"
	}
	metrics.Dispatches.WithLabelValues(string(kind), result).Inc()
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LogWriteTimeout)
	defer cancel()
	if err := d.logs.Append(writeCtx, entry); err != nil {
		return fmt.Errorf("append %s log entry: %w", kind, err)
	}
	return nil
}
