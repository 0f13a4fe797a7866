package out

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"staywithme/internal/modules/notify/domain"
	notifyout "staywithme/internal/modules/notify/port/out"
)

type showFunc func(title, message string, icon any) error

// DesktopNotifier shows notifications through the host notification service.
// Urgent notifications use the alert variant, which also plays a sound.
type DesktopNotifier struct {
	notify showFunc
	alert  showFunc
	log    *zap.SugaredLogger
}

func NewDesktopNotifier(appName string, log *zap.SugaredLogger) notifyout.Notifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if appName != "" {
		beeep.AppName = appName
	}
	return &DesktopNotifier{notify: beeep.Notify, alert: beeep.Alert, log: log}
}

func (n *DesktopNotifier) Show(ctx context.Context, notification domain.Notification) error {
	n.log.Warnw(notification.Title,
		"body", notification.Body, "notificationID", notification.ID,
		"urgent", notification.Urgent, "persistent", notification.Persistent)
	show := n.notify
	if notification.Urgent {
		show = n.alert
	}

	// beeep takes no context; at the deadline the call is left running.
	done := make(chan error, 1)
	go func() { done <- show(notification.Title, notification.Body, "") }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("show desktop notification: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("show desktop notification: %w", ctx.Err())
	}
}
