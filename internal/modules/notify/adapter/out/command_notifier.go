package out

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"staywithme/internal/modules/notify/domain"
	notifyout "staywithme/internal/modules/notify/port/out"
	apperrors "staywithme/internal/platform/errors"
)

// CommandNotifier records every notification in the log and, when a command
// is configured (for example notify-send), runs it as
// `command args... <title> <body>`.
type CommandNotifier struct {
	command string
	args    []string
	log     *zap.SugaredLogger
	lookup  func(string) (string, error)
}

func NewCommandNotifier(command string, args []string, log *zap.SugaredLogger) notifyout.Notifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CommandNotifier{command: strings.TrimSpace(command), args: args, log: log, lookup: exec.LookPath}
}

func (n *CommandNotifier) Show(ctx context.Context, notification domain.Notification) error {
	n.log.Warnw(notification.Title,
		"body", notification.Body, "notificationID", notification.ID,
		"urgent", notification.Urgent, "persistent", notification.Persistent)
	if n.command == "" {
		return nil
	}
	path, err := n.lookup(n.command)
	if err != nil {
		return fmt.Errorf("%w: notifier %s: %v", apperrors.ErrPermissionDenied, n.command, err)
	}
	argv := append(append([]string{}, n.args...), notification.Title, notification.Body)
	out, err := exec.CommandContext(ctx, path, argv...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("run notifier %s: %w: %s", n.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
