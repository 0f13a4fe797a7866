package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	notifyoutadapter "staywithme/internal/modules/notify/adapter/out"
	"staywithme/internal/platform/config"
)

func TestLocalNotifierSelection(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	assert.IsType(t, &notifyoutadapter.DesktopNotifier{}, localNotifier(config.NotifierConfig{Desktop: true}, log))
	assert.IsType(t, &notifyoutadapter.CommandNotifier{},
		localNotifier(config.NotifierConfig{Desktop: true, Command: "notify-send", Args: []string{"-u", "critical"}}, log))
	assert.IsType(t, &notifyoutadapter.CommandNotifier{}, localNotifier(config.NotifierConfig{}, log))
}
