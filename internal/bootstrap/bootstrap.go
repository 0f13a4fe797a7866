package bootstrap

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"go.uber.org/zap"

	checkininadapter "staywithme/internal/modules/checkin/adapter/in"
	checkinoutadapter "staywithme/internal/modules/checkin/adapter/out"
	checkindto "staywithme/internal/modules/checkin/dto"
	checkinin "staywithme/internal/modules/checkin/port/in"
	checkinservice "staywithme/internal/modules/checkin/service"
	checkinusecase "staywithme/internal/modules/checkin/usecase"
	notifyinadapter "staywithme/internal/modules/notify/adapter/in"
	notifyoutadapter "staywithme/internal/modules/notify/adapter/out"
	notifyin "staywithme/internal/modules/notify/port/in"
	notifyout "staywithme/internal/modules/notify/port/out"
	notifyservice "staywithme/internal/modules/notify/service"
	notifyusecase "staywithme/internal/modules/notify/usecase"
	plugininadapter "staywithme/internal/modules/plugin/adapter/in"
	pluginoutadapter "staywithme/internal/modules/plugin/adapter/out"
	pluginin "staywithme/internal/modules/plugin/port/in"
	pluginservice "staywithme/internal/modules/plugin/service"
	pluginusecase "staywithme/internal/modules/plugin/usecase"
	profileinadapter "staywithme/internal/modules/profile/adapter/in"
	profileoutadapter "staywithme/internal/modules/profile/adapter/out"
	profileservice "staywithme/internal/modules/profile/service"
	profileusecase "staywithme/internal/modules/profile/usecase"
	"staywithme/internal/platform/clock"
	"staywithme/internal/platform/config"
	apperrors "staywithme/internal/platform/errors"
	"staywithme/internal/platform/id"
	"staywithme/internal/platform/logging"
	"staywithme/internal/platform/metrics"
	"staywithme/internal/platform/secrets"
	"staywithme/internal/platform/sqlitedb"
	uiapp "staywithme/internal/ui/app"
)

type App struct {
	Config config.Config
	Log    *zap.Logger

	ProfileCLI profileinadapter.CLIHandler
	CheckinCLI checkininadapter.CLIHandler
	NotifyCLI  notifyinadapter.CLIHandler
	PluginCLI  plugininadapter.CLIHandler

	Checkins checkinin.Usecase
	Notify   notifyin.Usecase
	Outbox   *notifyoutadapter.FileOutboxChannel
	Secrets  secrets.Store

	clock clock.SystemClock
	db    *sql.DB
}

func New(cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	var logPaths []string
	if cfg.Log.File != "" {
		logPaths = append(logPaths, cfg.Log.File)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logPaths...)
	if err != nil {
		return nil, err
	}
	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	app, err := wire(cfg, logger, db)
	if err != nil {
		_ = db.Close()
		_ = logger.Sync()
		return nil, err
	}
	return app, nil
}

func wire(cfg config.Config, logger *zap.Logger, db *sql.DB) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.UUID{}
	txm := sqlitedb.NewTxManager(db)
	keyring := secrets.NewKeyringStore()

	profileStore, err := profileoutadapter.NewSQLiteProfileStore(db)
	if err != nil {
		return nil, fmt.Errorf("new profile store: %w", err)
	}
	contactStore, err := profileoutadapter.NewSQLiteContactStore(db)
	if err != nil {
		return nil, fmt.Errorf("new contact store: %w", err)
	}
	profileUC := profileusecase.NewInteractor(profileservice.NewProfileService(clk, ids, txm, profileStore, contactStore))

	pluginUC := pluginusecase.NewInteractor(pluginservice.NewPluginService(
		pluginoutadapter.NewFileManifestStore(cfg.DataDir),
		pluginoutadapter.NewGRPCHost(pluginLogger(logger, cfg.Log.Level)),
	))

	outbox := notifyoutadapter.NewFileOutboxChannel(cfg.Delivery.Outbox, clk)
	channel, err := messageChannel(cfg, keyring, outbox, pluginUC)
	if err != nil {
		return nil, err
	}
	logStore, err := notifyoutadapter.NewSQLiteLogStore(db)
	if err != nil {
		return nil, fmt.Errorf("new notification log store: %w", err)
	}
	notifier := notifyoutadapter.NewRateLimitedNotifier(
		localNotifier(cfg.Notifier, logging.Component(logger, "notifier")),
		clk, notifyoutadapter.NonUrgentInterval,
	)
	notifyUC := notifyusecase.NewInteractor(notifyservice.NewDispatcher(
		clk, ids, notifier, channel, logStore,
		notifyoutadapter.NewProfileReader(profileUC),
		cfg.Delivery.Timeout, logging.Component(logger, "notify"),
	))

	sessionStore, err := checkinoutadapter.NewSQLiteSessionStore(db)
	if err != nil {
		return nil, fmt.Errorf("new session store: %w", err)
	}
	profiles := checkinoutadapter.NewProfileSource(profileUC)
	dispatcher := checkinoutadapter.NewNotifyDispatcher(notifyUC)
	checkinUC := checkinusecase.NewInteractor(
		checkinservice.NewSessionService(clk, ids, txm, sessionStore, profiles,
			checkinoutadapter.NewFileLocationProvider(cfg.Location.File, cfg.Location.MaxAge, clk),
			dispatcher, logging.Component(logger, "session")),
		checkinservice.NewCoordinator(clk, sessionStore, profiles, dispatcher,
			checkinservice.DefaultDispatchTimeout, logging.Component(logger, "escalation")),
	)

	return &App{
		Config:     cfg,
		Log:        logger,
		ProfileCLI: profileinadapter.NewCLIHandler(profileUC),
		CheckinCLI: checkininadapter.NewCLIHandler(checkinUC),
		NotifyCLI:  notifyinadapter.NewCLIHandler(notifyUC),
		PluginCLI:  plugininadapter.NewCLIHandler(pluginUC),
		Checkins:   checkinUC,
		Notify:     notifyUC,
		Outbox:     outbox,
		Secrets:    keyring,
		clock:      clk,
		db:         db,
	}, nil
}

// messageChannel selects the outbound SMS transport named by delivery.channel.
func messageChannel(cfg config.Config, store secrets.Store, outbox *notifyoutadapter.FileOutboxChannel, plugins pluginin.Usecase) (notifyout.MessageChannel, error) {
	d := cfg.Delivery
	switch d.Channel {
	case config.ChannelOutbox:
		return outbox, nil
	case config.ChannelGateway:
		return notifyoutadapter.NewGatewayChannel(d.Gateway.URL, d.Gateway.From, secretSource(store, d.Gateway.TokenSecret), d.Timeout), nil
	case config.ChannelSMTP:
		return notifyoutadapter.NewSMTPChannel(notifyoutadapter.SMTPSettings{
			Host:     d.SMTP.Host,
			Port:     d.SMTP.Port,
			User:     d.SMTP.User,
			From:     d.SMTP.From,
			Domain:   d.SMTP.Domain,
			Password: secretSource(store, d.SMTP.PasswordSecret),
		}), nil
	case config.ChannelPlugin:
		return notifyoutadapter.NewPluginChannel(plugins, d.Plugin), nil
	}
	return nil, fmt.Errorf("%w: unknown delivery.channel %q", apperrors.ErrConfiguration, d.Channel)
}

// secretSource defers the keyring lookup until a message is actually sent.
func secretSource(store secrets.Store, name string) notifyoutadapter.TokenSource {
	return func() (string, error) {
		if name == "" {
			return "", nil
		}
		return store.Get(name)
	}
}

// pluginLogger sends go-plugin's hclog output through zap so plugin chatter
// never lands on the terminal the watch screen is drawing.
func pluginLogger(logger *zap.Logger, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "plugin",
		Level:  hclog.LevelFromString(level),
		Output: zap.NewStdLog(logger.Named("plugin")).Writer(),
	})
}

func (a *App) Close() error {
	_ = a.Log.Sync()
	return a.db.Close()
}

// NewForegroundController builds the in-process countdown driver used by the
// watch screen.
func (a *App) NewForegroundController() *checkininadapter.ForegroundController {
	return checkininadapter.NewForegroundController(a.Checkins, a.clock, a.Config.Foreground.Tick, logging.Component(a.Log, "foreground"))
}

// Monitor builds the background pass that keeps escalating while no screen
// is attached.
func (a *App) Monitor() checkininadapter.BackgroundScheduler {
	return checkininadapter.BackgroundScheduler{
		Checkins:  a.Checkins,
		Notify:    a.Notify,
		Clock:     a.clock,
		Interval:  a.Config.Monitor.Interval,
		Retention: a.Config.Retention,
		Log:       logging.Component(a.Log, "monitor"),
	}
}

// Router serves the remote check-in API and Prometheus metrics.
func (a *App) Router() *mux.Router {
	r := mux.NewRouter()
	checkininadapter.NewHTTPHandler(a.Checkins, logging.Component(a.Log, "http")).Routes(r)
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	return r
}

// PIDFile is where the monitor records its process id.
func (a *App) PIDFile() string {
	return filepath.Join(a.Config.DataDir, "monitor.pid")
}

func RunWatch(app *App) error {
	ctrl := app.NewForegroundController()
	defer ctrl.Detach()

	model := uiapp.NewModel(ctrl, app.CheckinCLI, app.NotifyCLI, app.clock)
	program := tea.NewProgram(model, tea.WithAltScreen())
	ctrl.OnSnapshot(func(s checkindto.Snapshot) {
		program.Send(uiapp.SnapshotMsg{Snapshot: s})
	})
	_, err := program.Run()
	ctrl.OnSnapshot(nil)
	return err
}

// localNotifier prefers a configured command, then the desktop notification
// service. With neither, notifications only reach the log.
func localNotifier(cfg config.NotifierConfig, log *zap.SugaredLogger) notifyout.Notifier {
	if cfg.Command == "" && cfg.Desktop {
		return notifyoutadapter.NewDesktopNotifier(secrets.Service, log)
	}
	return notifyoutadapter.NewCommandNotifier(cfg.Command, cfg.Args, log)
}
