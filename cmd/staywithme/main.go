package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"staywithme/internal/bootstrap"
	checkindto "staywithme/internal/modules/checkin/dto"
	profiledto "staywithme/internal/modules/profile/dto"
	"staywithme/internal/platform/config"
	apperrors "staywithme/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "staywithme",
		Short:         "Check-in timer that alerts your contacts when you stop answering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", config.DefaultDataDir(), "directory holding the database, config.yaml and .env")

	root.AddCommand(newProfileCmd(&dataDir))
	root.AddCommand(newContactCmd(&dataDir))
	root.AddCommand(newSessionCmd(&dataDir))
	root.AddCommand(newWatchCmd(&dataDir))
	root.AddCommand(newMonitorCmd(&dataDir))
	root.AddCommand(newEvaluateCmd(&dataDir))
	root.AddCommand(newLogCmd(&dataDir))
	root.AddCommand(newAlertCmd(&dataDir))
	root.AddCommand(newOutboxCmd(&dataDir))
	root.AddCommand(newPluginCmd(&dataDir))
	root.AddCommand(newSecretCmd(&dataDir))
	return root
}

func loadApp(dataDir string) (*bootstrap.App, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp loads the app for one command invocation and closes it afterwards.
func withApp(dataDir string, fn func(app *bootstrap.App) error) error {
	app, err := loadApp(dataDir)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}

func newProfileCmd(dataDir *string) *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Your name, medical info and check-in interval"}

	var input profiledto.ProfileInput
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update the profile; unset flags keep their current value",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				ctx := context.Background()
				current, err := app.ProfileCLI.GetProfile(ctx)
				if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
					return err
				}
				merged := profiledto.ProfileInput{
					Name:                   current.Name,
					MedicalInfo:            current.MedicalInfo,
					Notes:                  current.Notes,
					AlertTemplate:          current.AlertTemplate,
					CheckInIntervalMinutes: current.CheckInIntervalMinutes,
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					merged.Name = input.Name
				}
				if flags.Changed("medical") {
					merged.MedicalInfo = input.MedicalInfo
				}
				if flags.Changed("notes") {
					merged.Notes = input.Notes
				}
				if flags.Changed("template") {
					merged.AlertTemplate = input.AlertTemplate
				}
				if flags.Changed("interval") {
					merged.CheckInIntervalMinutes = input.CheckInIntervalMinutes
				}
				out, err := app.ProfileCLI.SaveProfile(ctx, merged)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "profile saved: %s, check in every %d minutes\n", out.Name, out.CheckInIntervalMinutes)
				return nil
			})
		},
	}
	set.Flags().StringVar(&input.Name, "name", "", "your name as contacts know you")
	set.Flags().StringVar(&input.MedicalInfo, "medical", "", "conditions, allergies, medication")
	set.Flags().StringVar(&input.Notes, "notes", "", "anything else responders should know")
	set.Flags().StringVar(&input.AlertTemplate, "template", "", "custom alert message; [Your Name] and [Medical Info text here] are replaced")
	set.Flags().IntVar(&input.CheckInIntervalMinutes, "interval", 0, "check-in interval in minutes (2..120)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				p, err := app.ProfileCLI.GetProfile(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "name: %s\ninterval: %d min\nmedical: %s\nnotes: %s\ntemplate: %s\nupdated: %s\n",
					p.Name, p.CheckInIntervalMinutes, p.MedicalInfo, p.Notes, p.AlertTemplate, p.UpdatedAt.Local().Format(time.RFC3339))
				return nil
			})
		},
	}

	profile.AddCommand(set, show)
	return profile
}

func newContactCmd(dataDir *string) *cobra.Command {
	contact := &cobra.Command{Use: "contact", Short: "Emergency contacts, alerted in priority order"}

	add := &cobra.Command{
		Use:   "add <name> <phone>",
		Short: "Add a contact at the lowest priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.ProfileCLI.AddContact(context.Background(), args[0], args[1])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "contact added: %s %s (%s) priority=%d\n", out.Name, out.Phone, out.ID, out.Priority)
				return nil
			})
		},
	}

	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List contacts by priority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				contacts, err := app.ProfileCLI.ListContacts(context.Background(), activeOnly)
				if err != nil {
					return err
				}
				if len(contacts) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no contacts")
					return nil
				}
				for _, c := range contacts {
					state := "active"
					if !c.Active {
						state = "disabled"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s\n", c.Priority, c.ID, c.Name, c.Phone, state)
				}
				return nil
			})
		},
	}
	list.Flags().BoolVar(&activeOnly, "active", false, "only contacts that receive alerts")

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if err := app.ProfileCLI.RemoveContact(context.Background(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "contact removed: %s\n", args[0])
				return nil
			})
		},
	}

	contact.AddCommand(add, list, remove,
		newContactToggleCmd(dataDir, "enable", true),
		newContactToggleCmd(dataDir, "disable", false),
	)
	return contact
}

func newContactToggleCmd(dataDir *string, verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " alerts for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.ProfileCLI.SetContactActive(context.Background(), args[0], active)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "contact %s: %s active=%t\n", out.ID, out.Name, out.Active)
				return nil
			})
		},
	}
}

func newSessionCmd(dataDir *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Safety session lifecycle"}

	var substances, notes string
	start := &cobra.Command{
		Use:   "start <duration>",
		Short: "Start a session, ending any session still active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[0], err)
			}
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.CheckinCLI.Start(context.Background(), duration, substances, notes)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session started: %s ends=%s\n", out.ID, out.EndsAt.Local().Format("15:04"))
				if out.Location != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "location: %s\n", out.Location)
				}
				return nil
			})
		},
	}
	start.Flags().StringVar(&substances, "substances", "", "what you have taken, shared with contacts if alerted")
	start.Flags().StringVar(&notes, "notes", "", "where you are or who you are with")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the active session and its countdowns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.CheckinCLI.Status(context.Background())
				if err != nil {
					return err
				}
				printStatus(cmd, out)
				return nil
			})
		},
	}

	checkin := &cobra.Command{
		Use:     "checkin",
		Aliases: []string{"ok"},
		Short:   "Confirm you are OK and reset escalation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.CheckinCLI.CheckIn(context.Background())
				if err != nil {
					return err
				}
				printStatus(cmd, out)
				return nil
			})
		},
	}

	end := &cobra.Command{
		Use:   "end",
		Short: "End the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.CheckinCLI.End(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session ended: %s\n", out.ID)
				return nil
			})
		},
	}

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				sessions, err := app.CheckinCLI.History(context.Background(), limit)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				for _, s := range sessions {
					state := "ended"
					if s.Active {
						state = "active"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\tlevel=%d\n",
						s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), s.Duration, state, s.Level)
				}
				return nil
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", 50, "number of sessions")

	session.AddCommand(start, status, checkin, end, history)
	return session
}

func printStatus(cmd *cobra.Command, out checkindto.StatusOutput) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "session: %s\nlevel: %d (%s)\ninterval: %d min\nremaining: %s\n",
		out.Session.ID, out.Level, out.LevelName, out.IntervalMinutes, out.Remaining.Round(time.Second))
	if out.Expired {
		_, _ = fmt.Fprintln(w, "expired: the session will be completed on the next pass")
		return
	}
	if !out.NextCheckInAt.IsZero() {
		_, _ = fmt.Fprintf(w, "next check-in: %s\n", out.NextCheckInAt.Local().Format("15:04:05"))
	}
	if !out.UrgentAt.IsZero() {
		_, _ = fmt.Fprintf(w, "urgent alert: %s\n", out.UrgentAt.Local().Format("15:04:05"))
	}
	if out.Session.LastConfirmedAt != nil {
		_, _ = fmt.Fprintf(w, "last check-in: %s\n", out.Session.LastConfirmedAt.Local().Format("15:04:05"))
	}
}

func newWatchCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Full-screen countdown for the active session",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(*dataDir, bootstrap.RunWatch)
		},
	}
}

func newMonitorCmd(dataDir *string) *cobra.Command {
	var once bool
	var listen string
	monitor := &cobra.Command{
		Use:   "monitor",
		Short: "Escalate in the background and serve the remote check-in API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				scheduler := app.Monitor()
				if once {
					pass := scheduler.RunOnce(context.Background())
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session=%s level=%d dispatched=%t completed=%t location=%t pruned=%d\n",
						pass.SessionID, pass.Level, pass.Dispatched, pass.Completed, pass.LocationUpdated, pass.Pruned)
					return nil
				}
				if cmd.Flags().Changed("listen") {
					app.Config.Monitor.Listen = listen
				}
				return runMonitor(app)
			})
		},
	}
	monitor.Flags().BoolVar(&once, "once", false, "run a single pass and exit (for cron or launchd)")
	monitor.Flags().StringVar(&listen, "listen", "", "HTTP listen address; empty disables the API")
	return monitor
}

func runMonitor(app *bootstrap.App) error {
	log := app.Log.Named("monitor").Sugar()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pidFile := app.PIDFile()
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer func() { _ = os.Remove(pidFile) }()

	var server *http.Server
	if addr := app.Config.Monitor.Listen; addr != "" {
		server = &http.Server{
			Addr:              addr,
			Handler:           app.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Infow("Serving check-in API", "addr", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("Check-in API stopped", "error", err)
				stop()
			}
		}()
	}

	app.Monitor().Start(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}
	return nil
}

func newEvaluateCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Run one escalation pass against the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.CheckinCLI.Evaluate(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session=%s level=%d->%d dispatched=%t expired=%t\n",
					out.SessionID, out.PreviousLevel, out.Level, out.Dispatched, out.Expired)
				return nil
			})
		},
	}
}

func newLogCmd(dataDir *string) *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Notification log"}

	var sessionID string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent notification log entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				entries, err := app.NotifyCLI.ListLogs(context.Background(), sessionID, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no log entries")
					return nil
				}
				for _, e := range entries {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tok=%t\t%s\n",
						e.At.Local().Format("2006-01-02 15:04:05"), e.SessionID, e.Kind, e.Success, firstLine(e.Message))
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&sessionID, "session", "", "only entries for this session")
	list.Flags().IntVar(&limit, "limit", 50, "number of entries")

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete log entries older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				age := app.Config.Retention
				if cmd.Flags().Changed("older-than") {
					age = olderThan
				}
				n, err := app.NotifyCLI.PruneLogs(context.Background(), age, time.Now().UTC())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
				return nil
			})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", config.DefaultRetention, "age cutoff")

	logCmd.AddCommand(list, prune)
	return logCmd
}

func newAlertCmd(dataDir *string) *cobra.Command {
	alert := &cobra.Command{Use: "alert", Short: "Inspect and test alert delivery"}

	var location, substances, notes string
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Render the broadcast message contacts would receive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				msg, err := app.NotifyCLI.Preview(context.Background(), location, substances, notes)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
	preview.Flags().StringVar(&location, "location", "", "location to show in the message")
	preview.Flags().StringVar(&substances, "substances", "", "substances to show in the message")
	preview.Flags().StringVar(&notes, "notes", "", "session notes to show in the message")

	var level int
	test := &cobra.Command{
		Use:   "test",
		Short: "Dispatch an escalation level outside any session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.NotifyCLI.Test(context.Background(), level)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "level=%d kind=%s delivered=%d failed=%d\n", out.Level, out.Kind, out.Delivered, out.Failed)
				return nil
			})
		},
	}
	test.Flags().IntVar(&level, "level", 1, "escalation level 1..4; 4 texts every active contact")

	alert.AddCommand(preview, test)
	return alert
}

func newOutboxCmd(dataDir *string) *cobra.Command {
	outbox := &cobra.Command{Use: "outbox", Short: "Messages captured by the outbox channel"}

	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent outbox messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				messages, err := app.Outbox.Tail(context.Background(), limit)
				if err != nil {
					return err
				}
				if len(messages) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "outbox empty")
					return nil
				}
				for _, m := range messages {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n%s\n\n", m.SentAt.Local().Format("2006-01-02 15:04:05"), m.To, m.Body)
				}
				return nil
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 20, "number of messages")

	outbox.AddCommand(tail)
	return outbox
}

func newPluginCmd(dataDir *string) *cobra.Command {
	plugin := &cobra.Command{Use: "plugin", Short: "Delivery plugins"}

	plugin.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List installed delivery plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				items, err := app.PluginCLI.List(context.Background())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins")
					return nil
				}
				for _, item := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tenabled=%t\tcaps=%s\n", item.Name, item.Version, item.Enabled, strings.Join(item.Capabilities, ","))
				}
				return nil
			})
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate plugin manifests, binaries and handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				results, err := app.PluginCLI.Doctor(context.Background())
				if err != nil {
					return err
				}
				if len(results) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins")
					return nil
				}
				unhealthy := 0
				for _, r := range results {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tchecksum=%t\tbinary=%t\thandshake=%t\treported=%s\t%s\n", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK, r.ReportedVersion, r.Error)
					if !r.Healthy() {
						unhealthy++
					}
				}
				if unhealthy > 0 {
					return fmt.Errorf("%d of %d plugins failed checks", unhealthy, len(results))
				}
				return nil
			})
		},
	})

	var pluginName string
	send := &cobra.Command{
		Use:   "send --plugin <name> <phone> <body>",
		Short: "Send one text through a plugin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(pluginName) == "" {
				return fmt.Errorf("--plugin is required")
			}
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.PluginCLI.Send(context.Background(), pluginName, args[0], args[1])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "plugin=%s message=%s %s\n", out.PluginName, out.MessageID, out.Detail)
				return nil
			})
		},
	}
	send.Flags().StringVar(&pluginName, "plugin", "", "plugin name")
	plugin.AddCommand(send)

	return plugin
}

func newSecretCmd(dataDir *string) *cobra.Command {
	secret := &cobra.Command{Use: "secret", Short: "Channel credentials in the OS keyring"}

	secret.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Read a secret from stdin and store it in the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readSecret(cmd)
			if err != nil {
				return err
			}
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if err := app.Secrets.Set(args[0], value); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "secret stored: %s\n", args[0])
				return nil
			})
		},
	})
	return secret
}

func readSecret(cmd *cobra.Command) (string, error) {
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	value := strings.TrimRight(string(raw), "\r\n")
	if value == "" {
		return "", fmt.Errorf("secret value is empty")
	}
	return value, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
