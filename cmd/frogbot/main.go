package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/frogbot/internal/config"
	"github.com/sandeepkv93/frogbot/internal/reminder"
	"github.com/sandeepkv93/frogbot/internal/scheduler"
	"github.com/sandeepkv93/frogbot/internal/session"
	"github.com/sandeepkv93/frogbot/internal/storage"
	"github.com/sandeepkv93/frogbot/internal/update"
)

var Version = "dev"

var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
	styleVersion = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "frogbot failed: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath    string
		reminderDelay string
	)
	cmd := &cobra.Command{
		Use:           "frogbot",
		Short:         "Eat-the-frog task tracker with deadline reminders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("reminder-delay") {
				if cfg.ReminderDelay, err = parseDelay(reminderDelay); err != nil {
					return err
				}
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "frogbot.yaml", "YAML config file (missing file means defaults)")
	cmd.Flags().StringVar(&reminderDelay, "reminder-delay", "", "fixed check-in delay such as 30s (default: the task's duration)")
	cmd.AddCommand(versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("  %s %s\n", styleBrand.Render("frogbot"), styleVersion.Render(Version))
			fmt.Printf("    %s %s\n", styleLabel.Render("OS/Arch"), runtime.GOOS+"/"+runtime.GOARCH)
			fmt.Printf("    %s      %s\n", styleLabel.Render("Go"), runtime.Version())
		},
	}
}

func run(cfg config.RuntimeConfig) error {
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.SetPrefix("[frogbot] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	journal, err := storage.OpenSQLite(cfg.JournalDSN)
	if err != nil {
		return err
	}
	defer journal.Close()

	gateway := update.NewChannelGateway(cfg.GatewayBuffer)
	var mgr *session.Manager
	engine := scheduler.NewEngine(func(ev scheduler.Event) { mgr.OnReminder(ev) })

	var delay reminder.DelayStrategy = reminder.TaskDuration{}
	if cfg.ReminderDelay > 0 {
		delay = reminder.Fixed(cfg.ReminderDelay)
	}
	reminders := reminder.New(engine,
		reminder.WithDelay(delay),
		reminder.WithDeadlineWarning(cfg.DeadlineWarning),
	)
	mgr = session.NewManager(reminders, gateway, session.WithJournal(journal))

	engine.Start()
	defer engine.Stop()

	sessionID := mgr.Open()
	defer func() {
		if err := mgr.Close(sessionID); err != nil {
			log.Printf("close session: %v", err)
		}
	}()
	log.Printf("session %s started (reminder delay %s, deadline warning %s)", sessionID, cfg.ReminderDelay, cfg.DeadlineWarning)

	program := tea.NewProgram(update.NewModel(mgr, sessionID, gateway.C()), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
