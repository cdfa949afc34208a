// Package cli implements the timing command line client.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hufschlaeger.net/timing-client/internal/config"
	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
	"hufschlaeger.net/timing-client/internal/logging"
	"hufschlaeger.net/timing-client/internal/repository/timing"
	"hufschlaeger.net/timing-client/internal/service"
)

// Repository is the Timing client used by the commands.
type Repository interface {
	service.TimingRepository

	ValidateConnection(ctx context.Context) error
	ListProjectsHierarchy(ctx context.Context) ([]timingDomain.Project, error)
	ListProjects(ctx context.Context, filter *timingDomain.ProjectFilter) ([]timingDomain.Project, error)
	UpdateProject(ctx context.Context, ref any, patch timingDomain.ProjectPatch) (*timingDomain.Project, error)
	Delete(ctx context.Context, ref any) error
}

// RepositoryFactory creates the Repository once the configuration is valid.
type RepositoryFactory func(cfg *config.Config, logger *zap.Logger) (Repository, error)

// App holds what the commands share during one run.
type App struct {
	LoadConfig    func() (*config.Config, error)
	NewRepository RepositoryFactory

	verbose bool
	config  *config.Config
	logger  *zap.Logger
	repo    Repository
	tracker *service.Tracker
}

func NewApp() *App {
	return &App{
		LoadConfig:    config.NewConfig,
		NewRepository: defaultRepository,
	}
}

func defaultRepository(cfg *config.Config, logger *zap.Logger) (Repository, error) {
	return timing.NewRepository(cfg, timing.WithLogger(logger))
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand(NewApp()).Execute()
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "timing",
		Short: "Timing Projekte und Tasks verwalten",
		Long: `timing ist ein Kommandozeilen-Client für die Timing Web API.

Beispiele:
  # Laufenden Task anzeigen
  timing tasks status

  # Task in einer Projekt-Hierarchie starten (fehlende Projekte werden angelegt)
  timing tasks start --title "Hotline" --chain "Kunde/Support"

  # Report der letzten Woche als Markdown
  timing tasks list --from 2024-03-01 --to 2024-03-08 --markdown

Environment Variables:
  TIMING_TOKEN       Timing API Token
  TIMING_TIMEOUT     Timeout pro Request (z.B. 10s)
  TIMING_RATE_LIMIT  Requests pro Sekunde (0 = unbegrenzt)
  OUTPUT_FILE        Ziel für Markdown-Reports`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Ausführliche Ausgabe (Debug-Logging)")

	root.AddCommand(newCheckCommand(app))
	root.AddCommand(newProjectsCommand(app))
	root.AddCommand(newTasksCommand(app))
	return root
}

// setup lädt Konfiguration, Logger und Repository vor jedem Kommando.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	cfg, err := a.LoadConfig()
	if err != nil {
		return fmt.Errorf("konfiguration laden: %w", err)
	}
	if a.verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("konfiguration ungültig: %w", err)
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	repo, err := a.NewRepository(cfg, logger)
	if err != nil {
		return err
	}

	a.config = cfg
	a.logger = logger
	a.repo = repo
	a.tracker = service.NewTracker(cfg, repo, logger)
	a.tracker.SetOutput(cmd.OutOrStdout())
	return nil
}

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Token und Verbindung zur Timing API prüfen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.repo.ValidateConnection(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Verbindung zur Timing API ok")
			return nil
		},
	}
}

// refArg macht aus "12" den Pfad prefix+"12", Pfade bleiben unverändert.
func refArg(prefix, arg string) string {
	if strings.HasPrefix(arg, "/") {
		return arg
	}
	return prefix + arg
}
