package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plyght/ora-plyght/internal/config"
	"github.com/plyght/ora-plyght/internal/database"
	"github.com/plyght/ora-plyght/internal/logging"
	"github.com/plyght/ora-plyght/internal/prefs"
	"github.com/plyght/ora-plyght/internal/service"
	"github.com/plyght/ora-plyght/internal/tabtree"
	"github.com/plyght/ora-plyght/internal/tui"
)

var (
	outputFormat string
	containerRef string
	sectionName  string
)

var rootCmd = &cobra.Command{
	Use:   "oratabs",
	Short: "Vertical tab sidebar with nested tabs and spaces",
	Long: `oratabs keeps tabs in a tree per space (container).

Run without arguments to open the sidebar. Subcommands operate on the
same database and accept a full tab id or a unique id prefix.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSidebar,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format (json/yaml/text)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the opened application state shared by every command.
type env struct {
	cfg config.Config
	log *zap.Logger
	db  *sql.DB
	mgr *service.TabManager
}

func (e *env) close() {
	_ = e.log.Sync()
	_ = e.mgr.Close()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Path)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.SeedDefaults(ctx, db, cfg.UI.DefaultContainer); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	mgr, err := service.NewTabManager(ctx, db, service.ManagerOptions{
		Spacing:  tabtree.Spacing{Step: cfg.Tree.OrderStep, MinGap: cfg.Tree.MinGap},
		MaxDepth: cfg.Tree.MaxDepth,
		Logger:   log,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("opened", zap.String("db", cfg.Database.Path))
	return &env{cfg: cfg, log: log, db: db, mgr: mgr}, nil
}

func runSidebar(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	sess, err := prefs.LoadSession()
	if err != nil {
		e.log.Warn("load session", zap.Error(err))
	}
	app := tui.New(ctx, e.cfg, e.mgr, tui.Options{
		Session:     sess,
		SaveSession: prefs.SaveSession,
		Logger:      e.log,
	})
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("sidebar: %w", err)
	}
	return nil
}
