package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plyght/ora-plyght/internal/cli"
	"github.com/plyght/ora-plyght/internal/config"
	"github.com/plyght/ora-plyght/internal/database"
	"github.com/plyght/ora-plyght/internal/database/repository"
	"github.com/plyght/ora-plyght/internal/service"
	"github.com/plyght/ora-plyght/internal/tabtree"
	"github.com/plyght/ora-plyght/internal/testdata"
)

var (
	newURL      string
	newParent   string
	dropBefore  bool
	dropAfter   bool
	dropSpace   string
	dropSection string
	emoji       string
	confirmWipe bool
	writeConfig bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the flattened tab tree",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		containers := e.mgr.Containers()
		if containerRef != "" {
			c, err := resolveContainer(e, containerRef)
			if err != nil {
				return err
			}
			containers = []tabtree.Container{c}
		}
		sections := []tabtree.Section{tabtree.SectionFavorites, tabtree.SectionPinned, tabtree.SectionNormal}
		if sectionName != "" {
			sections = []tabtree.Section{tabtree.ParseSection(sectionName)}
		}
		var out []cli.Listing
		for _, c := range containers {
			l := cli.Listing{Container: c.Name, Tabs: []cli.TabView{}}
			for _, s := range sections {
				f := e.mgr.Flatten(c.ID, s)
				part := cli.NewListing(c, s, e.mgr.Rows(c.ID, s), f.Diagnostics)
				l.Tabs = append(l.Tabs, part.Tabs...)
				l.Diagnostics = append(l.Diagnostics, part.Diagnostics...)
			}
			out = append(out, l)
		}
		return render(cmd, out)
	}),
}

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Open a tab at the end of a space or under a parent",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		p := service.NewTabParams{Title: args[0], URL: newURL}
		if containerRef != "" {
			c, err := resolveContainer(e, containerRef)
			if err != nil {
				return err
			}
			p.ContainerID = c.ID
		} else if c, ok := defaultContainer(e); ok {
			p.ContainerID = c.ID
		}
		if newParent != "" {
			parent, err := e.mgr.Lookup(newParent)
			if err != nil {
				return err
			}
			p.ParentID = tabtree.StringPtr(parent.ID)
			if containerRef == "" {
				p.ContainerID = parent.ContainerID
			}
		}
		tab, err := e.mgr.NewTab(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tab.ID)
		return nil
	}),
}

var dropCmd = &cobra.Command{
	Use:   "drop <tab> [target]",
	Short: "Drag a tab and drop it into, before or after another tab",
	Long: `Drop <tab> onto [target]. Without --before or --after the tab becomes the
last child of target and joins target's section. Without a target it becomes
the last root of its space, or of the space given with --container, and moves
to --section when given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		if dropBefore && dropAfter {
			return errors.New("--before and --after are exclusive")
		}
		tab, err := e.mgr.Lookup(args[0])
		if err != nil {
			return err
		}
		var target tabtree.DropTarget
		if len(args) == 1 && dropSection != "" {
			sec := tabtree.ParseSection(dropSection)
			target.Section = &sec
		}
		switch {
		case len(args) == 2:
			anchor, err := e.mgr.Lookup(args[1])
			if err != nil {
				return err
			}
			target.TabID = anchor.ID
			switch {
			case dropBefore:
				target.Position = tabtree.PositionBefore
			case dropAfter:
				target.Position = tabtree.PositionAfter
			}
		case dropSpace != "":
			c, err := resolveContainer(e, dropSpace)
			if err != nil {
				return err
			}
			target.ContainerID = c.ID
		}

		token, err := e.mgr.DragStarted(tab.ID)
		if err != nil {
			return err
		}
		mut, err := e.mgr.DropOccurred(ctx, token, target)
		if err != nil {
			return err
		}
		if mut.IsNoop() {
			fmt.Fprintf(cmd.OutOrStdout(), "unchanged: %v\n", mut.Reason)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mut.Kind, tab.ID)
		return nil
	}),
}

var moveCmd = &cobra.Command{
	Use:   "move <tab> <space>",
	Short: "Move a tab and its subtree to another space",
	Args:  cobra.ExactArgs(2),
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		tab, err := e.mgr.Lookup(args[0])
		if err != nil {
			return err
		}
		c, err := resolveContainer(e, args[1])
		if err != nil {
			return err
		}
		mut, err := e.mgr.MoveToContainer(ctx, tab.ID, c.ID)
		if err != nil {
			return err
		}
		if mut.IsNoop() {
			fmt.Fprintf(cmd.OutOrStdout(), "unchanged: %v\n", mut.Reason)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s (%d carried)\n", tab.ID, c.Name, len(mut.Carry))
		return nil
	}),
}

var closeCmd = &cobra.Command{
	Use:   "close <tab>",
	Short: "Close a tab; its children take its place",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		tab, err := e.mgr.Lookup(args[0])
		if err != nil {
			return err
		}
		return e.mgr.CloseTab(ctx, tab.ID)
	}),
}

var pinCmd = &cobra.Command{
	Use:   "pin <tab>",
	Short: "Toggle the pinned flag",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		tab, err := e.mgr.Lookup(args[0])
		if err != nil {
			return err
		}
		tab, err = e.mgr.TogglePin(ctx, tab.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s pinned=%t\n", tab.ID, tab.Pinned)
		return nil
	}),
}

var favoriteCmd = &cobra.Command{
	Use:     "favorite <tab>",
	Aliases: []string{"fav"},
	Short:   "Toggle the favorite flag",
	Args:    cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		tab, err := e.mgr.Lookup(args[0])
		if err != nil {
			return err
		}
		tab, err = e.mgr.ToggleFavorite(ctx, tab.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s favorite=%t\n", tab.ID, tab.Favorite)
		return nil
	}),
}

var containersCmd = &cobra.Command{
	Use:     "containers",
	Aliases: []string{"spaces"},
	Short:   "List spaces",
	Args:    cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		return render(cmd, e.mgr.Containers())
	}),
}

var containersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a space",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		c, err := e.mgr.CreateContainer(ctx, args[0], emoji)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.ID)
		return nil
	}),
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report orphans, cycles, depth overruns and key collisions",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		m := &service.MaintenanceService{DB: e.db, MaxDepth: e.cfg.Tree.MaxDepth}
		findings, err := m.Doctor(ctx)
		if err != nil {
			return err
		}
		return render(cmd, findings)
	}),
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Seed sample spaces with nested tabs",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		err := database.WithTx(ctx, e.db, func(tx *sql.Tx) error {
			return testdata.Seed(ctx, testdata.Repos{
				Containers: repository.NewContainerRepo(tx),
				Tabs:       repository.NewTabRepo(tx),
			})
		})
		if err != nil {
			return fmt.Errorf("demo: %w", err)
		}
		if err := e.mgr.Refresh(ctx); err != nil {
			return err
		}
		return render(cmd, e.mgr.Containers())
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every tab and space",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		if !confirmWipe {
			return errors.New("refusing to reset without --yes")
		}
		m := &service.MaintenanceService{DB: e.db, MaxDepth: e.cfg.Tree.MaxDepth}
		if err := m.Reset(ctx); err != nil {
			return err
		}
		if err := database.SeedDefaults(ctx, e.db, e.cfg.UI.DefaultContainer); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "reset complete")
		return e.mgr.Refresh(ctx)
	}),
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if writeConfig {
			if err := config.Save(cfg); err != nil {
				return err
			}
		}
		return render(cmd, cfg)
	},
}

func init() {
	configCmd.Flags().BoolVar(&writeConfig, "write", false, "Write the effective configuration to the config file")

	listCmd.Flags().StringVarP(&containerRef, "container", "c", "", "Space id or name")
	listCmd.Flags().StringVarP(&sectionName, "section", "s", "", "Section (favorites/pinned/normal)")

	newCmd.Flags().StringVarP(&containerRef, "container", "c", "", "Space id or name")
	newCmd.Flags().StringVar(&newURL, "url", "", "Tab URL")
	newCmd.Flags().StringVar(&newParent, "parent", "", "Parent tab id or prefix")

	dropCmd.Flags().BoolVar(&dropBefore, "before", false, "Drop before the target")
	dropCmd.Flags().BoolVar(&dropAfter, "after", false, "Drop after the target")
	dropCmd.Flags().StringVar(&dropSpace, "container", "", "Drop into empty space of this space")
	dropCmd.Flags().StringVarP(&dropSection, "section", "s", "", "Section for a drop on empty space (favorites/pinned/normal)")

	containersAddCmd.Flags().StringVar(&emoji, "emoji", "", "Space emoji")
	containersCmd.AddCommand(containersAddCmd)

	resetCmd.Flags().BoolVar(&confirmWipe, "yes", false, "Confirm deletion")

	rootCmd.AddCommand(listCmd, newCmd, dropCmd, moveCmd, closeCmd, pinCmd, favoriteCmd,
		containersCmd, doctorCmd, demoCmd, resetCmd, configCmd)
}

type envFunc func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error

// withEnv opens the database and tab manager around fn.
func withEnv(fn envFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(ctx, e, cmd, args)
	}
}

func render(cmd *cobra.Command, v any) error {
	out, err := cli.Format(v, outputFormat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func resolveContainer(e *env, ref string) (tabtree.Container, error) {
	c, ok := service.ContainerPicker{}.Resolve(e.mgr.Containers(), ref)
	if !ok {
		return tabtree.Container{}, fmt.Errorf("space %q: %w", ref, tabtree.ErrUnknownContainer)
	}
	return c, nil
}

func defaultContainer(e *env) (tabtree.Container, bool) {
	if e.cfg.UI.DefaultContainer == "" {
		return tabtree.Container{}, false
	}
	return service.ContainerPicker{}.Resolve(e.mgr.Containers(), e.cfg.UI.DefaultContainer)
}
