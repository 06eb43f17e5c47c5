package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/plyght/ora-plyght/internal/database"
	"github.com/plyght/ora-plyght/internal/database/repository"
	"github.com/plyght/ora-plyght/internal/tabtree"
)

// MaintenanceService houses destructive and diagnostic actions.
type MaintenanceService struct {
	DB       *sql.DB
	MaxDepth int
}

// Reset wipes all tabs and containers. It keeps the schema intact so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"tabs", "containers"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}

// Finding is one integrity problem, tagged with where it was found.
type Finding struct {
	ContainerID string
	Section     tabtree.Section
	tabtree.Diagnostic
}

// Doctor flattens every section of every container and reports the
// self-healed problems: orphans, cycles, depth overruns and key collisions.
func (s *MaintenanceService) Doctor(ctx context.Context) ([]Finding, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("maintenance: db not configured")
	}
	tabs, err := repository.NewTabRepo(s.DB).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tabs: %w", err)
	}
	containers, err := repository.NewContainerRepo(s.DB).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load containers: %w", err)
	}
	idx := tabtree.NewIndex(tabs)

	known := map[string]bool{}
	var out []Finding
	for _, c := range containers {
		known[c.ID] = true
		for _, sec := range []tabtree.Section{tabtree.SectionFavorites, tabtree.SectionPinned, tabtree.SectionNormal} {
			f := tabtree.Flatten(idx.Scope(c.ID, sec), idx, s.MaxDepth)
			for _, d := range f.Diagnostics {
				out = append(out, Finding{ContainerID: c.ID, Section: sec, Diagnostic: d})
			}
		}
	}
	for _, d := range idx.Collisions() {
		t, _ := idx.Get(d.TabID)
		out = append(out, Finding{ContainerID: t.ContainerID, Section: t.Section(), Diagnostic: d})
	}
	for _, t := range tabs {
		if !known[t.ContainerID] {
			out = append(out, Finding{
				ContainerID: t.ContainerID,
				Section:     t.Section(),
				Diagnostic:  tabtree.Diagnostic{Err: tabtree.ErrUnknownContainer, TabID: t.ID},
			})
		}
	}
	return out, nil
}
