package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/plyght/ora-plyght/internal/database/repository"
	"github.com/plyght/ora-plyght/internal/tabtree"
)

// DefaultContainerID derives the stable id of a seeded container from its name.
func DefaultContainerID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("container:"+strings.ToLower(strings.TrimSpace(name)))).String()
}

// SeedDefaults ensures a container exists for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, name string) error {
	repo := repository.NewContainerRepo(db)
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if strings.TrimSpace(name) == "" {
		name = "Personal"
	}
	if err := repo.Upsert(ctx, tabtree.Container{
		ID:    DefaultContainerID(name),
		Name:  name,
		Emoji: "🏠",
		Order: tabtree.DefaultStep,
	}); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	return nil
}
