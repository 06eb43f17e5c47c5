package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/plyght/ora-plyght/internal/tabtree"
)

// ContainerRepo handles containers.
type ContainerRepo struct {
	db DBTX
}

func NewContainerRepo(db DBTX) *ContainerRepo {
	return &ContainerRepo{db: db}
}

func (r *ContainerRepo) Upsert(ctx context.Context, c tabtree.Container) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO containers(id, name, emoji, sort_order)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 emoji=excluded.emoji,
	 sort_order=excluded.sort_order;
	`, c.ID, c.Name, c.Emoji, c.Order)
	return err
}

// Get returns nil, nil when the container does not exist.
func (r *ContainerRepo) Get(ctx context.Context, id string) (*tabtree.Container, error) {
	var c tabtree.Container
	err := r.db.QueryRowContext(ctx, `SELECT id, name, emoji, sort_order FROM containers WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Emoji, &c.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContainerRepo) List(ctx context.Context) ([]tabtree.Container, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, emoji, sort_order FROM containers ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tabtree.Container
	for rows.Next() {
		var c tabtree.Container
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.Order); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the container; its tabs cascade.
func (r *ContainerRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM containers WHERE id = ?`, id)
	return err
}
