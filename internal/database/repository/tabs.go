package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/plyght/ora-plyght/internal/tabtree"
)

const tabColumns = `id, container_id, parent_id, sort_order, seq, title, url, pinned, favorite, version`

// TabRepo handles tabs.
type TabRepo struct {
	db DBTX
}

func NewTabRepo(db DBTX) *TabRepo { return &TabRepo{db: db} }

// Insert stores a new tab at version 1.
func (r *TabRepo) Insert(ctx context.Context, t tabtree.Tab) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO tabs(id, container_id, parent_id, sort_order, seq, title, url, pinned, favorite, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1);
	`, t.ID, t.ContainerID, t.ParentID, t.Order, t.Seq, t.Title, t.URL, t.Pinned, t.Favorite)
	return err
}

// Get returns nil, nil when the tab does not exist.
func (r *TabRepo) Get(ctx context.Context, id string) (*tabtree.Tab, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tabColumns+` FROM tabs WHERE id = ?`, id)
	t, err := scanTab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TabRepo) List(ctx context.Context) ([]tabtree.Tab, error) {
	return r.query(ctx, `SELECT `+tabColumns+` FROM tabs ORDER BY container_id, sort_order, seq, id`)
}

func (r *TabRepo) ListByContainer(ctx context.Context, containerID string) ([]tabtree.Tab, error) {
	return r.query(ctx, `SELECT `+tabColumns+` FROM tabs WHERE container_id = ? ORDER BY sort_order, seq, id`, containerID)
}

// UpdatePlacement moves a tab to a new container, parent and key.
func (r *TabRepo) UpdatePlacement(ctx context.Context, id string, version int64, containerID string, parentID *string, order float64) error {
	return expectOne(r.db.ExecContext(ctx, `
	UPDATE tabs SET container_id = ?, parent_id = ?, sort_order = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND version = ?`, containerID, parentID, order, id, version))
}

// UpdateOrder rewrites only the sibling key.
func (r *TabRepo) UpdateOrder(ctx context.Context, id string, version int64, order float64) error {
	return expectOne(r.db.ExecContext(ctx, `
	UPDATE tabs SET sort_order = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND version = ?`, order, id, version))
}

func (r *TabRepo) SetFlags(ctx context.Context, id string, version int64, pinned, favorite bool) error {
	return expectOne(r.db.ExecContext(ctx, `
	UPDATE tabs SET pinned = ?, favorite = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND version = ?`, pinned, favorite, id, version))
}

func (r *TabRepo) Delete(ctx context.Context, id string, version int64) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM tabs WHERE id = ? AND version = ?`, id, version))
}

// NextSeq returns the next insertion sequence number.
func (r *TabRepo) NextSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM tabs`).Scan(&seq)
	return seq, err
}

func (r *TabRepo) query(ctx context.Context, query string, args ...any) ([]tabtree.Tab, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tabtree.Tab
	for rows.Next() {
		t, err := scanTab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTab(row scanner) (tabtree.Tab, error) {
	var t tabtree.Tab
	var parent sql.NullString
	if err := row.Scan(&t.ID, &t.ContainerID, &parent, &t.Order, &t.Seq, &t.Title, &t.URL,
		&t.Pinned, &t.Favorite, &t.Version); err != nil {
		return tabtree.Tab{}, err
	}
	if parent.Valid {
		t.ParentID = &parent.String
	}
	return t, nil
}
