package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"movecache/internal/book"
)

// ExportForest stores forest under name, replacing any earlier export with
// the same name. Returns the export ID.
func (s *Store) ExportForest(ctx context.Context, name string, forest book.Forest) (id int64, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM nodes WHERE export_id IN (SELECT id FROM exports WHERE name = ?)
	`, name); err != nil {
		return 0, fmt.Errorf("delete nodes: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM exports WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("delete export: %w", err)
	}

	stats := forest.Stats()
	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO exports (name, depth, node_count)
		VALUES (:name, :depth, :node_count)
	`, Export{Name: name, Depth: stats.MaxDepth, NodeCount: stats.Nodes})
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO nodes (export_id, parent_id, ply, ord, from_sq, to_sq)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	if err = insertNodes(ctx, stmt, id, nil, 1, forest); err != nil {
		return 0, fmt.Errorf("insert nodes: %w", err)
	}

	return id, tx.Commit()
}

func insertNodes(ctx context.Context, stmt *sqlx.Stmt, exportID int64, parentID *int64, ply int, records []book.Record) error {
	for i, r := range records {
		res, err := stmt.ExecContext(ctx, exportID, parentID, ply, i, r.From, r.To)
		if err != nil {
			return err
		}
		if len(r.Children) == 0 {
			continue
		}
		nodeID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := insertNodes(ctx, stmt, exportID, &nodeID, ply+1, r.Children); err != nil {
			return err
		}
	}
	return nil
}

// find an export by its name
func (s *Store) ExportByName(ctx context.Context, name string) (Export, error) {
	var e Export
	err := s.db.GetContext(ctx, &e, `
		SELECT id, name, created_at, depth, node_count
		FROM exports
		WHERE name = ?
	`, name)
	return e, err
}

func (s *Store) ListExports(ctx context.Context) ([]Export, error) {
	var out []Export
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name, created_at, depth, node_count
		FROM exports
		ORDER BY name ASC
	`)
	return out, err
}

// Children lists the nodes below parentID in book order. A parentID of 0
// lists the first-ply nodes.
func (s *Store) Children(ctx context.Context, exportID, parentID int64) ([]Node, error) {
	var out []Node
	var err error
	if parentID == 0 {
		err = s.db.SelectContext(ctx, &out, `
			SELECT id, export_id, parent_id, ply, ord, from_sq, to_sq
			FROM nodes
			WHERE export_id = ? AND parent_id IS NULL
			ORDER BY ord ASC
		`, exportID)
	} else {
		err = s.db.SelectContext(ctx, &out, `
			SELECT id, export_id, parent_id, ply, ord, from_sq, to_sq
			FROM nodes
			WHERE export_id = ? AND parent_id = ?
			ORDER BY ord ASC
		`, exportID, parentID)
	}
	return out, err
}

func (s *Store) CountNodes(ctx context.Context, exportID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM nodes WHERE export_id = ?`, exportID)
	return n, err
}

// ForestByName rebuilds the forest stored under name.
func (s *Store) ForestByName(ctx context.Context, name string) (book.Forest, error) {
	e, err := s.ExportByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	var rows []Node
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, export_id, parent_id, ply, ord, from_sq, to_sq
		FROM nodes
		WHERE export_id = ?
		ORDER BY ply ASC, parent_id ASC, ord ASC
	`, e.ID); err != nil {
		return nil, err
	}

	children := make(map[int64][]Node)
	for _, n := range rows {
		var parent int64
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		children[parent] = append(children[parent], n)
	}

	var build func(parent int64) book.Forest
	build = func(parent int64) book.Forest {
		nodes := children[parent]
		if len(nodes) == 0 {
			return nil
		}
		out := make(book.Forest, len(nodes))
		for i, n := range nodes {
			out[i] = book.Record{From: n.FromSq, To: n.ToSq, Children: build(n.ID)}
		}
		return out
	}
	forest := build(0)
	if forest == nil {
		forest = book.Forest{}
	}
	return forest, nil
}
