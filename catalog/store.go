package catalog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/stevecastle/tileroom/geometry"
)

// Store persists the catalog index in SQLite so repeat startups and the
// preview server can list products without rescanning the asset tree.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the index database at path and ensures the
// schema. Use ":memory:" for an ephemeral index.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			width_mm REAL NOT NULL DEFAULT 0,
			height_mm REAL NOT NULL DEFAULT 0,
			affinity TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure tiles schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the persisted index for the given product set in one
// transaction.
func (s *Store) Replace(products []Product) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM tiles`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tiles (id, name, path, width_mm, height_mm, affinity) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range products {
		if _, err := stmt.Exec(p.ID, p.Name, p.Path, p.Size.Width, p.Size.Height, string(p.Affinity)); err != nil {
			return fmt.Errorf("insert tile %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads the persisted index back, ordered by id.
func (s *Store) Load() ([]Product, error) {
	rows, err := s.db.Query(`SELECT id, name, path, width_mm, height_mm, affinity FROM tiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		var w, h float64
		var affinity string
		if err := rows.Scan(&p.ID, &p.Name, &p.Path, &w, &h, &affinity); err != nil {
			return nil, err
		}
		p.Size = geometry.SizeMM{Width: w, Height: h}
		p.Affinity = SurfaceAffinity(affinity)
		products = append(products, p)
	}
	return products, rows.Err()
}
