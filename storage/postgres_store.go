package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/milk9111/gridsystem/pathfinding"
)

const schema = `
CREATE TABLE IF NOT EXISTS navmeshes (
	level TEXT PRIMARY KEY,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	cell_size DOUBLE PRECISION NOT NULL,
	cells JSONB NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS layer_names (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	names TEXT[] NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

// PostgresStore keeps snapshots in PostgreSQL. Cells are stored as JSONB,
// layer names as a single TEXT[] row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: init schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (ps *PostgresStore) SaveNavMesh(level string, snap pathfinding.Snapshot) error {
	cells, err := json.Marshal(snap.Cells)
	if err != nil {
		return fmt.Errorf("storage: marshal navmesh %s: %w", level, err)
	}

	query := `
	INSERT INTO navmeshes (level, width, height, cell_size, cells)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (level)
	DO UPDATE SET
		width = $2, height = $3, cell_size = $4, cells = $5,
		updated_at = NOW()
	`
	if _, err := ps.db.Exec(query, level, snap.Width, snap.Height, snap.CellSize, string(cells)); err != nil {
		return fmt.Errorf("storage: save navmesh %s: %w", level, err)
	}
	return nil
}

func (ps *PostgresStore) LoadNavMesh(level string) (pathfinding.Snapshot, error) {
	query := `SELECT width, height, cell_size, cells FROM navmeshes WHERE level = $1`

	var snap pathfinding.Snapshot
	var cells string
	err := ps.db.QueryRow(query, level).Scan(&snap.Width, &snap.Height, &snap.CellSize, &cells)
	if errors.Is(err, sql.ErrNoRows) {
		return pathfinding.Snapshot{}, fmt.Errorf("%w: navmesh %s", ErrNotFound, level)
	}
	if err != nil {
		return pathfinding.Snapshot{}, fmt.Errorf("storage: load navmesh %s: %w", level, err)
	}
	if err := json.Unmarshal([]byte(cells), &snap.Cells); err != nil {
		return pathfinding.Snapshot{}, fmt.Errorf("storage: unmarshal navmesh %s: %w", level, err)
	}
	return snap, nil
}

func (ps *PostgresStore) SaveLayers(names []string) error {
	query := `
	INSERT INTO layer_names (id, names) VALUES (1, $1)
	ON CONFLICT (id) DO UPDATE SET names = $1, updated_at = NOW()
	`
	if _, err := ps.db.Exec(query, pq.Array(names)); err != nil {
		return fmt.Errorf("storage: save layers: %w", err)
	}
	return nil
}

func (ps *PostgresStore) LoadLayers() ([]string, error) {
	var names []string
	err := ps.db.QueryRow(`SELECT names FROM layer_names WHERE id = 1`).Scan(pq.Array(&names))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: layers", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load layers: %w", err)
	}
	return names, nil
}

func (ps *PostgresStore) Close() error {
	log.Printf("storage: closing database connection")
	return ps.db.Close()
}
