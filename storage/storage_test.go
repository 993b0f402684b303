package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/milk9111/gridsystem/config"
	"github.com/milk9111/gridsystem/pathfinding"
)

func sampleSnapshot() pathfinding.Snapshot {
	return pathfinding.Snapshot{
		Width:    2,
		Height:   2,
		CellSize: 1.5,
		Cells: []pathfinding.Cell{
			{Area: pathfinding.Walkable},
			{Area: pathfinding.NotWalkable},
			{Area: pathfinding.NotWalkable, Mask: 4, Masked: true},
			{Area: pathfinding.Walkable},
		},
	}
}

// exercise runs the same round trip against any Store.
func exercise(t *testing.T, s Store) {
	t.Helper()
	if _, err := s.LoadNavMesh("nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadNavMesh(missing) err = %v", err)
	}

	snap := sampleSnapshot()
	if err := s.SaveNavMesh("demo", snap); err != nil {
		t.Fatalf("SaveNavMesh: %v", err)
	}
	got, err := s.LoadNavMesh("demo")
	if err != nil {
		t.Fatalf("LoadNavMesh: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("LoadNavMesh = %+v, want %+v", got, snap)
	}

	snap.Cells[0].Area = pathfinding.NotWalkable
	if err := s.SaveNavMesh("demo", snap); err != nil {
		t.Fatalf("SaveNavMesh(overwrite): %v", err)
	}
	got, _ = s.LoadNavMesh("demo")
	if got.Cells[0].Area != pathfinding.NotWalkable {
		t.Fatalf("overwrite lost")
	}

	names := []string{"Ground", "Water"}
	if err := s.SaveLayers(names); err != nil {
		t.Fatalf("SaveLayers: %v", err)
	}
	gotNames, err := s.LoadLayers()
	if err != nil || !reflect.DeepEqual(gotNames, names) {
		t.Fatalf("LoadLayers = %v, %v", gotNames, err)
	}
}

func TestJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "gridnav.json")
	js, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if _, err := js.LoadLayers(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadLayers(empty) err = %v", err)
	}
	exercise(t, js)

	reopened, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	snap, err := reopened.LoadNavMesh("demo")
	if err != nil || snap.Width != 2 || len(snap.Cells) != 4 {
		t.Fatalf("reopened LoadNavMesh = %+v, %v", snap, err)
	}

	nav := pathfinding.NewNavMesh()
	if err := nav.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
}

func TestJSONStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridnav.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(path); err == nil {
		t.Fatalf("corrupt store opened")
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.StoreSettings{Driver: config.DriverNone})
	if err != nil || s != nil {
		t.Fatalf("Open(none) = %v, %v", s, err)
	}
	s, err = Open(config.StoreSettings{Driver: config.DriverJSON, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(json): %v", err)
	}
	if _, ok := s.(*JSONStore); !ok {
		t.Fatalf("Open(json) = %T", s)
	}
	if _, err := Open(config.StoreSettings{Driver: "redis"}); err == nil {
		t.Fatalf("unknown driver opened")
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("GRIDNAV_TEST_DSN")
	if dsn == "" {
		t.Skip("GRIDNAV_TEST_DSN not set")
	}
	ps, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer ps.Close()
	if _, err := ps.db.Exec(`DELETE FROM navmeshes WHERE level IN ('demo', 'nowhere')`); err != nil {
		t.Fatal(err)
	}
	exercise(t, ps)
}
