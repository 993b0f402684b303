package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/milk9111/gridsystem/pathfinding"
)

// JSONStore keeps everything in a single JSON file.
type JSONStore struct {
	path   string
	mutex  sync.RWMutex
	fileMu sync.Mutex
	data   jsonData
}

type jsonData struct {
	NavMeshes map[string]pathfinding.Snapshot `json:"navmeshes"`
	Layers    []string                        `json:"layers,omitempty"`
}

// NewJSONStore opens path, creating it when missing.
func NewJSONStore(path string) (*JSONStore, error) {
	js := &JSONStore{
		path: path,
		data: jsonData{NavMeshes: make(map[string]pathfinding.Snapshot)},
	}

	if _, err := os.Stat(path); err == nil {
		if err := js.loadFromFile(); err != nil {
			return nil, fmt.Errorf("storage: load %s: %w", path, err)
		}
	} else if err := js.saveToFile(); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", path, err)
	}
	return js, nil
}

func (js *JSONStore) Path() string {
	return js.path
}

func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, &js.data); err != nil {
		return err
	}
	if js.data.NavMeshes == nil {
		js.data.NavMeshes = make(map[string]pathfinding.Snapshot)
	}
	return nil
}

// saveToFile writes through a temp file so a crash never leaves half a store.
func (js *JSONStore) saveToFile() error {
	js.fileMu.Lock()
	defer js.fileMu.Unlock()

	js.mutex.RLock()
	data, err := json.MarshalIndent(js.data, "", "  ")
	js.mutex.RUnlock()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(js.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := js.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, js.path)
}

func (js *JSONStore) SaveNavMesh(level string, snap pathfinding.Snapshot) error {
	snap.Cells = append([]pathfinding.Cell(nil), snap.Cells...)
	js.mutex.Lock()
	js.data.NavMeshes[level] = snap
	js.mutex.Unlock()

	if err := js.saveToFile(); err != nil {
		return fmt.Errorf("storage: save navmesh %s: %w", level, err)
	}
	return nil
}

func (js *JSONStore) LoadNavMesh(level string) (pathfinding.Snapshot, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	snap, ok := js.data.NavMeshes[level]
	if !ok {
		return pathfinding.Snapshot{}, fmt.Errorf("%w: navmesh %s", ErrNotFound, level)
	}
	snap.Cells = append([]pathfinding.Cell(nil), snap.Cells...)
	return snap, nil
}

func (js *JSONStore) SaveLayers(names []string) error {
	js.mutex.Lock()
	js.data.Layers = append([]string(nil), names...)
	js.mutex.Unlock()

	if err := js.saveToFile(); err != nil {
		return fmt.Errorf("storage: save layers: %w", err)
	}
	return nil
}

func (js *JSONStore) LoadLayers() ([]string, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	if js.data.Layers == nil {
		return nil, fmt.Errorf("%w: layers", ErrNotFound)
	}
	return append([]string(nil), js.data.Layers...), nil
}

func (js *JSONStore) Close() error {
	return nil
}
