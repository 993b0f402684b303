package storage

import (
	"fmt"
	"path/filepath"

	"github.com/milk9111/gridsystem/config"
)

// Open builds the store named by settings. The "none" driver yields a nil
// Store and no error.
func Open(s config.StoreSettings) (Store, error) {
	switch s.Driver {
	case "", config.DriverNone:
		return nil, nil
	case config.DriverJSON:
		js, err := NewJSONStore(filepath.Join(s.Dir, "gridnav.json"))
		if err != nil {
			return nil, err
		}
		return js, nil
	case config.DriverPostgres:
		ps, err := NewPostgresStore(s.DSN)
		if err != nil {
			return nil, err
		}
		return ps, nil
	}
	return nil, fmt.Errorf("storage: unknown driver %q", s.Driver)
}
