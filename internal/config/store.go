package config

import (
	"context"
	"fmt"

	"github.com/philipparndt/takeoff/internal/measurement"
)

// Open opens the configured persistence adapter. The returned func closes it.
func (c StoreConfig) Open(ctx context.Context) (measurement.Store, func(), error) {
	switch c.Driver {
	case DriverSQLite:
		db, err := measurement.OpenSQLite(ctx, c.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case DriverMemory, "":
		return measurement.NewMemStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
}
