package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStoreOpen(t *testing.T) {
	ctx := context.Background()
	if _, closeStore, err := (StoreConfig{Driver: DriverMemory}).Open(ctx); err != nil {
		t.Errorf("memory: %v", err)
	} else {
		closeStore()
	}

	path := filepath.Join(t.TempDir(), "takeoff.db")
	if _, closeStore, err := (StoreConfig{Driver: DriverSQLite, Path: path}).Open(ctx); err != nil {
		t.Errorf("sqlite: %v", err)
	} else {
		closeStore()
	}

	if _, _, err := (StoreConfig{Driver: "postgres"}).Open(ctx); err == nil {
		t.Error("expected an unknown driver to fail")
	}
}
