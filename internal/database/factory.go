package database

import (
	"fmt"
	"os"
	"path/filepath"

	"aplib-go/internal/config"
)

// NewAuditStoreFromConfig creates the audit store described by cfg. It
// returns nil, nil when auditing is disabled.
func NewAuditStoreFromConfig(cfg config.AuditConfig) (*AuditStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite audit store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating audit data dir: %w", err)
		}
		return NewAuditStore(filepath.Join(cfg.DataDir, "audit.db"), nil, nil)
	case "memory":
		return NewAuditStore(memoryPath, nil, nil)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown audit store type: %s", cfg.Type)
	}
}
