package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"aplib-go/internal/database"
)

// NewTestAuditStore creates an in-memory audit store with migrations
// applied, using FixedClock and StubIDGenerator. It is closed when the
// test completes.
func NewTestAuditStore(t *testing.T) *database.AuditStore {
	t.Helper()

	store, err := database.NewAuditStore(":memory:", FixedClock(), NewStubIDGenerator())
	if err != nil {
		t.Fatalf("failed to create audit store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// VolumeRow is one RKVolume row. Nil fields are stored as NULL.
type VolumeRow struct {
	ModelID  int64
	UUID     *string
	Name     *string
	DiskUUID *string
}

// WriteLibraryDB creates Database/apdb/Library.apdb below bundlePath with an
// RKVolume table holding rows.
func WriteLibraryDB(t *testing.T, bundlePath string, rows ...VolumeRow) string {
	t.Helper()

	path := filepath.Join(bundlePath, database.LibraryDBPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create apdb directory: %v", err)
	}

	db, err := database.OpenConnection(path)
	if err != nil {
		t.Fatalf("failed to open library database: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE RKVolume (
		modelId INTEGER PRIMARY KEY,
		uuid VARCHAR,
		name VARCHAR,
		diskUuid VARCHAR,
		createDate TIMESTAMP
	)`)
	if err != nil {
		t.Fatalf("failed to create RKVolume: %v", err)
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO RKVolume (modelId, uuid, name, diskUuid) VALUES (?, ?, ?, ?)`,
			r.ModelID, r.UUID, r.Name, r.DiskUUID); err != nil {
			t.Fatalf("failed to insert RKVolume row: %v", err)
		}
	}
	return path
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
