package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"aplib-go/internal/aplib"
)

// LibraryDBPath is the location of the library database inside a bundle.
var LibraryDBPath = filepath.Join("Database", "apdb", "Library.apdb")

// LibraryDatabase reads rows from a library's Library.apdb.
type LibraryDatabase struct {
	db *sql.DB
}

var _ aplib.VolumeSource = (*LibraryDatabase)(nil)

// OpenLibraryDatabase opens the Library.apdb of the bundle at bundlePath
// read-only.
func OpenLibraryDatabase(bundlePath string) (*LibraryDatabase, error) {
	db, err := OpenReadOnly(filepath.Join(bundlePath, LibraryDBPath))
	if err != nil {
		return nil, err
	}
	return &LibraryDatabase{db: db}, nil
}

// NewLibraryDatabaseFromDB wraps an existing connection.
func NewLibraryDatabaseFromDB(db *sql.DB) *LibraryDatabase {
	return &LibraryDatabase{db: db}
}

// Volumes returns every row of RKVolume.
func (l *LibraryDatabase) Volumes(ctx context.Context) ([]*aplib.Volume, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT modelId, uuid, name, diskUuid FROM RKVolume ORDER BY modelId`)
	if err != nil {
		return nil, fmt.Errorf("querying RKVolume: %w", err)
	}
	defer rows.Close()

	var volumes []*aplib.Volume
	for rows.Next() {
		var (
			modelID              int64
			uuid, name, diskUUID sql.NullString
		)
		if err := rows.Scan(&modelID, &uuid, &name, &diskUUID); err != nil {
			return nil, fmt.Errorf("scanning RKVolume: %w", err)
		}
		volumes = append(volumes, aplib.NewVolume(modelID, nullString(uuid), nullString(name), nullString(diskUUID)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating RKVolume: %w", err)
	}
	return volumes, nil
}

func (l *LibraryDatabase) Close() error {
	return l.db.Close()
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
