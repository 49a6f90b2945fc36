package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"
)

// Record is a plist dictionary written by the Bundle helpers.
type Record = map[string]any

// DefaultImportDir is the Versions subdirectory WriteMaster and
// WriteVersion use: Versions/<year>/<month>/<day>/<import>.
var DefaultImportDir = filepath.Join("Versions", "2009", "10", "26", "20091026-210000")

// Bundle is a fake .aplibrary directory for tests.
type Bundle struct {
	t    *testing.T
	Path string
}

// NewBundle creates an empty bundle in a temporary directory with a valid
// Aperture 3.6 Info.plist.
func NewBundle(t *testing.T) *Bundle {
	t.Helper()

	b := &Bundle{t: t, Path: filepath.Join(t.TempDir(), "Test.aplibrary")}
	if err := os.MkdirAll(filepath.Join(b.Path, "Database"), 0755); err != nil {
		t.Fatalf("failed to create bundle: %v", err)
	}
	b.WriteInfo("3.6", "com.apple.Aperture.library")
	return b
}

// WriteInfo writes Info.plist. Empty arguments leave the key out.
func (b *Bundle) WriteInfo(version, identifier string) string {
	b.t.Helper()

	info := Record{"CFBundlePackageType": "BNDL"}
	if version != "" {
		info["CFBundleShortVersionString"] = version
	}
	if identifier != "" {
		info["CFBundleIdentifier"] = identifier
	}
	return b.WritePlist("Info.plist", info)
}

// WritePlist encodes v as an XML plist at rel, relative to the bundle root.
func (b *Bundle) WritePlist(rel string, v any) string {
	b.t.Helper()

	data, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		b.t.Fatalf("failed to encode %s: %v", rel, err)
	}
	return b.WriteRaw(rel, data)
}

// WriteRaw writes data at rel, relative to the bundle root.
func (b *Bundle) WriteRaw(rel string, data []byte) string {
	b.t.Helper()

	path := filepath.Join(b.Path, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		b.t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		b.t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}

// WriteFolder writes Database/Folders/<name>.apfolder.
func (b *Bundle) WriteFolder(name string, r Record) string {
	return b.WritePlist(filepath.Join("Database", "Folders", name+".apfolder"), r)
}

// WriteAlbum writes Database/Albums/<name>.apalbum.
func (b *Bundle) WriteAlbum(name string, r Record) string {
	return b.WritePlist(filepath.Join("Database", "Albums", name+".apalbum"), r)
}

// WriteVolume writes Database/Volumes/<name>.apvolume.
func (b *Bundle) WriteVolume(name string, r Record) string {
	return b.WritePlist(filepath.Join("Database", "Volumes", name+".apvolume"), r)
}

// WriteMaster writes Master.apmaster into the directory of masterDir
// below DefaultImportDir.
func (b *Bundle) WriteMaster(masterDir string, r Record) string {
	return b.WritePlist(filepath.Join("Database", DefaultImportDir, masterDir, "Master.apmaster"), r)
}

// WriteVersion writes Version-<n>.apversion next to the master of masterDir.
func (b *Bundle) WriteVersion(masterDir string, n int, r Record) string {
	name := fmt.Sprintf("Version-%d.apversion", n)
	return b.WritePlist(filepath.Join("Database", DefaultImportDir, masterDir, name), r)
}

// WriteKeywords writes Database/Keywords.plist.
func (b *Bundle) WriteKeywords(version int64, keywords []any) string {
	return b.WritePlist(filepath.Join("Database", "Keywords.plist"), Record{
		"keywords_version": version,
		"keywords":         keywords,
	})
}

// WriteModelInfo writes Database/DataModelVersion.plist.
func (b *Bundle) WriteModelInfo(r Record) string {
	return b.WritePlist(filepath.Join("Database", "DataModelVersion.plist"), r)
}
