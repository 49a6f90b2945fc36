package aplib_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"aplib-go/internal/aplib"
	"aplib-go/internal/audit"
	"aplib-go/internal/fs"
	"aplib-go/internal/testutil"
)

type countingObserver struct {
	loaded map[aplib.ObjectType]int
	failed map[aplib.ObjectType]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		loaded: make(map[aplib.ObjectType]int),
		failed: make(map[aplib.ObjectType]int),
	}
}

func (o *countingObserver) Loaded(t aplib.ObjectType) { o.loaded[t]++ }
func (o *countingObserver) Failed(t aplib.ObjectType) { o.failed[t]++ }

type stubVolumeSource struct {
	volumes []*aplib.Volume
	err     error
	calls   int
}

func (s *stubVolumeSource) Volumes(context.Context) ([]*aplib.Volume, error) {
	s.calls++
	return s.volumes, s.err
}

// populatedBundle writes a small library: one folder holding a project
// with a user album, two masters (one referenced) and three versions.
func populatedBundle(t *testing.T) *testutil.Bundle {
	t.Helper()
	b := testutil.NewBundle(t)

	b.WriteFolder("LibraryFolder", testutil.Record{"uuid": "LibraryFolder", "name": "Library", "folderType": int64(1)})
	b.WriteFolder("Trips", testutil.Record{"uuid": "f-trips", "parentFolderUuid": "LibraryFolder", "name": "Trips", "folderType": int64(1)})
	b.WriteFolder("Sydney", testutil.Record{"uuid": "p-sydney", "parentFolderUuid": "f-trips", "name": "Sydney", "folderType": int64(2)})
	b.WriteAlbum("Best", testutil.Record{
		"InfoDictionary": testutil.Record{"uuid": "a-best", "folderUuid": "p-sydney", "name": "Best", "albumSubclass": int64(3)},
		"versionUuids":   []any{"v-1"},
	})

	b.WriteMaster("m1", testutil.Record{"uuid": "m-1", "projectUuid": "p-sydney", "name": "IMG_0417", "imagePath": "2009/IMG_0417.CR2"})
	b.WriteMaster("m2", testutil.Record{
		"uuid": "m-2", "projectUuid": "p-sydney", "name": "IMG_0418",
		"imagePath": "Photos/IMG_0418.CR2", "fileVolumeUuid": "vol-1", "fileIsReference": true,
	})
	b.WriteVersion("m1", 0, testutil.Record{"uuid": "v-0", "masterUuid": "m-1", "versionNumber": int64(0), "name": "IMG_0417"})
	b.WriteVersion("m1", 1, testutil.Record{"uuid": "v-1", "masterUuid": "m-1", "versionNumber": int64(1), "name": "IMG_0417", "mainRating": int64(5)})
	b.WriteVersion("m2", 1, testutil.Record{"uuid": "v-2", "masterUuid": "m-2", "versionNumber": int64(1), "name": "IMG_0418"})

	b.WriteKeywords(7, []any{
		testutil.Record{"uuid": "kw-1", "name": "Places", "zChildren": []any{
			testutil.Record{"uuid": "kw-2", "name": "Sydney", "parentUuid": "kw-1"},
		}},
	})
	b.WriteModelInfo(testutil.Record{"databaseUuid": "db-1", "DatabaseVersion": int64(110), "masterCount": int64(2)})
	return b
}

func newLibrary(b *testutil.Bundle, opts ...aplib.Option) *aplib.Library {
	return aplib.NewLibrary(b.Path, fs.NewBundleLister(nil), opts...)
}

func TestLibrary_LibraryVersion(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		identifier string
		want       string
		wantErr    error
	}{
		{"aperture 3.6", "3.6", "com.apple.Aperture.library", "3.6", nil},
		{"no version", "", "com.apple.Aperture.library", "", aplib.ErrNoVersion},
		{"no identifier", "3.6", "", "", aplib.ErrNoBundleIdentifier},
		{"iphoto library", "9.6", "com.apple.iPhoto.library", "", aplib.ErrNotALibrary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBundle(t)
			b.WriteInfo(tt.version, tt.identifier)

			got, err := newLibrary(b).LibraryVersion()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LibraryVersion() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LibraryVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLibrary_LibraryVersion_UnreadableInfo(t *testing.T) {
	tests := []struct {
		name   string
		write  func(b *testutil.Bundle)
		reason audit.SkipReason
	}{
		{"corrupt", func(b *testutil.Bundle) { b.WriteRaw("Info.plist", []byte("bplist00garbage")) }, audit.ParseFailed},
		{"not a dictionary", func(b *testutil.Bundle) { b.WritePlist("Info.plist", []any{"3.6"}) }, audit.ParseFailed},
		{"missing", func(b *testutil.Bundle) { os.Remove(filepath.Join(b.Path, "Info.plist")) }, audit.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBundle(t)
			tt.write(b)
			reporter := audit.NewReporter()
			lib := newLibrary(b)
			lib.SetReporter(reporter)

			if _, err := lib.LibraryVersion(); !errors.Is(err, aplib.ErrNoVersion) {
				t.Fatalf("LibraryVersion() error = %v, want ErrNoVersion", err)
			}
			path := filepath.Join(b.Path, "Info.plist")
			if reason, ok := reporter.SkipReasonFor(path); !ok || reason != tt.reason {
				t.Errorf("SkipReasonFor(Info.plist) = %v, %v, want %v", reason, ok, tt.reason)
			}
		})
	}
}

func TestLibrary_ModelInfo(t *testing.T) {
	lib := newLibrary(populatedBundle(t))
	mi, err := lib.ModelInfo()
	if err != nil {
		t.Fatalf("ModelInfo() error = %v", err)
	}
	if *mi.DBUUID != "db-1" || *mi.DBVersion != 110 || *mi.MasterCount != 2 {
		t.Errorf("ModelInfo() = %+v", mi)
	}
}

func TestLibrary_LoadAll(t *testing.T) {
	obs := newCountingObserver()
	lib := newLibrary(populatedBundle(t), aplib.WithObserver(obs))

	loads := []func(aplib.Progress) error{lib.LoadFolders, lib.LoadAlbums, lib.LoadMasters, lib.LoadVersions}
	for _, load := range loads {
		if err := load(nil); err != nil {
			t.Fatalf("load error = %v", err)
		}
	}

	if got := lib.Folders(); !slices.Equal(got, []string{"LibraryFolder", "f-trips", "p-sydney"}) {
		t.Errorf("Folders() = %v", got)
	}
	if got := lib.Albums(); !slices.Equal(got, []string{"a-best"}) {
		t.Errorf("Albums() = %v", got)
	}
	if got := lib.Masters(); !slices.Equal(got, []string{"m-1", "m-2"}) {
		t.Errorf("Masters() = %v", got)
	}
	if got := lib.Versions(); !slices.Equal(got, []string{"v-0", "v-1", "v-2"}) {
		t.Errorf("Versions() = %v", got)
	}
	if obs.loaded[aplib.TypeVersion] != 3 || obs.loaded[aplib.TypeFolder] != 3 {
		t.Errorf("observer loaded = %v", obs.loaded)
	}

	w, ok := lib.Get("v-1")
	if !ok || w.Kind != aplib.TypeVersion || *w.Version.Rating != 5 {
		t.Fatalf("Get(v-1) = %+v, %v", w, ok)
	}
	if w.Name() != "IMG_0417" || *w.ParentUUID() != "m-1" {
		t.Errorf("Name(), ParentUUID() = %q, %q", w.Name(), *w.ParentUUID())
	}

	tree := lib.Tree()
	if got := tree["p-sydney"]; !slices.Equal(got, []string{"a-best", "m-1", "m-2"}) {
		t.Errorf("Tree()[p-sydney] = %v", got)
	}
	if got := tree["m-1"]; !slices.Equal(got, []string{"v-0", "v-1"}) {
		t.Errorf("Tree()[m-1] = %v", got)
	}
	if got := tree[""]; !slices.Equal(got, []string{"LibraryFolder"}) {
		t.Errorf("Tree()[\"\"] = %v", got)
	}
}

func TestLibrary_LoadTwiceIsNoop(t *testing.T) {
	obs := newCountingObserver()
	lib := newLibrary(populatedBundle(t), aplib.WithObserver(obs))

	for range 2 {
		if err := lib.LoadMasters(nil); err != nil {
			t.Fatalf("LoadMasters() error = %v", err)
		}
	}
	if obs.loaded[aplib.TypeMaster] != 2 {
		t.Errorf("masters loaded %d times, want 2", obs.loaded[aplib.TypeMaster])
	}
}

func TestLibrary_Cancel(t *testing.T) {
	lib := newLibrary(populatedBundle(t))

	calls := 0
	err := lib.LoadVersions(func(n uint64) bool {
		calls++
		return calls < 2
	})
	if !errors.Is(err, aplib.ErrCancelled) {
		t.Fatalf("LoadVersions() error = %v, want ErrCancelled", err)
	}
	if calls != 2 {
		t.Errorf("progress called %d times, want 2", calls)
	}
}

func TestLibrary_CorruptFileIsSkipped(t *testing.T) {
	b := populatedBundle(t)
	bad := b.WriteRaw(filepath.Join("Database", "Folders", "Broken.apfolder"), []byte("bplist00garbage"))

	reporter := audit.NewReporter()
	obs := newCountingObserver()
	lib := newLibrary(b, aplib.WithObserver(obs))
	lib.SetReporter(reporter)

	if err := lib.LoadFolders(nil); err != nil {
		t.Fatalf("LoadFolders() error = %v", err)
	}
	if len(lib.Folders()) != 3 {
		t.Errorf("Folders() = %v, want 3 good folders", lib.Folders())
	}
	if reason, ok := reporter.SkipReasonFor(bad); !ok || reason != audit.ParseFailed {
		t.Errorf("SkipReasonFor(broken) = %v, %v, want ParseFailed", reason, ok)
	}
	if obs.failed[aplib.TypeFolder] != 1 {
		t.Errorf("observer failed = %v", obs.failed)
	}
	if reporter.ParsedCount() != 3 {
		t.Errorf("ParsedCount() = %d, want 3", reporter.ParsedCount())
	}
}

func TestLibrary_Keywords(t *testing.T) {
	lib := newLibrary(populatedBundle(t))

	first, err := lib.Keywords()
	if err != nil {
		t.Fatalf("Keywords() error = %v", err)
	}
	second, err := lib.Keywords()
	if err != nil {
		t.Fatalf("Keywords() error = %v", err)
	}
	if len(first) != 1 || &first[0] != &second[0] {
		t.Error("Keywords() should parse once and return the same forest")
	}

	w, ok := lib.Get("kw-2")
	if !ok || w.Kind != aplib.TypeKeyword || w.Name() != "Sydney" {
		t.Errorf("Get(kw-2) = %+v, %v", w, ok)
	}
}

func TestLibrary_KeywordsMissing(t *testing.T) {
	reporter := audit.NewReporter()
	lib := newLibrary(testutil.NewBundle(t))
	lib.SetReporter(reporter)

	if _, err := lib.Keywords(); err == nil {
		t.Fatal("Keywords() without Keywords.plist should fail")
	}
	if reporter.SkippedCount() != 1 {
		t.Errorf("SkippedCount() = %d, want 1", reporter.SkippedCount())
	}
}

func TestLibrary_ResolveMasterPath(t *testing.T) {
	b := populatedBundle(t)
	b.WriteVolume("Archive", testutil.Record{"uuid": "vol-1", "volumeName": "Archive", "diskUuid": "disk-1"})
	b.WriteMaster("m3", testutil.Record{"uuid": "m-3", "projectUuid": "p-sydney"})

	lib := newLibrary(b, aplib.WithMountRoot("/mnt"))
	if err := lib.LoadMasters(nil); err != nil {
		t.Fatalf("LoadMasters() error = %v", err)
	}
	if err := lib.LoadVolumes(context.Background(), nil); err != nil {
		t.Fatalf("LoadVolumes() error = %v", err)
	}

	tests := []struct {
		uuid    string
		want    string
		wantErr error
	}{
		{"m-1", filepath.Join(b.Path, "Masters", "2009/IMG_0417.CR2"), nil},
		{"m-2", filepath.Join("/mnt", "Archive", "Photos/IMG_0418.CR2"), nil},
		{"m-3", "", aplib.ErrNoImagePath},
		{"nope", "", aplib.ErrNotFound},
		{"p-sydney", "", aplib.ErrNotFound},
	}
	for _, tt := range tests {
		got, err := lib.ResolveMasterPath(tt.uuid)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ResolveMasterPath(%s) error = %v, want %v", tt.uuid, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveMasterPath(%s) = %q, want %q", tt.uuid, got, tt.want)
		}
	}
}

func TestLibrary_ResolveMasterPath_UnknownVolume(t *testing.T) {
	b := populatedBundle(t)
	lib := newLibrary(b)
	if err := lib.LoadMasters(nil); err != nil {
		t.Fatalf("LoadMasters() error = %v", err)
	}

	got, err := lib.ResolveMasterPath("m-2")
	if err != nil {
		t.Fatalf("ResolveMasterPath() error = %v", err)
	}
	if want := filepath.Join(b.Path, "Masters", "Photos/IMG_0418.CR2"); got != want {
		t.Errorf("ResolveMasterPath() = %q, want %q", got, want)
	}
}

func TestLibrary_VolumeSourceFallback(t *testing.T) {
	src := &stubVolumeSource{volumes: []*aplib.Volume{
		aplib.NewVolume(1, testutil.Ptr("vol-1"), testutil.Ptr("Archive"), nil),
		aplib.NewVolume(2, nil, testutil.Ptr("No uuid"), nil),
	}}
	lib := newLibrary(populatedBundle(t), aplib.WithVolumeSource(src))

	if err := lib.LoadVolumes(context.Background(), nil); err != nil {
		t.Fatalf("LoadVolumes() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
	if got := lib.Volumes(); !slices.Equal(got, []string{"vol-1"}) {
		t.Errorf("Volumes() = %v", got)
	}
}

func TestLibrary_VolumePlistsWinOverSource(t *testing.T) {
	b := populatedBundle(t)
	b.WriteVolume("Archive", testutil.Record{"uuid": "vol-plist", "volumeName": "Archive"})
	src := &stubVolumeSource{err: errors.New("should not be called")}

	lib := newLibrary(b, aplib.WithVolumeSource(src))
	if err := lib.LoadVolumes(context.Background(), nil); err != nil {
		t.Fatalf("LoadVolumes() error = %v", err)
	}
	if src.calls != 0 {
		t.Errorf("source called %d times, want 0", src.calls)
	}
	if got := lib.Volumes(); !slices.Equal(got, []string{"vol-plist"}) {
		t.Errorf("Volumes() = %v", got)
	}
}

func TestLibrary_VolumeSourceError(t *testing.T) {
	src := &stubVolumeSource{err: errors.New("database locked")}
	lib := newLibrary(populatedBundle(t), aplib.WithVolumeSource(src))

	if err := lib.LoadVolumes(context.Background(), nil); err == nil {
		t.Error("LoadVolumes() should return the source error")
	}
}

func TestLibrary_AuditPartition(t *testing.T) {
	b := populatedBundle(t)
	b.WriteVersion("m2", 2, testutil.Record{"uuid": "v-3", "masterUuid": "m-2", "futureKey": "x"})

	reporter := audit.NewReporter()
	lib := newLibrary(b)
	lib.SetReporter(reporter)

	if _, err := lib.LibraryVersion(); err != nil {
		t.Fatalf("LibraryVersion() error = %v", err)
	}
	if err := lib.LoadVersions(nil); err != nil {
		t.Fatalf("LoadVersions() error = %v", err)
	}

	// Info.plist plus four versions.
	if got := reporter.ParsedCount(); got != 5 {
		t.Errorf("ParsedCount() = %d, want 5", got)
	}
	summary := reporter.Summarize()
	if summary.Ignored["futureKey"] != 1 {
		t.Errorf("Summary.Ignored[futureKey] = %d, want 1", summary.Ignored["futureKey"])
	}
	if summary.Ignored["CFBundlePackageType"] != 1 {
		t.Errorf("Summary.Ignored[CFBundlePackageType] = %d, want 1", summary.Ignored["CFBundlePackageType"])
	}
}
