package aplib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

const (
	infoPlist        = "Info.plist"
	bundleIdentifier = "com.apple.Aperture.library"
	databaseDir      = "Database"
	mastersDir       = "Masters"

	dataModelPlist = "DataModelVersion.plist"
	keywordsPlist  = "Keywords.plist"
	albumsDir      = "Albums"
	foldersDir     = "Folders"
	volumesDir     = "Volumes"
	versionsDir    = "Versions"

	// Versions/<year>/<month>/<day>/<import>/<master>
	versionsDepth = 4

	// DefaultMountRoot is where external volumes are mounted.
	DefaultMountRoot = "/Volumes"
)

var (
	// ErrNoVersion is returned when Info.plist has no version string.
	ErrNoVersion = errors.New("no library version found")
	// ErrNotALibrary is returned when the bundle identifier is not Aperture's.
	ErrNotALibrary = errors.New("not an Aperture library")
	// ErrNoBundleIdentifier is returned when Info.plist has no bundle identifier.
	ErrNoBundleIdentifier = errors.New("no bundle identifier")
	// ErrCancelled is returned when a progress callback stops a load.
	ErrCancelled = errors.New("load cancelled")
	// ErrNotFound is returned when a uuid is not in the store.
	ErrNotFound = errors.New("object not found")
	// ErrNoImagePath is returned for masters without an image path.
	ErrNoImagePath = errors.New("master has no image path")
)

// Progress is polled after each loaded item with the number of items
// processed since the last call. Returning false cancels the batch.
type Progress func(n uint64) bool

// ProgressNone never cancels.
func ProgressNone(uint64) bool { return true }

// Lister enumerates record files in the library bundle.
type Lister interface {
	// List returns the files directly in dir with extension ext, sorted.
	List(dir, ext string) ([]string, error)
	// ListTree returns the files with extension ext found in the
	// directories depth+1 levels below dir, sorted.
	ListTree(dir string, depth int, ext string) ([]string, error)
}

// Observer is notified of load outcomes.
type Observer interface {
	Loaded(t ObjectType)
	Failed(t ObjectType)
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the library logger.
func WithLogger(l Logger) Option {
	return func(lib *Library) { lib.log = orNop(l) }
}

// WithVolumeSource sets the source used when the bundle has no volume
// plists.
func WithVolumeSource(s VolumeSource) Option {
	return func(lib *Library) { lib.volumeSource = s }
}

// WithMountRoot overrides DefaultMountRoot.
func WithMountRoot(root string) Option {
	return func(lib *Library) { lib.mountRoot = root }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(lib *Library) { lib.observer = o }
}

// Library is an Aperture library bundle and the objects loaded from it.
type Library struct {
	path         string
	lister       Lister
	volumeSource VolumeSource
	observer     Observer
	log          Logger
	mountRoot    string

	version  string
	store    *Store
	reporter *audit.Reporter
	keywords []*Keyword
	loaded   map[ObjectType]map[string]struct{}
}

// NewLibrary returns a Library for the bundle at path. Nothing is read
// until a load method is called.
func NewLibrary(path string, lister Lister, opts ...Option) *Library {
	lib := &Library{
		path:      path,
		lister:    lister,
		log:       &NopLogger{},
		mountRoot: DefaultMountRoot,
		store:     NewStore(),
		loaded:    make(map[ObjectType]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// Path returns the bundle path.
func (l *Library) Path() string { return l.path }

// SetReporter enables auditing. A nil reporter disables it.
func (l *Library) SetReporter(r *audit.Reporter) { l.reporter = r }

// Reporter returns the audit reporter, or nil.
func (l *Library) Reporter() *audit.Reporter { return l.reporter }

// Store returns the object store.
func (l *Library) Store() *Store { return l.store }

// Get returns the object stored under uuid.
func (l *Library) Get(uuid string) (*Wrapper, bool) {
	return l.store.Get(uuid)
}

func (l *Library) databasePath(elem ...string) string {
	return filepath.Join(append([]string{l.path, databaseDir}, elem...)...)
}

func (l *Library) newReport() *audit.Report {
	if l.reporter == nil {
		return nil
	}
	return audit.NewReport()
}

// LibraryVersion checks the bundle identity and returns its version
// string. The result is cached.
func (l *Library) LibraryVersion() (string, error) {
	if l.version != "" {
		return l.version, nil
	}

	path := filepath.Join(l.path, infoPlist)
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		l.skipFile(path, err)
		return "", fmt.Errorf("reading %s: %w", infoPlist, ErrNoVersion)
	}

	report := l.newReport()
	version := audit.String(d, "CFBundleShortVersionString", report)
	if version == nil {
		return "", ErrNoVersion
	}
	id := audit.String(d, "CFBundleIdentifier", report)
	if id == nil {
		return "", ErrNoBundleIdentifier
	}
	if *id != bundleIdentifier {
		if report != nil {
			report.Skip("CFBundleIdentifier", audit.InvalidData)
		}
		return "", fmt.Errorf("bundle identifier %q: %w", *id, ErrNotALibrary)
	}
	if report != nil {
		report.AuditIgnored(d, "")
		l.reporter.Parsed(path, report)
	}
	l.version = *version
	return l.version, nil
}

// ModelInfo decodes DataModelVersion.plist.
func (l *Library) ModelInfo() (*ModelInfo, error) {
	path := l.databasePath(dataModelPlist)
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		l.skipFile(path, err)
		return nil, fmt.Errorf("reading model info: %w", err)
	}
	report := l.newReport()
	mi := ModelInfoFromDict(d, report)
	if report != nil {
		l.reporter.Parsed(path, report)
	}
	return mi, nil
}

// skipFile records a plist that could not be read: NotFound when it is
// missing, ParseFailed otherwise.
func (l *Library) skipFile(path string, err error) {
	if l.reporter == nil {
		return
	}
	reason := audit.ParseFailed
	if errors.Is(err, os.ErrNotExist) {
		reason = audit.NotFound
	}
	l.reporter.Skip(path, reason)
}

type loadFunc func(path string, report *audit.Report) (Object, error)

func (l *Library) loadFiles(t ObjectType, files []string, load loadFunc, progress Progress) error {
	if progress == nil {
		progress = ProgressNone
	}
	set := make(map[string]struct{}, len(files))
	l.loaded[t] = set

	for _, file := range files {
		report := l.newReport()
		obj, err := load(file, report)
		switch {
		case err != nil:
			if l.reporter != nil {
				l.reporter.Skip(file, audit.ParseFailed)
			}
			l.log.Warn("failed to decode object", "type", t, "file", file, "error", err)
			if l.observer != nil {
				l.observer.Failed(t)
			}
		case obj.UUID() == nil:
			l.log.Debug("object has no uuid", "type", t, "file", file)
		default:
			set[*obj.UUID()] = struct{}{}
			if l.reporter != nil {
				l.reporter.Parsed(file, report)
			}
			if !l.store.Put(Wrap(obj)) {
				l.log.Debug("duplicate uuid", "type", t, "uuid", *obj.UUID(), "file", file)
			}
			if l.observer != nil {
				l.observer.Loaded(t)
			}
		}
		if !progress(1) {
			l.log.Info("load cancelled", "type", t)
			return ErrCancelled
		}
	}
	return nil
}

func (l *Library) isLoaded(t ObjectType) bool {
	return len(l.loaded[t]) > 0
}

func (l *Library) loadDir(t ObjectType, dir, ext string, load loadFunc, progress Progress) error {
	if l.isLoaded(t) {
		return nil
	}
	files, err := l.lister.List(l.databasePath(dir), ext)
	if err != nil {
		l.log.Warn("listing records", "type", t, "dir", dir, "error", err)
		files = nil
	}
	return l.loadFiles(t, files, load, progress)
}

func (l *Library) loadVersionsTree(t ObjectType, ext string, load loadFunc, progress Progress) error {
	if l.isLoaded(t) {
		return nil
	}
	files, err := l.lister.ListTree(l.databasePath(versionsDir), versionsDepth, ext)
	if err != nil {
		l.log.Warn("listing records", "type", t, "dir", versionsDir, "error", err)
		files = nil
	}
	return l.loadFiles(t, files, load, progress)
}

// LoadFolders loads every .apfolder.
func (l *Library) LoadFolders(progress Progress) error {
	return l.loadDir(TypeFolder, foldersDir, "apfolder", func(p string, r *audit.Report) (Object, error) {
		return LoadFolder(p, r, l.log)
	}, progress)
}

// LoadAlbums loads every .apalbum.
func (l *Library) LoadAlbums(progress Progress) error {
	return l.loadDir(TypeAlbum, albumsDir, "apalbum", func(p string, r *audit.Report) (Object, error) {
		return LoadAlbum(p, r, l.log)
	}, progress)
}

// LoadMasters loads every .apmaster of the versions tree.
func (l *Library) LoadMasters(progress Progress) error {
	return l.loadVersionsTree(TypeMaster, "apmaster", func(p string, r *audit.Report) (Object, error) {
		return LoadMaster(p, r)
	}, progress)
}

// LoadVersions loads every .apversion of the versions tree.
func (l *Library) LoadVersions(progress Progress) error {
	return l.loadVersionsTree(TypeVersion, "apversion", func(p string, r *audit.Report) (Object, error) {
		return LoadVersion(p, r)
	}, progress)
}

// LoadVolumes loads the .apvolume plists or, when the bundle has none, the
// volumes from the VolumeSource.
func (l *Library) LoadVolumes(ctx context.Context, progress Progress) error {
	if l.isLoaded(TypeVolume) {
		return nil
	}
	files, err := l.lister.List(l.databasePath(volumesDir), "apvolume")
	if err != nil {
		l.log.Debug("listing volume plists", "error", err)
	}
	if len(files) > 0 || l.volumeSource == nil {
		return l.loadFiles(TypeVolume, files, func(p string, r *audit.Report) (Object, error) {
			return LoadVolume(p, r)
		}, progress)
	}

	if progress == nil {
		progress = ProgressNone
	}
	volumes, err := l.volumeSource.Volumes(ctx)
	if err != nil {
		return fmt.Errorf("loading volumes: %w", err)
	}
	set := make(map[string]struct{}, len(volumes))
	l.loaded[TypeVolume] = set
	for _, v := range volumes {
		if v.uuid != nil {
			set[*v.uuid] = struct{}{}
			l.store.Put(Wrap(v))
			if l.observer != nil {
				l.observer.Loaded(TypeVolume)
			}
		}
		if !progress(1) {
			return ErrCancelled
		}
	}
	return nil
}

// Keywords parses Keywords.plist once and returns the keyword forest.
// Every keyword of the forest is also put in the store.
func (l *Library) Keywords() ([]*Keyword, error) {
	if l.keywords != nil {
		return l.keywords, nil
	}
	path := l.databasePath(keywordsPlist)
	report := l.newReport()
	kws, err := ParseKeywords(path, report, l.log)
	if err != nil {
		if l.reporter != nil {
			l.reporter.Skip(path, audit.ParseFailed)
		}
		return nil, err
	}
	if report != nil {
		l.reporter.Parsed(path, report)
	}
	set := make(map[string]struct{})
	for _, root := range kws {
		root.Walk(func(kw *Keyword, _ int) {
			if kw.uuid == nil {
				return
			}
			set[*kw.uuid] = struct{}{}
			l.store.Put(Wrap(kw))
			if l.observer != nil {
				l.observer.Loaded(TypeKeyword)
			}
		})
	}
	l.loaded[TypeKeyword] = set
	l.keywords = kws
	return kws, nil
}

// UUIDs returns the uuids of the loaded objects of kind t, sorted.
func (l *Library) UUIDs(t ObjectType) []string {
	set := l.loaded[t]
	out := make([]string, 0, len(set))
	for uuid := range set {
		out = append(out, uuid)
	}
	sort.Strings(out)
	return out
}

func (l *Library) Folders() []string  { return l.UUIDs(TypeFolder) }
func (l *Library) Albums() []string   { return l.UUIDs(TypeAlbum) }
func (l *Library) Masters() []string  { return l.UUIDs(TypeMaster) }
func (l *Library) Versions() []string { return l.UUIDs(TypeVersion) }
func (l *Library) Volumes() []string  { return l.UUIDs(TypeVolume) }

// ResolveMasterPath returns the filesystem path of a master's image. A
// master on a known external volume resolves under the mount root;
// otherwise the image lives in the bundle's Masters directory.
func (l *Library) ResolveMasterPath(uuid string) (string, error) {
	w, ok := l.store.Get(uuid)
	if !ok || w.Kind != TypeMaster {
		return "", fmt.Errorf("master %s: %w", uuid, ErrNotFound)
	}
	m := w.Master
	if m.ImagePath == nil {
		return "", fmt.Errorf("master %s: %w", uuid, ErrNoImagePath)
	}
	if m.FileVolumeUUID != nil {
		if vw, ok := l.store.Get(*m.FileVolumeUUID); ok && vw.Kind == TypeVolume && vw.Volume.VolumeName != nil {
			return filepath.Join(l.mountRoot, *vw.Volume.VolumeName, *m.ImagePath), nil
		}
		l.log.Debug("master volume not loaded", "master", uuid, "volume", *m.FileVolumeUUID)
	}
	return filepath.Join(l.path, mastersDir, *m.ImagePath), nil
}

// Tree maps every parent uuid to the sorted uuids of its stored children.
// Objects without a parent are listed under "".
func (l *Library) Tree() map[string][]string {
	tree := make(map[string][]string)
	for uuid, w := range l.store.objects {
		parent := deref(w.ParentUUID())
		tree[parent] = append(tree[parent], uuid)
	}
	for _, children := range tree {
		sort.Strings(children)
	}
	return tree
}
