// Package aplib decodes the records of an Aperture library bundle into a
// UUID-keyed object graph.
package aplib

import (
	"sort"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// ObjectType is the kind of a library object.
type ObjectType int

const (
	TypeAlbum ObjectType = iota + 1
	TypeFolder
	TypeKeyword
	TypeMaster
	TypeVersion
	TypeVolume
)

func (t ObjectType) String() string {
	switch t {
	case TypeAlbum:
		return "album"
	case TypeFolder:
		return "folder"
	case TypeKeyword:
		return "keyword"
	case TypeMaster:
		return "master"
	case TypeVersion:
		return "version"
	case TypeVolume:
		return "volume"
	default:
		return "invalid"
	}
}

// Object is the capability set shared by every record.
type Object interface {
	Type() ObjectType
	// UUID is the stable identity; nil when the source had none.
	UUID() *string
	// ParentUUID is the uuid of the containing object, if any.
	ParentUUID() *string
	// ModelID is the legacy numeric id, 0 when absent.
	ModelID() int64
	// IsValid reports whether the object has a uuid.
	IsValid() bool
}

// Wrapper holds exactly one record of a closed set of kinds.
type Wrapper struct {
	Kind    ObjectType
	Album   *Album
	Folder  *Folder
	Keyword *Keyword
	Master  *Master
	Version *Version
	Volume  *Volume
}

// Wrap stores obj in a Wrapper. It returns nil for unknown types.
func Wrap(obj Object) *Wrapper {
	switch o := obj.(type) {
	case *Album:
		return &Wrapper{Kind: TypeAlbum, Album: o}
	case *Folder:
		return &Wrapper{Kind: TypeFolder, Folder: o}
	case *Keyword:
		return &Wrapper{Kind: TypeKeyword, Keyword: o}
	case *Master:
		return &Wrapper{Kind: TypeMaster, Master: o}
	case *Version:
		return &Wrapper{Kind: TypeVersion, Version: o}
	case *Volume:
		return &Wrapper{Kind: TypeVolume, Volume: o}
	default:
		return nil
	}
}

// Object returns the wrapped record.
func (w *Wrapper) Object() Object {
	switch w.Kind {
	case TypeAlbum:
		return w.Album
	case TypeFolder:
		return w.Folder
	case TypeKeyword:
		return w.Keyword
	case TypeMaster:
		return w.Master
	case TypeVersion:
		return w.Version
	case TypeVolume:
		return w.Volume
	default:
		return nil
	}
}

// UUID returns the uuid of the wrapped record.
func (w *Wrapper) UUID() *string {
	if o := w.Object(); o != nil {
		return o.UUID()
	}
	return nil
}

// ParentUUID returns the parent uuid of the wrapped record.
func (w *Wrapper) ParentUUID() *string {
	if o := w.Object(); o != nil {
		return o.ParentUUID()
	}
	return nil
}

// Name returns the display name of the wrapped record, or "".
func (w *Wrapper) Name() string {
	var name *string
	switch w.Kind {
	case TypeAlbum:
		name = w.Album.Name
	case TypeFolder:
		name = w.Folder.Name
	case TypeKeyword:
		name = w.Keyword.Name
	case TypeMaster:
		name = w.Master.Name
	case TypeVersion:
		name = w.Version.Name
	case TypeVolume:
		name = w.Volume.VolumeName
	}
	return deref(name)
}

// Store is the UUID-keyed object store.
type Store struct {
	objects map[string]*Wrapper
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{objects: make(map[string]*Wrapper)}
}

// Put stores w. It returns false when w has no uuid or when an object
// with the same uuid is already stored; the first object wins.
func (s *Store) Put(w *Wrapper) bool {
	if w == nil {
		return false
	}
	uuid := w.UUID()
	if uuid == nil {
		return false
	}
	if _, ok := s.objects[*uuid]; ok {
		return false
	}
	s.objects[*uuid] = w
	return true
}

// Get returns the object stored under uuid.
func (s *Store) Get(uuid string) (*Wrapper, bool) {
	w, ok := s.objects[uuid]
	return w, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int { return len(s.objects) }

// UUIDs returns the stored uuids of kind t, sorted.
func (s *Store) UUIDs(t ObjectType) []string {
	var out []string
	for uuid, w := range s.objects {
		if w.Kind == t {
			out = append(out, uuid)
		}
	}
	sort.Strings(out)
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// skipIgnored marks the keys of d that are known but uninteresting as
// Ignore-skipped. Absent keys are left alone.
func skipIgnored(d plutil.Dict, report *audit.Report, keys []string) {
	for _, k := range keys {
		if _, ok := d[k]; ok {
			report.Skip(k, audit.Ignore)
		}
	}
}
