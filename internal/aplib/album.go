package aplib

import (
	"errors"
	"fmt"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// ErrNoInfoDictionary is returned for album plists without an
// InfoDictionary.
var ErrNoInfoDictionary = errors.New("album has no InfoDictionary")

// AlbumSubclass is the kind of album.
type AlbumSubclass int

const (
	AlbumSubclassInvalid AlbumSubclass = iota
	AlbumSubclassImplicit
	AlbumSubclassSmart
	AlbumSubclassUser
)

func (s AlbumSubclass) String() string {
	switch s {
	case AlbumSubclassImplicit:
		return "Implicit"
	case AlbumSubclassSmart:
		return "Smart"
	case AlbumSubclassUser:
		return "User"
	default:
		return "Invalid"
	}
}

// AlbumSubclassFromInt decodes an albumSubclass code. Unknown codes map to
// AlbumSubclassInvalid with ok set to false.
func AlbumSubclassFromInt(v int64) (s AlbumSubclass, ok bool) {
	switch v {
	case 0:
		return AlbumSubclassInvalid, true
	case 1:
		return AlbumSubclassImplicit, true
	case 2:
		return AlbumSubclassSmart, true
	case 3:
		return AlbumSubclassUser, true
	default:
		return AlbumSubclassInvalid, false
	}
}

// Album is an .apalbum record.
type Album struct {
	uuid       *string
	folderUUID *string
	modelID    *int64

	Subclass              *AlbumSubclass
	AlbumType             *int64
	QueryFolderUUID       *string
	DBVersion             *int64
	SortAscending         *bool
	SortKey               *string
	Name                  *string
	CustomSortAvailable   *bool
	ColourLabelIndex      *int64
	CreateDate            *time.Time
	IsHidden              *bool
	IsMagic               *bool
	IsFavourite           *bool
	IsInTrash             *bool
	SelectedTrackPathUUID *string
	// Content lists the version uuids of a user album. It is nil for
	// every other subclass.
	Content []string
}

var albumIgnoredKeys = []string{
	"plistWriteTimestamp",
	"Filter",
}

// LoadAlbum decodes the .apalbum plist at path. Unknown subclass codes are
// logged to log, which may be nil.
func LoadAlbum(path string, report *audit.Report, log Logger) (*Album, error) {
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		return nil, fmt.Errorf("loading album: %w", err)
	}
	a, err := AlbumFromDict(d, report, log)
	if err != nil {
		return nil, fmt.Errorf("loading album %s: %w", path, err)
	}
	return a, nil
}

// AlbumFromDict decodes an album from the top-level plist dictionary. The
// record fields live in InfoDictionary; the content list is top-level.
func AlbumFromDict(d plutil.Dict, report *audit.Report, log Logger) (*Album, error) {
	info, ok := plutil.Dictionary(d, "InfoDictionary")
	if !ok {
		return nil, ErrNoInfoDictionary
	}

	a := &Album{
		uuid:                  audit.String(info, "uuid", report),
		folderUUID:            audit.String(info, "folderUuid", report),
		modelID:               audit.Int(info, "modelId", report),
		AlbumType:             audit.Int(info, "albumType", report),
		QueryFolderUUID:       audit.String(info, "queryFolderUuid", report),
		DBVersion:             audit.Int(info, "version", report),
		SortAscending:         audit.Bool(info, "sortAscending", report),
		SortKey:               audit.String(info, "sortKeyPath", report),
		Name:                  audit.String(info, "name", report),
		CustomSortAvailable:   audit.Bool(info, "customSortAvailable", report),
		ColourLabelIndex:      audit.Int(info, "colorLabelIndex", report),
		CreateDate:            audit.Date(info, "createDate", report),
		IsHidden:              audit.Bool(info, "isHidden", report),
		IsMagic:               audit.Bool(info, "isMagic", report),
		IsFavourite:           audit.Bool(info, "isFavorite", report),
		IsInTrash:             audit.Bool(info, "isInTrash", report),
		SelectedTrackPathUUID: audit.String(info, "selectedTrackPathUuid", report),
	}
	if code := audit.Int(info, "albumSubclass", report); code != nil {
		s, ok := AlbumSubclassFromInt(*code)
		if !ok {
			orNop(log).Warn("unknown album subclass", "value", *code, "uuid", deref(a.uuid))
		}
		a.Subclass = &s
	}
	a.Content = albumContent(d, a.Subclass, report)

	if report != nil {
		report.AuditIgnored(info, "")
		skipIgnored(d, report, albumIgnoredKeys)
		report.Parsed("InfoDictionary")
		report.AuditIgnored(d, "")
	}
	return a, nil
}

// albumContent extracts versionUuids, which is only meaningful for user
// albums. For any other subclass the key is skipped with InvalidData.
func albumContent(d plutil.Dict, subclass *AlbumSubclass, report *audit.Report) []string {
	array, ok := plutil.Array(d, "versionUuids")
	if !ok {
		return nil
	}
	if subclass == nil || *subclass != AlbumSubclassUser {
		if report != nil {
			report.Skip("versionUuids", audit.InvalidData)
		}
		return nil
	}

	content := make([]string, 0, len(array))
	for _, v := range array {
		if s, ok := v.(string); ok {
			content = append(content, s)
		}
	}
	if report != nil {
		report.Parsed("versionUuids")
	}
	return content
}

func (a *Album) Type() ObjectType    { return TypeAlbum }
func (a *Album) UUID() *string       { return a.uuid }
func (a *Album) ParentUUID() *string { return a.folderUUID }
func (a *Album) ModelID() int64      { return deref(a.modelID) }
func (a *Album) IsValid() bool       { return a.uuid != nil }
