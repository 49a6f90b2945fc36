package aplib

import (
	"fmt"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// FolderType distinguishes plain folders from projects.
type FolderType int

const (
	FolderTypeInvalid FolderType = iota
	FolderTypeFolder
	FolderTypeProject
)

func (t FolderType) String() string {
	switch t {
	case FolderTypeFolder:
		return "Folder"
	case FolderTypeProject:
		return "Project"
	default:
		return "Invalid"
	}
}

// FolderTypeFromInt decodes a folderType code. Unknown codes map to
// FolderTypeInvalid with ok set to false.
func FolderTypeFromInt(v int64) (t FolderType, ok bool) {
	switch v {
	case 0:
		return FolderTypeInvalid, true
	case 1:
		return FolderTypeFolder, true
	case 2:
		return FolderTypeProject, true
	default:
		return FolderTypeInvalid, false
	}
}

// Folder is a folder or a project (.apfolder).
type Folder struct {
	uuid       *string
	parentUUID *string
	modelID    *int64

	FolderType               *FolderType
	DBVersion                *int64
	ProjectVersion           *int64
	Path                     *string
	Name                     *string
	ImplicitAlbumUUID        *string
	PosterVersionUUID        *string
	AutoGenerateFullPreviews *bool
	ColourLabelIndex         *int64
	CreateDate               *time.Time
	IsExpanded               *bool
	IsFavourite              *bool
	IsHidden                 *bool
	IsInTrash                *bool
	IsMagic                  *bool
	SortAscending            *bool
	SortKey                  *string
}

var folderIgnoredKeys = []string{
	"plistWriteTimestamp",
	"projectCompatibleBackToVersion",
}

// LoadFolder decodes the .apfolder plist at path. Unknown folder types are
// logged to log, which may be nil.
func LoadFolder(path string, report *audit.Report, log Logger) (*Folder, error) {
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		return nil, fmt.Errorf("loading folder: %w", err)
	}
	return FolderFromDict(d, report, log), nil
}

// FolderFromDict decodes a folder from its plist dictionary.
func FolderFromDict(d plutil.Dict, report *audit.Report, log Logger) *Folder {
	f := &Folder{
		uuid:                     audit.String(d, "uuid", report),
		parentUUID:               audit.String(d, "parentFolderUuid", report),
		modelID:                  audit.Int(d, "modelId", report),
		DBVersion:                audit.Int(d, "version", report),
		ProjectVersion:           audit.Int(d, "projectVersion", report),
		Path:                     audit.String(d, "folderPath", report),
		Name:                     audit.String(d, "name", report),
		ImplicitAlbumUUID:        audit.String(d, "implicitAlbumUuid", report),
		PosterVersionUUID:        audit.String(d, "posterVersionUuid", report),
		AutoGenerateFullPreviews: audit.Bool(d, "automaticallyGenerateFullSizePreviews", report),
		ColourLabelIndex:         audit.Int(d, "colorLabelIndex", report),
		CreateDate:               audit.Date(d, "createDate", report),
		IsExpanded:               audit.Bool(d, "isExpanded", report),
		IsFavourite:              audit.Bool(d, "isFavorite", report),
		IsHidden:                 audit.Bool(d, "isHidden", report),
		IsInTrash:                audit.Bool(d, "isInTrash", report),
		IsMagic:                  audit.Bool(d, "isMagic", report),
		SortAscending:            audit.Bool(d, "sortAscending", report),
		SortKey:                  audit.String(d, "sortKeyPath", report),
	}
	if code := audit.Int(d, "folderType", report); code != nil {
		t, ok := FolderTypeFromInt(*code)
		if !ok {
			orNop(log).Warn("unknown folder type", "value", *code, "uuid", deref(f.uuid))
		}
		f.FolderType = &t
	}

	if report != nil {
		skipIgnored(d, report, folderIgnoredKeys)
		report.AuditIgnored(d, "")
	}
	return f
}

func (f *Folder) Type() ObjectType    { return TypeFolder }
func (f *Folder) UUID() *string       { return f.uuid }
func (f *Folder) ParentUUID() *string { return f.parentUUID }
func (f *Folder) ModelID() int64      { return deref(f.modelID) }
func (f *Folder) IsValid() bool       { return f.uuid != nil }
