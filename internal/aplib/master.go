package aplib

import (
	"fmt"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// Master is the record of an original image file (.apmaster).
type Master struct {
	uuid        *string
	projectUUID *string
	modelID     *int64

	AlternateMasterUUID  *string
	OriginalVersionUUID  *string
	ImportGroupUUID      *string
	FileName             *string
	Name                 *string
	OriginalVersionName  *string
	OriginalFileName     *string
	FileVolumeUUID       *string
	DBVersion            *int64
	MasterType           *string
	Subtype              *string
	ImagePath            *string
	FileSize             *int64
	IsReference          *bool
	IsExternallyEditable *bool
	IsInTrash            *bool
	IsMissing            *bool
	IsTrulyRaw           *bool
	ColourSpaceName      *string
	CreateDate           *time.Time
	ImageDate            *time.Time
	FileCreationDate     *time.Time
	FileModificationDate *time.Time
	HasFocusPoints       *int64
	// ImageFormat is a four character code packed MSB first.
	ImageFormat           *int64
	PixelFormat           *int64
	ColourSpaceDefinition []byte
	Notes                 []Note
	FaceDetectionState    *int64
}

var masterIgnoredKeys = []string{
	"fileAliasData",
	"importedBy",
	"importGroup",
	"plistWriteTimestamp",
}

// LoadMaster decodes the .apmaster plist at path.
func LoadMaster(path string, report *audit.Report) (*Master, error) {
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		return nil, fmt.Errorf("loading master: %w", err)
	}
	return MasterFromDict(d, report), nil
}

// MasterFromDict decodes a master from its plist dictionary.
func MasterFromDict(d plutil.Dict, report *audit.Report) *Master {
	m := &Master{
		uuid:                  audit.String(d, "uuid", report),
		projectUUID:           audit.String(d, "projectUuid", report),
		modelID:               audit.Int(d, "modelId", report),
		AlternateMasterUUID:   audit.String(d, "alternateMasterUuid", report),
		OriginalVersionUUID:   audit.String(d, "originalVersionUuid", report),
		ImportGroupUUID:       audit.String(d, "importGroupUuid", report),
		FileName:              audit.String(d, "fileName", report),
		Name:                  audit.String(d, "name", report),
		OriginalVersionName:   audit.String(d, "originalVersionName", report),
		OriginalFileName:      audit.String(d, "originalFileName", report),
		FileVolumeUUID:        audit.String(d, "fileVolumeUuid", report),
		DBVersion:             audit.Int(d, "version", report),
		MasterType:            audit.String(d, "type", report),
		Subtype:               audit.String(d, "subtype", report),
		ImagePath:             audit.String(d, "imagePath", report),
		FileSize:              audit.Int(d, "fileSize", report),
		IsReference:           audit.Bool(d, "fileIsReference", report),
		IsExternallyEditable:  audit.Bool(d, "isExternallyEditable", report),
		IsInTrash:             audit.Bool(d, "isInTrash", report),
		IsMissing:             audit.Bool(d, "isMissing", report),
		IsTrulyRaw:            audit.Bool(d, "isTrulyRaw", report),
		ColourSpaceName:       audit.String(d, "colorSpaceName", report),
		CreateDate:            audit.Date(d, "createDate", report),
		ImageDate:             audit.Date(d, "imageDate", report),
		FileCreationDate:      audit.Date(d, "fileCreationDate", report),
		FileModificationDate:  audit.Date(d, "fileModificationDate", report),
		HasFocusPoints:        audit.Int(d, "hasFocusPoints", report),
		ImageFormat:           audit.Int(d, "imageFormat", report),
		PixelFormat:           audit.Int(d, "pixelFormat", report),
		ColourSpaceDefinition: audit.Data(d, "colorSpaceDefinition", report),
		FaceDetectionState:    audit.Int(d, "faceDetectionState", report),
	}
	if notes, ok := audit.Array(d, "notes", report); ok {
		m.Notes = NotesFromArray(notes, report)
	}

	if report != nil {
		skipIgnored(d, report, masterIgnoredKeys)
		report.AuditIgnored(d, "")
	}
	return m
}

// ImageFormatCode returns ImageFormat as its four character code, or "".
func (m *Master) ImageFormatCode() string {
	if m.ImageFormat == nil {
		return ""
	}
	v := uint32(*m.ImageFormat)
	return string([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func (m *Master) Type() ObjectType    { return TypeMaster }
func (m *Master) UUID() *string       { return m.uuid }
func (m *Master) ParentUUID() *string { return m.projectUUID }
func (m *Master) ModelID() int64      { return deref(m.modelID) }
func (m *Master) IsValid() bool       { return m.uuid != nil }
