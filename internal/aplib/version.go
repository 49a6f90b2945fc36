package aplib

import (
	"errors"
	"fmt"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
	"aplib-go/internal/xmp"
)

// Version is a rendered variant of a master (.apversion).
type Version struct {
	uuid       *string
	masterUUID *string
	modelID    *int64

	ProjectUUID              *string
	RawMasterUUID            *string
	NonRawMasterUUID         *string
	TimezoneName             *string
	CreateDate               *time.Time
	ImageDate                *time.Time
	ExportImageChangeDate    *time.Time
	ExportMetadataChangeDate *time.Time
	VersionNumber            *int64
	DBVersion                *int64
	DBMinorVersion           *int64
	IsFlagged                *bool
	IsOriginal               *bool
	IsEditable               *bool
	IsHidden                 *bool
	IsInTrash                *bool
	FileName                 *string
	Name                     *string
	Rating                   *int64
	Rotation                 *int64
	ColourLabelIndex         *int64

	Keywords   []string
	Iptc       *IptcProperties
	Exif       *ExifProperties
	CustomInfo *CustomInfo
	Notes      []Note
}

var versionIgnoredKeys = []string{
	"imageProxyState",
	"plistWriteTimestamp",
	"statistics",
	"thumbnailGroup",
	"faceDetectionIsFinished",
	"faceDetectionRotationFromMaster",
}

// LoadVersion decodes the .apversion plist at path.
func LoadVersion(path string, report *audit.Report) (*Version, error) {
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		return nil, fmt.Errorf("loading version: %w", err)
	}
	return VersionFromDict(d, report), nil
}

// VersionFromDict decodes a version and its nested property bags.
func VersionFromDict(d plutil.Dict, report *audit.Report) *Version {
	v := &Version{
		uuid:                     audit.String(d, "uuid", report),
		masterUUID:               audit.String(d, "masterUuid", report),
		modelID:                  audit.Int(d, "modelId", report),
		ProjectUUID:              audit.String(d, "projectUuid", report),
		RawMasterUUID:            audit.String(d, "rawMasterUuid", report),
		NonRawMasterUUID:         audit.String(d, "nonRawMasterUuid", report),
		TimezoneName:             audit.String(d, "imageTimeZoneName", report),
		CreateDate:               audit.Date(d, "createDate", report),
		ImageDate:                audit.Date(d, "imageDate", report),
		ExportImageChangeDate:    audit.Date(d, "exportImageChangeDate", report),
		ExportMetadataChangeDate: audit.Date(d, "exportMetadataChangeDate", report),
		VersionNumber:            audit.Int(d, "versionNumber", report),
		DBVersion:                audit.Int(d, "version", report),
		DBMinorVersion:           audit.Int(d, "minorVersion", report),
		IsFlagged:                audit.Bool(d, "isFlagged", report),
		IsOriginal:               audit.Bool(d, "isOriginal", report),
		IsEditable:               audit.Bool(d, "isEditable", report),
		IsHidden:                 audit.Bool(d, "isHidden", report),
		IsInTrash:                audit.Bool(d, "isInTrash", report),
		FileName:                 audit.String(d, "fileName", report),
		Name:                     audit.String(d, "name", report),
		Rating:                   audit.Int(d, "mainRating", report),
		Rotation:                 audit.Int(d, "rotation", report),
		ColourLabelIndex:         audit.Int(d, "colorLabelIndex", report),
	}

	if kws, ok := audit.Array(d, "keywords", report); ok {
		v.Keywords = make([]string, 0, len(kws))
		for _, kw := range kws {
			if s, ok := kw.(string); ok {
				v.Keywords = append(v.Keywords, s)
			}
		}
	}
	if iptc, ok := audit.Dict(d, "iptcProperties", report); ok {
		v.Iptc = IptcFromDict(iptc, report)
	}
	if exif, ok := audit.Dict(d, "exifProperties", report); ok {
		v.Exif = ExifFromDict(exif, report)
	}
	if ci, ok := audit.Dict(d, "customInfo", report); ok {
		v.CustomInfo = CustomInfoFromDict(ci, report)
	}
	if notes, ok := audit.Array(d, "notes", report); ok {
		v.Notes = NotesFromArray(notes, report)
	}

	if report != nil {
		skipIgnored(d, report, versionIgnoredKeys)
		report.AuditIgnored(d, "")
	}
	return v
}

// ToXMP writes the version metadata into meta. It reports whether at least
// one metadata property was written; the aplib identity properties alone
// do not count. IPTC is written before Exif so that IPTC wins where both
// map to the same property. Write failures are logged to log.
func (v *Version) ToXMP(meta *xmp.Meta, log Logger) bool {
	log = orNop(log)
	written := false
	put := func(p xmp.Property, value string) {
		if err := p.Put(meta, value); err != nil {
			if !errors.Is(err, xmp.ErrEmptyValue) {
				log.Warn("writing XMP property", "property", p.Path(), "error", err)
			}
			return
		}
		written = true
	}

	if v.Iptc != nil && v.Iptc.ToXMP(meta, log) {
		written = true
	}
	if v.Exif != nil && v.Exif.ToXMP(meta, log) {
		written = true
	}
	if v.Rating != nil {
		put(xmp.Prop(xmp.NsXMP, "Rating"), xmp.FormatInt(*v.Rating))
	}
	if v.Name != nil {
		if _, ok := meta.LocalizedText(xmp.NsDC, "title", ""); !ok {
			put(xmp.AltProp(xmp.NsDC, "title"), *v.Name)
		}
	}
	if len(v.Keywords) > 0 && meta.ArrayLen(xmp.NsDC, "subject") == 0 {
		for _, kw := range v.Keywords {
			put(xmp.BagProp(xmp.NsDC, "subject"), kw)
		}
	}
	if !written {
		return false
	}

	// Identity is recorded only alongside real metadata.
	if v.masterUUID != nil {
		put(xmp.Prop(xmp.NsAplib, "MasterUuid"), *v.masterUUID)
	}
	if v.uuid != nil {
		put(xmp.Prop(xmp.NsAplib, "VersionUuid"), *v.uuid)
	}
	return true
}

func (v *Version) Type() ObjectType    { return TypeVersion }
func (v *Version) UUID() *string       { return v.uuid }
func (v *Version) ParentUUID() *string { return v.masterUUID }
func (v *Version) ModelID() int64      { return deref(v.modelID) }
func (v *Version) IsValid() bool       { return v.uuid != nil }
