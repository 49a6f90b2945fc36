package aplib

import (
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// ModelInfo describes the library data model (DataModelVersion.plist).
type ModelInfo struct {
	DBUUID                         *string
	DBVersion                      *int64
	DBMinorVersion                 *int64
	DBMinorBackCompatibleVersion   *int64
	IsIPhotoLibrary                *bool
	CreateDate                     *time.Time
	ImageIOVersion                 *string
	RawCameraBundleVersion         *string
	TouchedByAperture              *bool
	MasterCount                    *int64
	VersionCount                   *int64
	ProjectVersion                 *int64
	ProjectCompatibleBackToVersion *int64
}

// ModelInfoFromDict decodes the data model dictionary.
func ModelInfoFromDict(d plutil.Dict, report *audit.Report) *ModelInfo {
	mi := &ModelInfo{
		DBUUID:                         audit.String(d, "databaseUuid", report),
		DBVersion:                      audit.Int(d, "DatabaseVersion", report),
		DBMinorVersion:                 audit.Int(d, "DatabaseMinorVersion", report),
		DBMinorBackCompatibleVersion:   audit.Int(d, "DatabaseCompatibleBackToMinorVersion", report),
		IsIPhotoLibrary:                audit.Bool(d, "isIPhotoLibrary", report),
		CreateDate:                     audit.Date(d, "createDate", report),
		ImageIOVersion:                 audit.String(d, "imageIOVersion", report),
		RawCameraBundleVersion:         audit.String(d, "rawCameraBundleVersion", report),
		TouchedByAperture:              audit.Bool(d, "touchedByAperture", report),
		MasterCount:                    audit.Int(d, "masterCount", report),
		VersionCount:                   audit.Int(d, "versionCount", report),
		ProjectVersion:                 audit.Int(d, "projectVersion", report),
		ProjectCompatibleBackToVersion: audit.Int(d, "projectCompatibleBackToVersion", report),
	}
	if report != nil {
		report.AuditIgnored(d, "")
	}
	return mi
}
