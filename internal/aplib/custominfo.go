package aplib

import (
	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// CustomInfo is the customInfo block of a version.
type CustomInfo struct {
	CameraTimeZoneName  *string
	PictureTimeZoneName *string
}

// CustomInfoFromDict decodes a customInfo dictionary, merging its audit
// into report under the "customInfo" namespace.
func CustomInfoFromDict(d plutil.Dict, report *audit.Report) *CustomInfo {
	var sub *audit.Report
	if report != nil {
		sub = audit.NewReport()
	}
	ci := &CustomInfo{
		CameraTimeZoneName:  audit.String(d, "cameraTimeZoneName", sub),
		PictureTimeZoneName: audit.String(d, "pictureTimeZoneName", sub),
	}
	if report != nil {
		sub.AuditIgnored(d, "")
		report.Merge("customInfo", sub)
	}
	return ci
}
