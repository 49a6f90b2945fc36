package aplib

import (
	"context"
	"fmt"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// Volume is an external disk that holds referenced masters.
type Volume struct {
	uuid    *string
	modelID *int64

	DiskUUID   *string
	VolumeName *string
}

// NewVolume builds a volume from a database row. Rows are not audited.
func NewVolume(modelID int64, uuid, volumeName, diskUUID *string) *Volume {
	return &Volume{
		uuid:       uuid,
		modelID:    &modelID,
		VolumeName: volumeName,
		DiskUUID:   diskUUID,
	}
}

// VolumeSource lists the volumes of a library from somewhere other than
// per-volume plists, such as the library database.
type VolumeSource interface {
	Volumes(ctx context.Context) ([]*Volume, error)
}

// LoadVolume decodes the .apvolume plist at path.
func LoadVolume(path string, report *audit.Report) (*Volume, error) {
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		return nil, fmt.Errorf("loading volume: %w", err)
	}
	return VolumeFromDict(d, report), nil
}

// VolumeFromDict decodes a volume from its plist dictionary.
func VolumeFromDict(d plutil.Dict, report *audit.Report) *Volume {
	v := &Volume{
		uuid:       audit.String(d, "uuid", report),
		modelID:    audit.Int(d, "modelId", report),
		DiskUUID:   audit.String(d, "diskUuid", report),
		VolumeName: audit.String(d, "volumeName", report),
	}
	if report != nil {
		report.AuditIgnored(d, "")
	}
	return v
}

func (v *Volume) Type() ObjectType  { return TypeVolume }
func (v *Volume) UUID() *string     { return v.uuid }
func (*Volume) ParentUUID() *string { return nil }
func (v *Volume) ModelID() int64    { return deref(v.modelID) }
func (v *Volume) IsValid() bool     { return v.uuid != nil }
