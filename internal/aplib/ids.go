package aplib

import (
	"time"

	"github.com/google/uuid"
)

// documentSeed is the name-based namespace for xmpMM:DocumentID values.
var documentSeed = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://aplib-go/xmp/document"))

// Clock supplies the time stamped on audit runs and on xmp:MetadataDate.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator mints audit run ids and xmpMM:InstanceID values. Each call
// must return a fresh id.
type IDGenerator interface {
	New() string
}

// UUIDGenerator mints random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }

// DocumentID is the xmpMM:DocumentID of the sidecar for a version. It is
// derived from the version uuid alone, so every export of the same version
// carries the same id.
func DocumentID(versionUUID string) string {
	return "xmp.did:" + uuid.NewSHA1(documentSeed, []byte(versionUUID)).String()
}
