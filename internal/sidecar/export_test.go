package sidecar

import "aplib-go/internal/xmp"

func (e *Exporter) Stamp(meta *xmp.Meta, versionUUID *string) { e.stamp(meta, versionUUID) }
