package sidecar

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"aplib-go/internal/aplib"
	"aplib-go/internal/xmp"
)

// Extension of written sidecar files.
const Extension = ".xmp"

// ErrNothingToExport is returned for a version with no XMP-translatable
// metadata.
var ErrNothingToExport = errors.New("version has no exportable metadata")

// ExportStats counts the outcome of ExportAll.
type ExportStats struct {
	Written int
	Empty   int
	Failed  int
}

// Exporter renders versions to XMP packets and stores them in a Sink.
type Exporter struct {
	sink  Sink
	clock aplib.Clock
	ids   aplib.IDGenerator
	log   aplib.Logger
}

// NewExporter creates an Exporter. Nil clock, ids and log use the real
// clock, random UUIDs and the no-op logger.
func NewExporter(sink Sink, clock aplib.Clock, ids aplib.IDGenerator, log aplib.Logger) *Exporter {
	if clock == nil {
		clock = aplib.RealClock{}
	}
	if ids == nil {
		ids = aplib.UUIDGenerator{}
	}
	if log == nil {
		log = &aplib.NopLogger{}
	}
	return &Exporter{sink: sink, clock: clock, ids: ids, log: log}
}

// Packet translates v into a new XMP packet with document bookkeeping
// properties. ok is false when v carries nothing to translate.
func (e *Exporter) Packet(v *aplib.Version) (meta *xmp.Meta, ok bool) {
	meta = xmp.New()
	if !v.ToXMP(meta, e.log) {
		return meta, false
	}
	e.stamp(meta, v.UUID())
	return meta, true
}

// stamp writes the xmpMM document identifiers and xmp:MetadataDate. A
// property that cannot be written is logged and left out of the packet.
func (e *Exporter) stamp(meta *xmp.Meta, versionUUID *string) {
	type bookkeeping struct{ ns, name, value string }
	props := make([]bookkeeping, 0, 3)
	if versionUUID != nil {
		props = append(props, bookkeeping{xmp.NsXMPMM, "DocumentID", aplib.DocumentID(*versionUUID)})
	}
	props = append(props,
		bookkeeping{xmp.NsXMPMM, "InstanceID", "xmp.iid:" + e.ids.New()},
		bookkeeping{xmp.NsXMP, "MetadataDate", xmp.FormatDate(e.clock.Now())},
	)
	for _, p := range props {
		if err := meta.SetProperty(p.ns, p.name, p.value); err != nil {
			e.log.Warn("writing sidecar bookkeeping", "property", p.name, "version", deref(versionUUID), "error", err)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SidecarName is the name a version's sidecar is stored under.
func SidecarName(versionUUID string) string {
	return versionUUID + Extension
}

// Export writes the sidecar of v and returns its name.
func (e *Exporter) Export(ctx context.Context, v *aplib.Version) (string, error) {
	id := v.UUID()
	if id == nil {
		return "", fmt.Errorf("exporting version: %w", aplib.ErrNotFound)
	}
	meta, ok := e.Packet(v)
	if !ok {
		return "", fmt.Errorf("%s: %w", *id, ErrNothingToExport)
	}

	var buf bytes.Buffer
	if _, err := meta.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("serializing %s: %w", *id, err)
	}

	name := SidecarName(*id)
	if err := e.sink.Put(ctx, name, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return "", fmt.Errorf("storing %s in %s: %w", name, e.sink.Name(), err)
	}
	return name, nil
}

// ExportAll exports every loaded version of lib. Per-version failures are
// logged and counted; the batch continues. Returning false from progress
// stops with aplib.ErrCancelled.
func (e *Exporter) ExportAll(ctx context.Context, lib *aplib.Library, progress aplib.Progress) (ExportStats, error) {
	if progress == nil {
		progress = aplib.ProgressNone
	}

	var stats ExportStats
	for _, id := range lib.Versions() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		w, ok := lib.Get(id)
		if !ok || w.Version == nil {
			continue
		}
		name, err := e.Export(ctx, w.Version)
		switch {
		case errors.Is(err, ErrNothingToExport):
			stats.Empty++
			e.log.Debug("no metadata to export", "version", id)
		case err != nil:
			stats.Failed++
			e.log.Warn("sidecar export failed", "version", id, "error", err)
		default:
			stats.Written++
			e.log.Debug("sidecar written", "version", id, "name", name, "sink", e.sink.Name())
		}

		if !progress(1) {
			return stats, aplib.ErrCancelled
		}
	}
	return stats, nil
}
