package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"aplib-go/internal/aplib"
	"aplib-go/internal/audit"
	"aplib-go/internal/config"
	"aplib-go/internal/database"
	"aplib-go/internal/fs"
	"aplib-go/internal/metrics"
	"aplib-go/internal/sidecar"
)

// ErrAuditStoreDisabled is returned by Audit when saving is requested but
// the config disables the audit store.
var ErrAuditStoreDisabled = errors.New("audit store is disabled in the config")

// ProgressFunc is told how many objects of kind have been processed so far.
type ProgressFunc func(kind aplib.ObjectType, done uint64)

// App is the application layer between the CLI and the aplib packages.
// It constructs all dependencies from config for one library, exposes the
// CLI operations, and releases resources on Close.
type App struct {
	cfg      *config.Config
	lib      *aplib.Library
	libDB    *database.LibraryDatabase
	store    *database.AuditStore
	metrics  *metrics.Metrics
	log      aplib.Logger
	clock    aplib.Clock
	ids      aplib.IDGenerator
	run      *Run
	logFile  *os.File
	progress ProgressFunc

	logLevel slog.Level
	stderr   io.Writer
}

// Option configures an App.
type Option func(*App)

// WithClock replaces the real clock.
func WithClock(c aplib.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithIDGenerator replaces the UUID generator used for run ids.
func WithIDGenerator(g aplib.IDGenerator) Option {
	return func(a *App) { a.ids = g }
}

// WithLogLevel sets the minimum level written to the log.
func WithLogLevel(level slog.Level) Option {
	return func(a *App) { a.logLevel = level }
}

// WithStderr sets where log records are echoed besides the log file. Nil
// disables the echo.
func WithStderr(w io.Writer) Option {
	return func(a *App) { a.stderr = w }
}

// NewApp creates a fully wired App for the library bundle at libraryPath.
// command identifies the CLI command being run (e.g. "audit", "export").
// The caller must call Close when done.
func NewApp(cfg *config.Config, command, libraryPath string, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		clock:    aplib.RealClock{},
		ids:      aplib.UUIDGenerator{},
		logLevel: slog.LevelInfo,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.run = NewRun(a.ids.New(), command, libraryPath, a.clock.Now())

	logger, logFile, err := newLogger(cfg.LogDir, a.run.ID, a.logLevel, a.stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a.logFile = logFile
	a.log = &slogAdapter{l: logger}

	store, err := database.NewAuditStoreFromConfig(cfg.Audit)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating audit store: %w", err)
	}
	a.store = store

	a.metrics = metrics.New()
	libOpts := []aplib.Option{
		aplib.WithLogger(a.log),
		aplib.WithObserver(a.metrics),
	}
	if cfg.Volumes.MountRoot != "" {
		libOpts = append(libOpts, aplib.WithMountRoot(cfg.Volumes.MountRoot))
	}
	if libraryPath != "" {
		libDB, err := database.OpenLibraryDatabase(libraryPath)
		if err != nil {
			a.log.Debug("library database not available", "path", libraryPath, "error", err)
		} else {
			a.libDB = libDB
			libOpts = append(libOpts, aplib.WithVolumeSource(libDB))
		}
	}
	a.lib = aplib.NewLibrary(libraryPath, fs.NewBundleLister(cfg.Filesystem.Ignore), libOpts...)

	a.log.Info("run started", "command", command, "library", libraryPath)
	return a, nil
}

// Library returns the library the App operates on.
func (a *App) Library() *aplib.Library { return a.lib }

// Run returns the run being tracked.
func (a *App) Run() *Run { return a.run }

// Metrics returns the run's metrics.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// SetProgress registers a progress callback for load and export batches.
func (a *App) SetProgress(p ProgressFunc) { a.progress = p }

// progressFor adapts the registered ProgressFunc to aplib.Progress. The
// batch stops once ctx is done.
func (a *App) progressFor(ctx context.Context, kind aplib.ObjectType) aplib.Progress {
	var done uint64
	return func(n uint64) bool {
		done += n
		if a.progress != nil {
			a.progress(kind, done)
		}
		return ctx.Err() == nil
	}
}

// LoadAll loads every record kind and the keyword forest. A missing or
// unreadable Keywords.plist is logged, not returned.
func (a *App) LoadAll(ctx context.Context) error {
	steps := []struct {
		kind aplib.ObjectType
		load func(aplib.Progress) error
	}{
		{aplib.TypeFolder, a.lib.LoadFolders},
		{aplib.TypeAlbum, a.lib.LoadAlbums},
		{aplib.TypeMaster, a.lib.LoadMasters},
		{aplib.TypeVersion, a.lib.LoadVersions},
		{aplib.TypeVolume, func(p aplib.Progress) error { return a.lib.LoadVolumes(ctx, p) }},
	}
	for _, step := range steps {
		if err := step.load(a.progressFor(ctx, step.kind)); err != nil {
			return fmt.Errorf("loading %ss: %w", step.kind, err)
		}
	}
	if _, err := a.lib.Keywords(); err != nil {
		a.log.Warn("keywords not loaded", "error", err)
	}
	return nil
}

// Info writes the library version and the data model info.
func (a *App) Info(w io.Writer) error {
	version, err := a.lib.LibraryVersion()
	if err != nil {
		return err
	}
	mi, err := a.lib.ModelInfo()
	if err != nil {
		return err
	}
	return printInfo(w, version, mi)
}

// Dump loads everything and writes one table per record kind.
func (a *App) Dump(ctx context.Context, w io.Writer) error {
	if err := a.Info(w); err != nil {
		return err
	}
	if err := a.LoadAll(ctx); err != nil {
		return err
	}
	return printDump(w, a.lib)
}

// Tree writes the folder/album/master/version hierarchy. With skipMasters
// masters and versions are counted instead of listed.
func (a *App) Tree(ctx context.Context, w io.Writer, skipMasters bool) error {
	loads := []struct {
		kind aplib.ObjectType
		load func(aplib.Progress) error
	}{
		{aplib.TypeFolder, a.lib.LoadFolders},
		{aplib.TypeAlbum, a.lib.LoadAlbums},
		{aplib.TypeMaster, a.lib.LoadMasters},
		{aplib.TypeVersion, a.lib.LoadVersions},
	}
	for _, l := range loads {
		if err := l.load(a.progressFor(ctx, l.kind)); err != nil {
			return fmt.Errorf("loading %ss: %w", l.kind, err)
		}
	}
	return printTree(w, a.lib, skipMasters)
}

// Keywords writes the keyword forest.
func (a *App) Keywords(w io.Writer) error {
	kws, err := a.lib.Keywords()
	if err != nil {
		return err
	}
	return printKeywords(w, kws)
}

// Audit loads the whole library with a Reporter attached and writes the
// report. With save the run is stored in the audit store and its id
// returned.
func (a *App) Audit(ctx context.Context, w io.Writer, save, verbose bool) (string, error) {
	if save && a.store == nil {
		return "", ErrAuditStoreDisabled
	}

	reporter := audit.NewReporter()
	a.lib.SetReporter(reporter)

	version, err := a.lib.LibraryVersion()
	if err != nil {
		return "", err
	}
	if _, err := a.lib.ModelInfo(); err != nil {
		a.log.Warn("model info not loaded", "error", err)
	}
	if err := a.LoadAll(ctx); err != nil {
		return "", err
	}

	if err := reporter.Print(w, verbose); err != nil {
		return "", fmt.Errorf("writing audit: %w", err)
	}
	a.metrics.ObserveAudit(reporter)

	if !save {
		return "", nil
	}
	id, err := a.store.SaveRun(ctx, a.lib.Path(), version, a.run.StartedAt, reporter)
	if err != nil {
		return "", fmt.Errorf("saving audit run: %w", err)
	}
	a.log.Info("audit run saved", "audit_run", id, "parsed", reporter.ParsedCount(), "skipped", reporter.SkippedCount())
	return id, nil
}

// AuditHistory writes the saved audit runs of the library.
func (a *App) AuditHistory(ctx context.Context, w io.Writer) error {
	if a.store == nil {
		return ErrAuditStoreDisabled
	}
	runs, err := a.store.ListRuns(ctx, a.lib.Path())
	if err != nil {
		return err
	}
	return printRuns(w, runs)
}

// XMP writes the XMP packet of the version with uuid, or of every version
// when uuid is empty.
func (a *App) XMP(ctx context.Context, w io.Writer, uuid string) error {
	if err := a.lib.LoadVersions(a.progressFor(ctx, aplib.TypeVersion)); err != nil {
		return fmt.Errorf("loading versions: %w", err)
	}
	exporter := sidecar.NewExporter(nil, a.clock, a.ids, a.log)

	if uuid != "" {
		wr, ok := a.lib.Get(uuid)
		if !ok || wr.Version == nil {
			return fmt.Errorf("version %s: %w", uuid, aplib.ErrNotFound)
		}
		meta, ok := exporter.Packet(wr.Version)
		if !ok {
			return fmt.Errorf("%s: %w", uuid, sidecar.ErrNothingToExport)
		}
		_, err := meta.WriteTo(w)
		return err
	}

	for _, id := range a.lib.Versions() {
		wr, _ := a.lib.Get(id)
		meta, ok := exporter.Packet(wr.Version)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "==> %s <==\n", sidecar.SidecarName(id)); err != nil {
			return err
		}
		if _, err := meta.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// Export writes a sidecar for every version into the configured sink.
func (a *App) Export(ctx context.Context) (sidecar.ExportStats, error) {
	sink, err := sidecar.NewSinkFromConfig(ctx, a.cfg.Sidecar)
	if err != nil {
		return sidecar.ExportStats{}, fmt.Errorf("creating sidecar sink: %w", err)
	}
	if err := sink.ValidateSetup(ctx); err != nil {
		return sidecar.ExportStats{}, fmt.Errorf("sidecar sink %s: %w", sink.Name(), err)
	}
	if err := a.lib.LoadVersions(a.progressFor(ctx, aplib.TypeVersion)); err != nil {
		return sidecar.ExportStats{}, fmt.Errorf("loading versions: %w", err)
	}

	exporter := sidecar.NewExporter(sink, a.clock, a.ids, a.log)
	stats, err := exporter.ExportAll(ctx, a.lib, a.progressFor(ctx, aplib.TypeVersion))
	a.metrics.ObserveExport(stats.Written, stats.Empty, stats.Failed)
	a.log.Info("export finished", "sink", sink.Name(), "written", stats.Written, "empty", stats.Empty, "failed", stats.Failed)
	return stats, err
}

// MasterPath resolves the image file of the master with uuid.
func (a *App) MasterPath(ctx context.Context, uuid string) (string, error) {
	if err := a.lib.LoadMasters(a.progressFor(ctx, aplib.TypeMaster)); err != nil {
		return "", fmt.Errorf("loading masters: %w", err)
	}
	if err := a.lib.LoadVolumes(ctx, a.progressFor(ctx, aplib.TypeVolume)); err != nil {
		a.log.Warn("volumes not loaded", "error", err)
	}
	return a.lib.ResolveMasterPath(uuid)
}

// Fail marks the run as failed; Close logs the status.
func (a *App) Fail() { a.run.Fail() }

// Close writes the metrics textfile when configured and closes all
// resources.
func (a *App) Close() error {
	var firstErr error

	if path := a.cfg.Metrics.TextfilePath; path != "" {
		a.metrics.LastRun.Set(float64(a.clock.Now().Unix()))
		if err := a.metrics.WriteTextfile(path); err != nil {
			firstErr = err
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing audit store: %w", err)
		}
	}
	if a.libDB != nil {
		if err := a.libDB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing library database: %w", err)
		}
	}

	a.log.Info("run finished", "command", a.run.Command, "status", a.run.Status,
		"duration", a.clock.Now().Sub(a.run.StartedAt))
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
