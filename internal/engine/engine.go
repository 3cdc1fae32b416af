package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/shelfmark/internal/catalog"
	"github.com/roach88/shelfmark/internal/profile"
	"github.com/roach88/shelfmark/internal/render"
	"github.com/roach88/shelfmark/internal/sidecar"
	"github.com/roach88/shelfmark/internal/target"
)

// Engine converges the target folder and sidecar tree onto the
// catalog. Construct with New; one Engine runs any number of times.
type Engine struct {
	cat         catalog.Catalog
	prof        profile.Profile
	targetRoot  string
	sidecarRoot string
	mut         Mutator
	reconciler  *sidecar.Reconciler
	dryRun      bool
}

// New creates an engine. targetRoot and sidecarRoot must exist; they
// are resolved to absolute paths so patched doc_path values are
// absolute regardless of how the caller spelled them.
func New(cat catalog.Catalog, prof profile.Profile, targetRoot, sidecarRoot string, dryRun bool) (*Engine, error) {
	absTarget, err := filepath.Abs(targetRoot)
	if err != nil {
		return nil, &RunError{Code: ErrCodeConfig, Message: fmt.Sprintf("resolve target path: %v", err), Err: err}
	}
	absSidecar, err := filepath.Abs(sidecarRoot)
	if err != nil {
		return nil, &RunError{Code: ErrCodeConfig, Message: fmt.Sprintf("resolve sidecar path: %v", err), Err: err}
	}

	var mut Mutator = &applyMutator{cat: cat}
	if dryRun {
		mut = dryRunMutator{}
	}

	return &Engine{
		cat:         cat,
		prof:        prof,
		targetRoot:  absTarget,
		sidecarRoot: absSidecar,
		mut:         mut,
		reconciler:  sidecar.NewReconciler(mut),
		dryRun:      dryRun,
	}, nil
}

// Run executes one convergence pass. A non-nil error means the run
// could not start (enumeration or tree walk failed before any
// mutation); per-record failures land on the report instead.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{DryRun: e.dryRun}

	records, err := e.cat.Enumerate(ctx)
	if err != nil {
		return nil, &RunError{Code: ErrCodeCatalog, Message: fmt.Sprintf("enumerate catalog: %v", err), Err: err}
	}
	slog.Info("catalog enumerated", "records", len(records))

	index, err := sidecar.BuildIndex(e.sidecarRoot, e.prof.SidecarMetadataNames)
	if err != nil {
		return nil, &RunError{Code: ErrCodeConfig, Message: err.Error(), Err: err}
	}
	slog.Debug("sidecar index built", "ids", len(index))

	snapshot, err := target.ListArtifacts(e.targetRoot, e.prof.SupportedExtensions())
	if err != nil {
		return nil, &RunError{Code: ErrCodeConfig, Message: err.Error(), Err: err}
	}
	slog.Debug("target snapshot taken", "artifacts", len(snapshot))

	kept := make(map[string]struct{})
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run interrupted: %w", err)
		}
		e.processRecord(ctx, rec, index, kept, report)
	}

	e.cleanup(snapshot, kept, report)

	slog.Info("run complete",
		"processed", report.Processed,
		"materialized", report.Materialized,
		"sidecar_renames", report.SidecarRenames,
		"sidecar_patches", report.SidecarPatches,
		"deleted", report.Deleted,
		"errors", len(report.Errors),
		"dry_run", report.DryRun)

	return report, nil
}

// processRecord runs one record through the pipeline. Every failure is
// recorded and the method returns; the caller moves on to the next
// record regardless.
func (e *Engine) processRecord(ctx context.Context, rec catalog.Record, index sidecar.Index, kept map[string]struct{}, report *RunReport) {
	report.Processed++

	formatTag, ok := e.prof.ChooseFormat(rec.FormatTags())
	if !ok {
		report.Errors = append(report.Errors, newRecordError(ErrCodeNoFormat, rec.ID, rec.Title,
			fmt.Errorf("available formats %v intersect none of %v", rec.FormatTags(), e.prof.FormatPreference)))
		return
	}

	name := render.FileName(e.prof, rec, formatTag)
	targetPath := filepath.Join(e.targetRoot, name)

	// The canonical name is kept from here on even if materialization
	// fails below: cleanup must never delete an artifact the run
	// failed to refresh.
	kept[name] = struct{}{}

	if target.NeedsRefresh(rec.LastModified, targetPath) {
		slog.Debug("materializing", "record", rec.ID, "title", rec.Title, "format", formatTag, "path", targetPath)
		if err := e.mut.Materialize(ctx, rec, formatTag, targetPath); err != nil {
			report.Errors = append(report.Errors, newRecordError(ErrCodeCatalog, rec.ID, rec.Title, err))
			// Sidecar reconciliation still runs: a stale sidecar
			// name can exist even when the copy failed.
		} else {
			report.Materialized++
		}
	} else {
		slog.Debug("up to date", "record", rec.ID, "title", rec.Title, "path", targetPath)
		report.Skipped++
	}

	e.reconcileSidecars(rec, index[rec.ID], targetPath, report)
}

// reconcileSidecars reconciles a record's sidecar entries against its
// canonical identity. Runs for every record, including ones whose file
// was already current: a stale sidecar name self-heals even when no
// copy was needed.
func (e *Engine) reconcileSidecars(rec catalog.Record, entries []sidecar.Entry, targetPath string, report *RunReport) {
	if len(entries) == 0 {
		return
	}
	if len(entries) > 1 {
		report.warnf("record %d %q has %d sidecar entries; reconciling all without choosing a winner",
			rec.ID, rec.Title, len(entries))
	}

	expectedDir := render.SidecarDirName(e.prof, rec)
	for _, out := range e.reconciler.Reconcile(entries, expectedDir, targetPath) {
		if out.Conflict {
			report.warnf("sidecar rename target %q already exists; left %q in place",
				expectedDir, out.Entry.DirName)
		}
		if out.Renamed {
			slog.Debug("sidecar renamed", "record", rec.ID, "to", expectedDir)
			report.SidecarRenames++
		}
		// A rename that landed still counts even when the patch write
		// after it failed.
		if out.Err != nil {
			report.Errors = append(report.Errors, newRecordError(ErrCodeFileSystem, rec.ID, rec.Title, out.Err))
			continue
		}
		if out.Patched {
			slog.Debug("sidecar patched", "record", rec.ID, "doc_path", targetPath)
			report.SidecarPatches++
		}
		if out.Patch == sidecar.PatchUnrecognized && out.Entry.LocationFile != "" {
			report.warnf("no recognizable structure in %s; left untouched", out.Entry.LocationFile)
		}
	}
}

// cleanup deletes every snapshot artifact whose filename the run did
// not keep. One artifact's failure never stops the others.
func (e *Engine) cleanup(snapshot target.Snapshot, kept map[string]struct{}, report *RunReport) {
	for name, paths := range snapshot {
		if _, ok := kept[name]; ok {
			continue
		}
		for _, path := range paths {
			slog.Debug("deleting obsolete artifact", "path", path)
			if err := e.mut.Remove(path); err != nil {
				report.Errors = append(report.Errors, &RunError{
					Code:    ErrCodeFileSystem,
					Message: fmt.Sprintf("delete obsolete artifact: %v", err),
					Path:    path,
					Err:     err,
				})
				continue
			}
			report.Deleted++
		}
	}
}
