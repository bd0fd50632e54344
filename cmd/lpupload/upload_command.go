package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"lpupload/internal/artifacts"
	"lpupload/internal/config"
	"lpupload/internal/hierarchy"
	"lpupload/internal/ledger"
	"lpupload/internal/logging"
	"lpupload/internal/preflight"
	"lpupload/internal/upload"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var flags releaseFlags
	var dryRun bool
	var jsonOut bool
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload missing artifacts to a Launchpad release",
		Long: `Resolve the configured project, series, milestone and release, then attach
every file in the artifact directory that the release does not already have.
A file named <artifact>.sig next to an artifact is sent as its detached
signature. Files that fail to upload are reported and the run continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := flags.apply(base, true)
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			run := &uploadRun{
				cfg:         cfg,
				ctx:         ctx,
				logger:      logger,
				out:         cmd.OutOrStdout(),
				jsonOut:     jsonOut,
				dryRun:      dryRun,
				failOnError: failOnError || cfg.Upload.FailOnError,
				colorize:    shouldColorize(cmd.OutOrStdout()),
			}
			report, err := run.execute(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			}
			if report.Failed > 0 && run.failOnError {
				return fmt.Errorf("%d file(s) failed to upload", report.Failed)
			}
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be uploaded without uploading")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any file fails to upload")
	return cmd
}

type uploadRun struct {
	cfg         *config.Config
	ctx         *commandContext
	logger      *slog.Logger
	out         io.Writer
	jsonOut     bool
	dryRun      bool
	failOnError bool
	colorize    bool
}

func (r *uploadRun) printf(format string, args ...any) {
	if !r.jsonOut {
		fmt.Fprintf(r.out, format, args...)
	}
}

func (r *uploadRun) execute(ctx context.Context) (*uploadReportJSON, error) {
	cfg := r.cfg
	if res := preflight.CheckDirectory("Artifact directory", cfg.Release.Directory); !res.Passed {
		return nil, fmt.Errorf("artifact directory: %s", res.Detail)
	}
	items, err := artifacts.Scan(cfg.Release.Directory, cfg.Upload.SignatureSuffix)
	if err != nil {
		return nil, err
	}

	if !r.dryRun {
		lock, err := upload.AcquireLock(cfg.LockPath())
		if err != nil {
			return nil, err
		}
		r.logger.Debug("upload lock held", logging.Args(logging.String("path", lock.Path()))...)
		defer func() {
			if err := lock.Release(); err != nil {
				r.logger.Warn("release upload lock", logging.Args(logging.Error(err))...)
			}
		}()
	}

	client, err := r.ctx.newClient(cfg, r.logger)
	if err != nil {
		return nil, err
	}

	target := releaseTarget(cfg)
	r.printf("Resolving %s on %s\n", target, cfg.Launchpad.Instance)
	resolved, err := hierarchy.NewResolver(client, r.logger).Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if r.dryRun {
		r.printf("Release found. Planning upload (dry run)…\n")
	} else {
		r.printf("Release found. Beginning upload…\n")
	}

	existing, err := upload.ExistingFiles(ctx, client, resolved.Release)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		r.printf("No files already uploaded to this release.\n")
	} else {
		r.printf("Files already uploaded to this release:\n%s\n", renderFileList(existing.Sorted()))
	}
	r.printf("\n")

	observers := []upload.Observer{}
	if !r.jsonOut {
		observers = append(observers, &progressPrinter{out: r.out, colorize: r.colorize})
	}
	history, runID := r.beginHistory(ctx, target)
	if history != nil {
		defer history.Close()
		ctx = logging.WithRunID(ctx, runID)
		observers = append(observers, &ledgerObserver{
			ctx:    ctx,
			ledger: history,
			runID:  runID,
			logger: logging.WithContext(ctx, r.logger),
		})
	}

	driver := upload.NewDriver(client,
		upload.WithDescription(cfg.Upload.Description),
		upload.WithFileType(cfg.Upload.FileType),
		upload.WithObserver(observers...),
		upload.WithLogger(logging.WithContext(ctx, r.logger)),
	)

	var report *upload.Report
	var runErr error
	if r.dryRun {
		report = driver.DryRun(existing, items)
	} else {
		report, runErr = driver.Run(ctx, resolved.Release, existing, items)
	}

	if history != nil {
		// The run context may already be cancelled; the summary is still written.
		if err := history.FinishRun(context.WithoutCancel(ctx), runID, summarize(report)); err != nil {
			r.logger.Warn("record run summary", logging.Args(logging.Error(err))...)
		}
	}
	line, kind := runSummaryLine(report, runErr != nil)
	r.printf("\n%s\n", paint(line, kind, r.colorize))
	if runErr != nil {
		return nil, runErr
	}
	return newUploadReportJSON(runID, target, resolved, existing, report), nil
}

// beginHistory opens the ledger and starts a run. The ledger is optional:
// any failure is logged and the upload proceeds without history.
func (r *uploadRun) beginHistory(ctx context.Context, target hierarchy.Target) (*ledger.Ledger, string) {
	history, err := ledger.Open(r.cfg)
	if errors.Is(err, ledger.ErrDisabled) {
		return nil, ""
	}
	if err != nil {
		r.logger.Warn("upload ledger unavailable", logging.Args(logging.Error(err))...)
		return nil, ""
	}
	run, err := history.BeginRun(ctx, ledger.Run{
		Project:   target.Project,
		Series:    target.Series,
		Milestone: target.Milestone,
		Version:   target.Version,
		Directory: r.cfg.Release.Directory,
		DryRun:    r.dryRun,
	})
	if err != nil {
		r.logger.Warn("start ledger run", logging.Args(logging.Error(err))...)
		_ = history.Close()
		return nil, ""
	}
	return history, run.ID
}

func summarize(report *upload.Report) ledger.Summary {
	return ledger.Summary{
		Uploaded: report.Uploaded(),
		Skipped:  report.Count(upload.OutcomeSkipped),
		Failed:   report.Count(upload.OutcomeFailed),
		Planned:  report.Count(upload.OutcomePlanned),
		Bytes:    report.UploadedBytes() + report.PlannedBytes(),
	}
}

// progressPrinter prints one line per file as the driver works.
type progressPrinter struct {
	out      io.Writer
	colorize bool
}

func (p *progressPrinter) FileStarted(a artifacts.Artifact) {
	fmt.Fprintf(p.out, "Uploading: %s (type: %s)\n", a.Name, a.ContentType)
}

func (p *progressPrinter) FileFinished(res upload.Result) {
	var line string
	switch res.Outcome {
	case upload.OutcomeSkipped:
		line = fmt.Sprintf(">>> Skipping %s (already uploaded)", res.Name)
	case upload.OutcomePlanned:
		line = fmt.Sprintf("Would upload: %s (type: %s, %s)", res.Name, res.ContentType, upload.FormatBytes(res.Size))
		if res.SignatureName != "" {
			line += " with signature " + res.SignatureName
		}
	case upload.OutcomeUploadedWithSignature:
		line = fmt.Sprintf(" -> Uploaded %s with signature.", res.Name)
	case upload.OutcomeUploaded:
		line = fmt.Sprintf(" -> Uploaded %s without signature.", res.Name)
	case upload.OutcomeFailed:
		line = fmt.Sprintf("!!!  Failed to upload '%s': %v", res.Name, res.Err)
	default:
		return
	}
	fmt.Fprintln(p.out, paint(line, outcomeKind(res.Outcome), p.colorize))
}

// ledgerObserver writes every finished file to the upload ledger.
type ledgerObserver struct {
	ctx    context.Context
	ledger *ledger.Ledger
	runID  string
	logger *slog.Logger
}

func (o *ledgerObserver) FileStarted(artifacts.Artifact) {}

func (o *ledgerObserver) FileFinished(res upload.Result) {
	attempt := ledger.Attempt{
		Filename:      res.Name,
		Outcome:       string(res.Outcome),
		ContentType:   res.ContentType,
		Size:          res.Size,
		SignatureName: res.SignatureName,
		Link:          res.Link,
		Duration:      res.Duration,
	}
	if res.Err != nil {
		attempt.Error = res.Err.Error()
	}
	if err := o.ledger.Record(context.WithoutCancel(o.ctx), o.runID, attempt); err != nil {
		o.logger.Warn("record upload attempt",
			logging.Args(logging.String(logging.FieldFile, res.Name), logging.Error(err))...)
	}
}
