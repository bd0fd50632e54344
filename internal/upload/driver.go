package upload

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lpupload/internal/artifacts"
	"lpupload/internal/launchpad"
	"lpupload/internal/logging"
)

const defaultDescription = "Uploaded file: {filename}"

// ReleaseFiles is the Launchpad surface the driver writes through.
type ReleaseFiles interface {
	FileLister
	AddFile(ctx context.Context, release *launchpad.Release, upload launchpad.FileUpload) (string, error)
}

// Observer is notified as the driver works through the artifacts.
type Observer interface {
	FileStarted(artifact artifacts.Artifact)
	FileFinished(result Result)
}

// Option customises Driver construction.
type Option func(*Driver)

// WithDescription sets the description template; {filename} is replaced with
// the artifact name.
func WithDescription(template string) Option {
	return func(d *Driver) {
		if strings.TrimSpace(template) != "" {
			d.description = template
		}
	}
}

// WithFileType sets the Launchpad file_type sent with every upload.
func WithFileType(fileType string) Option {
	return func(d *Driver) {
		d.fileType = strings.TrimSpace(fileType)
	}
}

// WithObserver registers observers for per-file progress.
func WithObserver(observers ...Observer) Option {
	return func(d *Driver) {
		for _, o := range observers {
			if o != nil {
				d.observers = append(d.observers, o)
			}
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logging.NewComponentLogger(logger, "upload")
	}
}

// Driver attaches local artifacts to a release.
type Driver struct {
	files       ReleaseFiles
	description string
	fileType    string
	observers   []Observer
	logger      *slog.Logger
	now         func() time.Time
}

// NewDriver builds a driver writing through files.
func NewDriver(files ReleaseFiles, opts ...Option) *Driver {
	d := &Driver{
		files:       files,
		description: defaultDescription,
		logger:      logging.NewComponentLogger(nil, "upload"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DescriptionFor renders the description sent for name.
func (d *Driver) DescriptionFor(name string) string {
	return strings.ReplaceAll(d.description, "{filename}", name)
}

// Run uploads every artifact not in existing, in the order given. existing is
// only read; it keeps describing the release as it was before the run. Per-file
// failures are recorded in the report and do not stop the run. The returned
// error is non-nil only when ctx ends; the report then covers the files
// handled so far.
func (d *Driver) Run(ctx context.Context, release *launchpad.Release, existing FileSet, items []artifacts.Artifact) (*Report, error) {
	report := &Report{Started: d.now()}
	defer func() { report.Finished = d.now() }()

	for _, artifact := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if existing.Has(artifact.Name) {
			d.finish(report, d.skipped(artifact))
			continue
		}

		d.started(artifact)
		d.finish(report, d.uploadOne(ctx, release, artifact))
	}
	return report, ctx.Err()
}

// DryRun reports what Run would do without touching the release.
func (d *Driver) DryRun(existing FileSet, items []artifacts.Artifact) *Report {
	report := &Report{DryRun: true, Started: d.now()}
	for _, artifact := range items {
		if existing.Has(artifact.Name) {
			d.finish(report, d.skipped(artifact))
			continue
		}
		d.finish(report, Result{
			Name:          artifact.Name,
			Outcome:       OutcomePlanned,
			ContentType:   artifact.ContentType,
			Size:          artifact.Size,
			SignatureName: artifact.SignatureName(),
		})
	}
	report.Finished = d.now()
	return report
}

func (d *Driver) uploadOne(ctx context.Context, release *launchpad.Release, artifact artifacts.Artifact) Result {
	start := d.now()
	result := Result{
		Name:          artifact.Name,
		ContentType:   artifact.ContentType,
		Size:          artifact.Size,
		SignatureName: artifact.SignatureName(),
	}
	logger := d.logger.With(logging.String(logging.FieldFile, artifact.Name))
	logger.Info("uploading",
		logging.Args(
			logging.String("content_type", artifact.ContentType),
			logging.Bool("signed", artifact.HasSignature()),
		)...)

	content, signature, err := artifact.Read()
	if err != nil {
		return d.failed(logger, result, start, err)
	}
	result.Size = int64(len(content))

	upload := launchpad.FileUpload{
		Filename:    artifact.Name,
		Description: d.DescriptionFor(artifact.Name),
		ContentType: artifact.ContentType,
		FileType:    d.fileType,
		Content:     content,
	}
	if artifact.HasSignature() {
		upload.SignatureFilename = artifact.SignatureName()
		upload.SignatureContent = signature
	}

	link, err := d.files.AddFile(ctx, release, upload)
	if err != nil {
		return d.failed(logger, result, start, err)
	}

	result.Link = link
	result.Duration = d.now().Sub(start)
	result.Outcome = OutcomeUploaded
	if upload.HasSignature() {
		result.Outcome = OutcomeUploadedWithSignature
	}
	logger.Info("uploaded",
		logging.Args(
			logging.String("outcome", string(result.Outcome)),
			logging.Int64("bytes", result.Size),
			logging.String("elapsed", result.Duration.Round(time.Millisecond).String()),
		)...)
	return result
}

func (d *Driver) failed(logger *slog.Logger, result Result, start time.Time, err error) Result {
	result.Outcome = OutcomeFailed
	result.Err = err
	result.Duration = d.now().Sub(start)
	logger.Error("upload failed", logging.Args(logging.Error(err))...)
	return result
}

func (d *Driver) skipped(artifact artifacts.Artifact) Result {
	d.logger.Info("already uploaded; skipping",
		logging.Args(logging.String(logging.FieldFile, artifact.Name))...)
	return Result{
		Name:          artifact.Name,
		Outcome:       OutcomeSkipped,
		ContentType:   artifact.ContentType,
		Size:          artifact.Size,
		SignatureName: artifact.SignatureName(),
	}
}

func (d *Driver) started(artifact artifacts.Artifact) {
	for _, o := range d.observers {
		o.FileStarted(artifact)
	}
}

func (d *Driver) finish(report *Report, result Result) {
	report.add(result)
	for _, o := range d.observers {
		o.FileFinished(result)
	}
}
