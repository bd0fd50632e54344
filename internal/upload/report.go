package upload

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Outcome is the final state of one artifact in a run.
type Outcome string

const (
	OutcomeUploaded              Outcome = "uploaded"
	OutcomeUploadedWithSignature Outcome = "uploaded-with-signature"
	OutcomeSkipped               Outcome = "skipped"
	OutcomeFailed                Outcome = "failed"
	OutcomePlanned               Outcome = "planned"
)

// Result describes what happened to one artifact.
type Result struct {
	Name          string
	Outcome       Outcome
	ContentType   string
	Size          int64
	SignatureName string
	Link          string
	Err           error
	Duration      time.Duration
}

// Report collects per-file results in processing order.
type Report struct {
	Results  []Result
	DryRun   bool
	Started  time.Time
	Finished time.Time
}

func (r *Report) add(result Result) {
	r.Results = append(r.Results, result)
}

// Count returns how many results ended with outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Uploaded counts files attached during the run, signed or not.
func (r *Report) Uploaded() int {
	return r.Count(OutcomeUploaded) + r.Count(OutcomeUploadedWithSignature)
}

// HasFailures reports whether any file failed to upload.
func (r *Report) HasFailures() bool {
	return r.Count(OutcomeFailed) > 0
}

// UploadedBytes sums the artifact sizes of successful uploads.
func (r *Report) UploadedBytes() int64 {
	return r.sumBytes(OutcomeUploaded, OutcomeUploadedWithSignature)
}

// PlannedBytes sums the artifact sizes a dry run would send.
func (r *Report) PlannedBytes() int64 {
	return r.sumBytes(OutcomePlanned)
}

func (r *Report) sumBytes(outcomes ...Outcome) int64 {
	var total int64
	for _, res := range r.Results {
		for _, o := range outcomes {
			if res.Outcome == o {
				total += res.Size
			}
		}
	}
	return total
}

var bytePrinter = message.NewPrinter(language.English)

// FormatBytes renders a byte count with thousands separators, e.g. "1,048,576 bytes".
func FormatBytes(n int64) string {
	return bytePrinter.Sprintf("%d bytes", n)
}

// Summary is a one-line tally of the report.
func (r *Report) Summary() string {
	if r.DryRun {
		return bytePrinter.Sprintf("%d planned (%s), %d skipped",
			r.Count(OutcomePlanned), FormatBytes(r.PlannedBytes()), r.Count(OutcomeSkipped))
	}
	return bytePrinter.Sprintf("%d uploaded (%s), %d skipped, %d failed",
		r.Uploaded(), FormatBytes(r.UploadedBytes()), r.Count(OutcomeSkipped), r.Count(OutcomeFailed))
}
