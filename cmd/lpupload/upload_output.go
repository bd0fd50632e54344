package main

import (
	"lpupload/internal/hierarchy"
	"lpupload/internal/upload"
)

type uploadResultJSON struct {
	Name        string `json:"name"`
	Outcome     string `json:"outcome"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	Signature   string `json:"signature,omitempty"`
	Link        string `json:"link,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
}

type uploadReportJSON struct {
	RunID       string             `json:"run_id,omitempty"`
	Project     string             `json:"project"`
	Series      string             `json:"series"`
	Milestone   string             `json:"milestone"`
	Version     string             `json:"version"`
	ReleaseLink string             `json:"release_link"`
	DryRun      bool               `json:"dry_run"`
	Existing    []string           `json:"existing"`
	Results     []uploadResultJSON `json:"results"`
	Uploaded    int                `json:"uploaded"`
	Skipped     int                `json:"skipped"`
	Failed      int                `json:"failed"`
	Planned     int                `json:"planned"`
	Bytes       int64              `json:"bytes"`
}

func newUploadReportJSON(runID string, target hierarchy.Target, resolved *hierarchy.Resolved, existing upload.FileSet, report *upload.Report) *uploadReportJSON {
	out := &uploadReportJSON{
		RunID:       runID,
		Project:     target.Project,
		Series:      target.Series,
		Milestone:   target.Milestone,
		Version:     target.Version,
		ReleaseLink: resolved.Release.SelfLink,
		DryRun:      report.DryRun,
		Existing:    existing.Sorted(),
		Results:     make([]uploadResultJSON, 0, len(report.Results)),
		Uploaded:    report.Uploaded(),
		Skipped:     report.Count(upload.OutcomeSkipped),
		Failed:      report.Count(upload.OutcomeFailed),
		Planned:     report.Count(upload.OutcomePlanned),
		Bytes:       report.UploadedBytes() + report.PlannedBytes(),
	}
	for _, res := range report.Results {
		item := uploadResultJSON{
			Name:        res.Name,
			Outcome:     string(res.Outcome),
			ContentType: res.ContentType,
			Size:        res.Size,
			Signature:   res.SignatureName,
			Link:        res.Link,
			DurationMs:  res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		out.Results = append(out.Results, item)
	}
	return out
}
