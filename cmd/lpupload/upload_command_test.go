package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"lpupload/internal/testsupport"
)

func seedRelease(t *testing.T, env *cliTestEnv) {
	t.Helper()
	env.fake.AddRelease("veracrypt", "trunk", "1.26.24", "1.26.24", "a.tar.bz2", "b.deb")
	testsupport.WriteArtifacts(t, env.cfg.Release.Directory, "a.tar.bz2", "b.deb", "c.dmg", "c.dmg.sig", "d.txt")
}

func TestUploadSkipsFilesAlreadyOnRelease(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	out, _, err := runCLI(t, []string{"upload"}, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if got, want := env.fake.UploadedNames(), []string{"c.dmg", "d.txt"}; !slices.Equal(got, want) {
		t.Fatalf("uploaded %v, want %v", got, want)
	}
	requireContains(t, out, "Resolving veracrypt/trunk/1.26.24 (1.26.24)")
	requireContains(t, out, "Files already uploaded to this release:")
	requireContains(t, out, ">>> Skipping a.tar.bz2 (already uploaded)")
	requireContains(t, out, ">>> Skipping b.deb (already uploaded)")
	requireContains(t, out, " -> Uploaded c.dmg with signature.")
	requireContains(t, out, " -> Uploaded d.txt without signature.")
	requireContains(t, out, "Done! All files uploaded (or attempted) successfully.")
	requireNotContains(t, out, "Uploading: c.dmg.sig")

	uploads := env.fake.Uploads()
	if uploads[0].SignatureFilename != "c.dmg.sig" || string(uploads[0].SignatureContent) != "content of c.dmg.sig" {
		t.Fatalf("unexpected signature for c.dmg: %+v", uploads[0])
	}
	if uploads[0].Description != "Uploaded file: c.dmg" {
		t.Fatalf("unexpected description %q", uploads[0].Description)
	}
	if uploads[1].ContentType != "text/plain" {
		t.Fatalf("unexpected content type for d.txt: %q", uploads[1].ContentType)
	}
}

func TestUploadSecondRunSkipsEverything(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	if _, _, err := runCLI(t, []string{"upload"}, env.configPath); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	out, _, err := runCLI(t, []string{"upload"}, env.configPath)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if got := len(env.fake.Uploads()); got != 2 {
		t.Fatalf("expected no new uploads on second run, have %d total", got)
	}
	requireContains(t, out, ">>> Skipping c.dmg (already uploaded)")
	requireContains(t, out, "0 uploaded")
}

func TestUploadDryRunDoesNotUpload(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	out, _, err := runCLI(t, []string{"upload", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("upload --dry-run: %v", err)
	}
	if len(env.fake.Uploads()) != 0 {
		t.Fatalf("dry run uploaded %v", env.fake.UploadedNames())
	}
	requireContains(t, out, "Planning upload (dry run)")
	requireContains(t, out, "Would upload: c.dmg")
	requireContains(t, out, "with signature c.dmg.sig")
	requireContains(t, out, "Dry run complete: 2 planned")
	for _, req := range env.fake.Requests() {
		if strings.HasPrefix(req, http.MethodPost) {
			t.Fatalf("dry run issued %s", req)
		}
	}
}

func TestUploadJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	out, _, err := runCLI(t, []string{"upload", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("upload --json: %v", err)
	}
	var report uploadReportJSON
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Uploaded != 2 || report.Skipped != 2 || report.Failed != 0 {
		t.Fatalf("unexpected tallies: %+v", report)
	}
	if !slices.Equal(report.Existing, []string{"a.tar.bz2", "b.deb"}) {
		t.Fatalf("unexpected existing list: %v", report.Existing)
	}
	if report.RunID == "" {
		t.Fatalf("expected ledger run id in report")
	}
	if len(report.Results) != 4 || report.Results[2].Outcome != "uploaded-with-signature" {
		t.Fatalf("unexpected results: %+v", report.Results)
	}
}

func TestUploadFailureContinuesWithRemainingFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)
	env.fake.FailUploads = map[string]int{"c.dmg": http.StatusInternalServerError}

	out, _, err := runCLI(t, []string{"upload"}, env.configPath)
	if err != nil {
		t.Fatalf("upload should exit cleanly without --fail-on-error: %v", err)
	}
	requireContains(t, out, "!!!  Failed to upload 'c.dmg'")
	requireContains(t, out, " -> Uploaded d.txt without signature.")
	requireContains(t, out, "Done with failures: 1 uploaded")
	if got := env.fake.UploadedNames(); !slices.Equal(got, []string{"d.txt"}) {
		t.Fatalf("uploaded %v, want [d.txt]", got)
	}
}

func TestUploadFailOnErrorReturnsError(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)
	env.fake.FailUploads = map[string]int{"c.dmg": http.StatusBadRequest}

	_, _, err := runCLI(t, []string{"upload", "--fail-on-error"}, env.configPath)
	if err == nil {
		t.Fatalf("expected error with --fail-on-error")
	}
	requireContains(t, err.Error(), "1 file(s) failed to upload")
}

func TestUploadInterruptedPrintsPartialSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.fake.AfterUpload = func(name string) {
		if name == "c.dmg" {
			cancel()
		}
	}

	out, _, err := runCLIContext(t, ctx, []string{"upload"}, env.configPath)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	requireContains(t, out, "Interrupted after 3 file(s):")
	requireContains(t, out, "2 skipped")
	requireNotContains(t, out, "Uploading: d.txt")
	requireNotContains(t, out, "Done!")
	if got := env.fake.UploadedNames(); !slices.Equal(got, []string{"c.dmg"}) {
		t.Fatalf("uploaded %v, want only c.dmg", got)
	}
}

func TestUploadFlagsOverrideRelease(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddRelease("tinyproj", "stable", "2.0", "2.0")
	dir := filepath.Join(env.baseDir, "other")
	testsupport.WriteArtifacts(t, dir, "tiny-2.0.tar.gz")

	out, _, err := runCLI(t, []string{"upload", "--project", "tinyproj", "--series", "stable", "--milestone", "2.0", "--version", "2.0", "--dir", dir}, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, "No files already uploaded to this release.")
	uploads := env.fake.Uploads()
	if len(uploads) != 1 || uploads[0].Filename != "tiny-2.0.tar.gz" || uploads[0].ContentType != "application/x-tar" {
		t.Fatalf("unexpected uploads: %+v", uploads)
	}
}

func TestUploadUnknownProject(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	_, _, err := runCLI(t, []string{"upload", "--project", "nope"}, env.configPath)
	if err == nil {
		t.Fatalf("expected unknown project error")
	}
	requireContains(t, err.Error(), `project "nope" not found`)
	if len(env.fake.Uploads()) != 0 {
		t.Fatalf("no uploads expected")
	}
}

func TestUploadVersionMismatch(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	_, _, err := runCLI(t, []string{"upload", "--version", "9.9"}, env.configPath)
	if err == nil {
		t.Fatalf("expected version mismatch error")
	}
	requireContains(t, err.Error(), `expected version "9.9"`)
}

func TestUploadMilestoneFlagStillChecksConfiguredVersion(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)
	env.fake.AddRelease("veracrypt", "trunk", "2.0", "2.0")

	_, _, err := runCLI(t, []string{"upload", "--milestone", "2.0"}, env.configPath)
	if err == nil {
		t.Fatalf("expected version mismatch error")
	}
	requireContains(t, err.Error(), `expected version "1.26.24"`)
	if len(env.fake.Uploads()) != 0 {
		t.Fatalf("nothing should be uploaded on mismatch")
	}
}

func TestUploadMissingDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddRelease("veracrypt", "trunk", "1.26.24", "1.26.24")

	_, _, err := runCLI(t, []string{"upload", "--dir", filepath.Join(env.baseDir, "missing")}, env.configPath)
	if err == nil {
		t.Fatalf("expected missing directory error")
	}
	requireContains(t, err.Error(), "does not exist")
}

func TestUploadRequiresLogin(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	if _, _, err := runCLI(t, []string{"logout"}, env.configPath); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, _, err := runCLI(t, []string{"upload"}, env.configPath)
	if err == nil {
		t.Fatalf("expected credentials error")
	}
	requireContains(t, err.Error(), "lpupload login")
}
