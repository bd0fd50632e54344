package main

import (
	"encoding/json"
	"testing"

	"lpupload/internal/testsupport"
)

func TestHistoryShowsRecordedAttempts(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRelease(t, env)

	if _, _, err := runCLI(t, []string{"upload"}, env.configPath); err != nil {
		t.Fatalf("upload: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "c.dmg")
	requireContains(t, out, "uploaded-with-signature")
	requireContains(t, out, "skipped")

	out, _, err = runCLI(t, []string{"history", "--json", "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var attempts []attemptJSON
	if err := json.Unmarshal([]byte(out), &attempts); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(attempts) != 2 || attempts[0].File != "d.txt" || attempts[0].Project != "veracrypt" {
		t.Fatalf("unexpected attempts: %+v", attempts)
	}

	out, _, err = runCLI(t, []string{"history", "--runs"}, env.configPath)
	if err != nil {
		t.Fatalf("history --runs: %v", err)
	}
	requireContains(t, out, "2/2/0")
	requireContains(t, out, "finished")
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No uploads recorded yet.")
}

func TestHistoryDisabledLedger(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Upload ledger is disabled")
}
