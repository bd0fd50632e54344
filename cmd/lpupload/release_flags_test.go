package main

import (
	"testing"

	"lpupload/internal/testsupport"
)

func TestOverlayMilestoneKeepsConfiguredVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	flags := &releaseFlags{milestone: "2.0"}

	resolved, err := flags.overlay(cfg)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if resolved.Release.Milestone != "2.0" {
		t.Fatalf("milestone = %q, want 2.0", resolved.Release.Milestone)
	}
	if resolved.Release.Version != "1.26.24" {
		t.Fatalf("version = %q, want configured 1.26.24", resolved.Release.Version)
	}
	if cfg.Release.Milestone != "1.26.24" {
		t.Fatalf("overlay modified the base config: %+v", cfg.Release)
	}
}

func TestOverlayMilestoneFillsEmptyVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRelease("veracrypt", "trunk", "1.26.24", ""))
	flags := &releaseFlags{milestone: "2.0"}

	resolved, err := flags.overlay(cfg)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if resolved.Release.Version != "2.0" {
		t.Fatalf("version = %q, want milestone 2.0", resolved.Release.Version)
	}
}

func TestOverlayExplicitVersionWins(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRelease("veracrypt", "trunk", "1.26.24", ""))
	flags := &releaseFlags{milestone: "2.0", version: " 2.0.1 "}

	resolved, err := flags.overlay(cfg)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if resolved.Release.Version != "2.0.1" {
		t.Fatalf("version = %q, want 2.0.1", resolved.Release.Version)
	}
}
