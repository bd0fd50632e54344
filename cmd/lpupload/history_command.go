package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lpupload/internal/ledger"
	"lpupload/internal/upload"
)

type attemptJSON struct {
	RunID       string    `json:"run_id"`
	AttemptedAt time.Time `json:"attempted_at"`
	Project     string    `json:"project"`
	Series      string    `json:"series"`
	Version     string    `json:"version"`
	File        string    `json:"file"`
	Outcome     string    `json:"outcome"`
	Size        int64     `json:"size"`
	Signature   string    `json:"signature,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runs bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent upload attempts from the local ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			history, err := ledger.Open(cfg)
			if errors.Is(err, ledger.ErrDisabled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Upload ledger is disabled (set [ledger] enabled = true).")
				return nil
			}
			if err != nil {
				return err
			}
			defer history.Close()

			if runs {
				return printRuns(cmd, history, limit, jsonOut)
			}

			attempts, err := history.RecentAttempts(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				out := make([]attemptJSON, 0, len(attempts))
				for _, a := range attempts {
					out = append(out, attemptJSON{
						RunID: a.RunID, AttemptedAt: a.AttemptedAt,
						Project: a.Project, Series: a.Series, Version: a.Version,
						File: a.Filename, Outcome: a.Outcome, Size: a.Size,
						Signature: a.SignatureName, Error: a.Error,
					})
				}
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(w, "No uploads recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(attempts))
			for _, a := range attempts {
				rows = append(rows, []string{
					a.AttemptedAt.Local().Format("2006-01-02 15:04"),
					fmt.Sprintf("%s/%s %s", a.Project, a.Series, a.Version),
					a.Filename,
					a.Outcome,
					upload.FormatBytes(a.Size),
					a.Error,
				})
			}
			fmt.Fprintln(w, renderTable([]tableColumn{
				{Header: "When"},
				{Header: "Release"},
				{Header: "File"},
				{Header: "Outcome"},
				{Header: "Size", Numeric: true},
				{Header: "Error"},
			}, rows, ""))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&runs, "runs", false, "Show whole runs instead of individual files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print history as JSON")
	return cmd
}

func printRuns(cmd *cobra.Command, history *ledger.Ledger, limit int, jsonOut bool) error {
	list, err := history.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd, list)
	}
	w := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(w, "No uploads recorded yet.")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		mode := "upload"
		if r.DryRun {
			mode = "dry run"
		}
		state := "finished"
		if r.FinishedAt == nil {
			state = "interrupted"
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%s/%s %s", r.Project, r.Series, r.Version),
			mode,
			state,
			fmt.Sprintf("%d/%d/%d", r.Summary.Uploaded, r.Summary.Skipped, r.Summary.Failed),
			upload.FormatBytes(r.Summary.Bytes),
		})
	}
	fmt.Fprintln(w, renderTable([]tableColumn{
		{Header: "Started"},
		{Header: "Release"},
		{Header: "Mode"},
		{Header: "State"},
		{Header: "Up/Skip/Fail", Numeric: true},
		{Header: "Bytes", Numeric: true},
	}, rows, ""))
	return nil
}
