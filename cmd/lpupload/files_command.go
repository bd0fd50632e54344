package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lpupload/internal/hierarchy"
)

type releaseFileJSON struct {
	Name         string     `json:"name"`
	FileType     string     `json:"file_type,omitempty"`
	Description  string     `json:"description,omitempty"`
	Signed       bool       `json:"signed"`
	DateUploaded *time.Time `json:"date_uploaded,omitempty"`
	Link         string     `json:"link"`
}

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var flags releaseFlags
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List the files already attached to the release",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := flags.apply(base, false)
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client, err := ctx.newClient(cfg, logger)
			if err != nil {
				return err
			}
			resolved, err := hierarchy.NewResolver(client, logger).Resolve(cmd.Context(), releaseTarget(cfg))
			if err != nil {
				return err
			}
			files, err := client.ReleaseFiles(cmd.Context(), resolved.Release)
			if err != nil {
				return err
			}

			if jsonOut {
				out := make([]releaseFileJSON, 0, len(files))
				for _, f := range files {
					out = append(out, releaseFileJSON{
						Name:         f.Filename(),
						FileType:     f.FileType,
						Description:  f.Description,
						Signed:       f.SignatureLink != "",
						DateUploaded: f.DateUploaded,
						Link:         f.FileLink,
					})
				}
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(w, "No files already uploaded to this release.")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				uploaded := "-"
				if f.DateUploaded != nil {
					uploaded = f.DateUploaded.Local().Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{f.Filename(), f.FileType, yesNo(f.SignatureLink != ""), uploaded})
			}
			fmt.Fprintln(w, renderTable(textColumns("File", "Type", "Signed", "Uploaded"), rows,
				fmt.Sprintf("%d file(s) on %s", len(files), releaseTarget(cfg))))
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the file list as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
