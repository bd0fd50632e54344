package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lpupload/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var flags releaseFlags

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and Launchpad connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := flags.overlay(base)
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store := ctx.credentialStore(cfg)

			var prober preflight.Prober
			if client, err := ctx.newClient(cfg, logger); err == nil {
				prober = client
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("lpupload doctor", colorize) {
				fmt.Fprintln(out, line)
			}
			configDetail := ctx.configPath
			if !ctx.configSeen {
				configDetail += " (not found; defaults in use)"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusNote, configDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("Instance", statusNote, cfg.ServiceURL(), colorize))
			if missing := cfg.MissingReleaseFields(); len(missing) > 0 {
				fmt.Fprintln(out, renderStatusLine("Release", statusWarn, fmt.Sprintf("missing %v", missing), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Release", statusNote, releaseTarget(cfg).String(), colorize))
			}

			results := preflight.RunAll(cmd.Context(), cfg, store, prober)
			for _, res := range results {
				kind := statusOK
				if !res.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(res.Name, kind, res.Detail, colorize))
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}

	flags.register(cmd, true)
	return cmd
}
