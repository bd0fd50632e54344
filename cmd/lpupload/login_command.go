package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lpupload/internal/launchpad"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize lpupload with Launchpad and cache the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := ctx.credentialStore(cfg)
			out := cmd.OutOrStdout()

			if !force {
				if _, err := launchpad.LoadValid(store); err == nil {
					fmt.Fprintf(out, "Already logged in to %s (credentials at %s). Use --force to log in again.\n",
						cfg.Launchpad.Instance, store.Path())
					return nil
				}
			}

			auth, err := launchpad.NewAuthorizer(cfg.Launchpad.WebRoot, cfg.Launchpad.ApplicationName,
				launchpad.WithPollInterval(pollInterval))
			if err != nil {
				return err
			}

			loginCtx, cancel := context.WithTimeout(cmd.Context(), cfg.LoginTimeout())
			defer cancel()

			rt, err := auth.RequestToken(loginCtx)
			if err != nil {
				return fmt.Errorf("request token: %w", err)
			}

			fmt.Fprintln(out, "Open the following URL to authorize lpupload with Launchpad:")
			fmt.Fprintf(out, "\n    %s\n\n", rt.AuthorizeURL)
			fmt.Fprintln(out, "Choose \"Change Non-Private Data\" access, then return here.")
			fmt.Fprintln(out, "Waiting for authorization... (Ctrl+C to abort)")

			creds, err := auth.WaitForApproval(loginCtx, rt)
			switch {
			case errors.Is(err, launchpad.ErrAuthorizationDeclined):
				return errors.New("authorization was declined on Launchpad")
			case errors.Is(err, context.DeadlineExceeded):
				return fmt.Errorf("authorization not granted within %s; run 'lpupload login' again", cfg.LoginTimeout())
			case err != nil:
				return err
			}

			if err := store.Save(creds); err != nil {
				return err
			}
			fmt.Fprintf(out, "Logged in to %s. Credentials saved to %s\n", cfg.Launchpad.Instance, store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace cached credentials even when they exist")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 3*time.Second, "How often to check for approval")
	_ = cmd.Flags().MarkHidden("poll-interval")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove cached Launchpad credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := ctx.credentialStore(cfg)
			if err := store.Remove(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cached credentials at %s\n", store.Path())
			return nil
		},
	}
}
