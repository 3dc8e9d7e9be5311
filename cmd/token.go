package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/leadcal/internal/config"
	"github.com/teemow/leadcal/internal/google"
)

func newTokenCmd() *cobra.Command {
	var (
		envFile string
		force   bool
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Authorize Google Calendar access and store the refresh token",
		Long: `Run the Google OAuth installed-app flow for the calendar owner.

The authorization URL is printed to stderr. After consent, Google redirects to
a local listener and the token is written to TOKEN_FILE. The server refreshes
it automatically afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runToken(ctx, cmd.ErrOrStderr(), envFile, addr, force)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional .env file with configuration")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing token")
	cmd.Flags().StringVar(&addr, "listen-addr", google.DefaultLoopbackAddr, "Loopback address for the OAuth redirect")

	return cmd
}

func runToken(ctx context.Context, out io.Writer, envFile, addr string, force bool) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	creds := google.NewFileCredentials(cfg.ClientSecretFile, cfg.TokenFile, google.CalendarScopes)
	if creds.HasToken() && !force {
		return fmt.Errorf("token already exists at %s (use --force to replace it)", cfg.TokenFile)
	}

	conf, err := creds.Config()
	if err != nil {
		return err
	}

	tok, err := google.AuthorizeInstalledApp(ctx, conf, addr, func(authURL string) {
		fmt.Fprintf(out, "Open the following URL in your browser and grant calendar access:\n\n%s\n\n", authURL)
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := google.SaveToken(cfg.TokenFile, google.NewStoredToken(conf, tok)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", cfg.TokenFile)
	return nil
}
