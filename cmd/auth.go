package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/musik/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin opens a session with the configured credentials and reports its expiry.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.musik.SetSession(nil)
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	session := r.musik.Session()
	r.logger.Info("authentication successful", "username", session.Username)

	r.writePlain("✓ Logged in as %s\n", session.Username)
	if session.Expires.IsZero() {
		return r.writePlain("Token expiry: none\n")
	}
	return r.writePlain("Token expires: %s (in %s)\n",
		session.Expires.Local().Format(time.DateTime),
		time.Until(session.Expires).Round(time.Second))
}

// AuthRegister creates an account on the server.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	if username == "" {
		username = r.config.Credentials.Username
	}
	password := cmd.String("password")
	if password == "" {
		password = r.config.Credentials.Password
	}

	if username == "" || password == "" {
		return fmt.Errorf("%w: --username and --password", shared.ErrMissingArgument)
	}

	r.logger.Info("registering account", "username", username)
	if err := r.musik.Register(ctx, username, password); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return r.writePlain("✓ Registered %s\n", username)
}
