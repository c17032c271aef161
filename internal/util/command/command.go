// Package command provides helpers shared by the CLI subcommands.
package command

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/internal/config"
	"github/chapool/go-chapay/internal/relayd"
)

// NewSubcommandGroup returns a command that only groups its subcommands.
// Calling the group itself prints the usage and exits nonzero.
func NewSubcommandGroup(name string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Collection of %s subcommands", name),
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}
			os.Exit(1)
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// WithServer initializes a relay server for one-shot command execution, runs
// fn against it and shuts the server down again. The error of fn comes back
// unchanged.
func WithServer(ctx context.Context, cfg config.Server, fn func(ctx context.Context, s *relayd.Server) error) error {
	s := relayd.NewServer(cfg)

	if err := s.Init(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	defer func() {
		if errs := s.Shutdown(context.Background()); len(errs) > 0 {
			log.Error().Errs("errors", errs).Msg("Failed to shutdown server cleanly")
		}
	}()

	return fn(ctx, s)
}
