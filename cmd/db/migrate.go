package db

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/internal/config"
	"github/chapool/go-chapay/internal/relayd"
	"github/chapool/go-chapay/internal/util/command"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies all pending sponsorship ledger migrations",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runMigrate(cmd.Context()); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}
		},
	}
}

func runMigrate(ctx context.Context) error {
	return command.WithServer(ctx, config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *relayd.Server) error {
		n, err := s.ApplyMigrations()
		if err != nil {
			return err
		}

		log.Info().Int("applied", n).Msg("Migrations applied")
		return nil
	})
}
