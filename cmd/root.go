package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/cmd/db"
	"github/chapool/go-chapay/cmd/env"
	"github/chapool/go-chapay/cmd/keys"
	"github/chapool/go-chapay/cmd/probe"
	"github/chapool/go-chapay/cmd/server"
	"github/chapool/go-chapay/cmd/tx"
	"github/chapool/go-chapay/internal/cli"
	"github/chapool/go-chapay/internal/config"
	"github/chapool/go-chapay/internal/util"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "chapay",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Client tooling and sponsorship relay for fee token transactions.
The relay daemon is configured through ENV, the client commands
through flags and CHAPAY_* variables.`, config.ModuleName),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(util.LogLevelFromString(cli.LogLevel()))
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cli.RegisterFlags(rootCmd)

	// attach the subcommands
	rootCmd.AddCommand(
		db.New(),
		env.New(),
		keys.New(),
		probe.New(),
		server.New(),
		tx.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
