// Package cli resolves the options shared by the chapay subcommands. Flags
// are bound through viper, so every option can also come from a CHAPAY_*
// environment variable, for example CHAPAY_CHAIN or CHAPAY_RPC_URL.
package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github/chapool/go-chapay/chains"
	"github/chapool/go-chapay/client"
)

// RegisterFlags declares the persistent flags of the root command and binds
// them to environment variables.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("chain", chains.Devnet.Name, "Chain name or numeric id from the registry")
	flags.String("rpc-url", "", "Override the RPC endpoint of the selected chain")
	flags.String("relay-url", "", "Override the sponsorship relay endpoint")
	flags.String("chains-file", "", "TOML registry with additional chains")
	flags.String("keystore", "", "Path to an encrypted key file")
	flags.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")

	viper.SetEnvPrefix("CHAPAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)
}

// ResolveChain picks the selected chain, preferring entries from the chains
// file over the builtin registry, and applies endpoint overrides.
func ResolveChain() (chains.Chain, error) {
	available := chains.All()
	if file := viper.GetString("chains-file"); file != "" {
		loaded, err := chains.Load(file)
		if err != nil {
			return chains.Chain{}, err
		}
		available = append(loaded, available...)
	}

	sel := viper.GetString("chain")
	chain, ok := findChain(available, sel)
	if !ok {
		return chains.Chain{}, errors.Errorf("unknown chain %q", sel)
	}

	if url := viper.GetString("rpc-url"); url != "" {
		chain.RPCURL = url
	}
	if url := viper.GetString("relay-url"); url != "" {
		chain.RelayURL = url
	}

	return chain, nil
}

func findChain(available []chains.Chain, sel string) (chains.Chain, bool) {
	if id, err := strconv.ParseUint(sel, 10, 64); err == nil {
		for _, c := range available {
			if c.ID == id {
				return c, true
			}
		}
		return chains.Chain{}, false
	}

	for _, c := range available {
		if c.Name == sel {
			return c, true
		}
	}
	return chains.Chain{}, false
}

// Dial connects a client for the selected chain.
func Dial(ctx context.Context) (*client.Client, chains.Chain, error) {
	chain, err := ResolveChain()
	if err != nil {
		return nil, chains.Chain{}, err
	}

	c, err := client.Dial(ctx, chain.ClientConfig())
	if err != nil {
		return nil, chains.Chain{}, err
	}

	return c, chain, nil
}

// KeystorePath returns the configured keystore location.
func KeystorePath() (string, error) {
	path := viper.GetString("keystore")
	if path == "" {
		return "", errors.New("no keystore configured: pass --keystore or set CHAPAY_KEYSTORE")
	}
	return path, nil
}

// LogLevel returns the configured CLI log level.
func LogLevel() string {
	return viper.GetString("log-level")
}
