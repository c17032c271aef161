package keys

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/devkeys"
)

func newDev() *cobra.Command {
	return &cobra.Command{
		Use:   "dev",
		Short: "Lists the deterministic devnet accounts",
		Run: func(cmd *cobra.Command, args []string) {
			addrs, err := devkeys.Addresses(10)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to derive devnet accounts")
			}

			for i, addr := range addrs {
				role := ""
				switch uint32(i) {
				case devkeys.SenderIndex:
					role = " (default sender)"
				case devkeys.FeePayerIndex:
					role = " (relay sponsor)"
				}
				fmt.Printf("%2d: %s%s\n", i, addr.Hex(), role)
			}
		},
	}
}
