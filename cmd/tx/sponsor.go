package tx

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/devkeys"
	"github/chapool/go-chapay/feepayer"
	"github/chapool/go-chapay/internal/cli"
	"github/chapool/go-chapay/keystore"
)

func newSponsor() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sponsor <hex>",
		Short: "Countersigns a pending sponsorship envelope with the local key",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSponsor(cmd, args[0]); err != nil {
				log.Fatal().Err(err).Msg("Failed to sponsor transaction")
			}
		},
	}
	cmd.Flags().Bool("send", false, "Submit the countersigned transaction")
	cmd.Flags().Bool("dev-payer", false, "Countersign with the deterministic devnet sponsor key")
	return cmd
}

func runSponsor(cmd *cobra.Command, rawHex string) error {
	raw, err := hexutil.Decode(strings.TrimSpace(rawHex))
	if err != nil {
		return err
	}

	key, err := loadPayerKey(cmd)
	if err != nil {
		return err
	}

	// The local policy accepts everything; whoever runs this command has
	// already decided to pay.
	cs := feepayer.NewCountersigner(key, feepayer.Policy{})

	out, signed, err := cs.Countersign(raw)
	if err != nil {
		return err
	}

	hash, err := signed.Hash()
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %s\n", "Fee Payer:", strings.ToLower(cs.Address().Hex()))
	fmt.Printf("%-12s %s\n", "Tx Hash:", strings.ToLower(hash.Hex()))
	fmt.Printf("%-12s %s\n", "Raw:", hexutil.Encode(out))

	if send, _ := cmd.Flags().GetBool("send"); !send {
		return nil
	}

	ctx := cmd.Context()
	c, _, err := cli.Dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	submitted, err := c.SendRawTransaction(ctx, out)
	if err != nil {
		return err
	}
	fmt.Printf("%-12s %s\n", "Submitted:", strings.ToLower(submitted.Hex()))
	return nil
}

func loadPayerKey(cmd *cobra.Command) (*ecdsa.PrivateKey, error) {
	if devPayer, _ := cmd.Flags().GetBool("dev-payer"); devPayer {
		key, _, err := devkeys.FeePayer()
		return key, err
	}

	path, err := cli.KeystorePath()
	if err != nil {
		return nil, err
	}
	passphrase, err := keystore.PromptPassphrase(false)
	if err != nil {
		return nil, err
	}
	return keystore.LoadKey(path, passphrase)
}
