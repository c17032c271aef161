package keys

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/internal/cli"
	"github/chapool/go-chapay/keystore"
)

const privateFlag = "private"

func newInspect() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Shows the account stored in a keystore file",
		Run: func(cmd *cobra.Command, args []string) {
			private, _ := cmd.Flags().GetBool(privateFlag)
			if err := runInspect(private); err != nil {
				log.Fatal().Err(err).Msg("Failed to inspect keystore")
			}
		},
	}
	cmd.Flags().Bool(privateFlag, false, "Decrypt and print the private key")
	return cmd
}

func runInspect(private bool) error {
	path, err := cli.KeystorePath()
	if err != nil {
		return err
	}

	doc, err := keystore.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("Address: %s\n", common.HexToAddress(doc.Address).Hex())
	fmt.Printf("Version: %d\n", doc.Version)
	fmt.Printf("KDF:     %s (n=%d r=%d p=%d)\n",
		doc.Crypto.KDF, doc.Crypto.KDFParams.N, doc.Crypto.KDFParams.R, doc.Crypto.KDFParams.P)

	if !private {
		return nil
	}

	passphrase, err := keystore.PromptPassphrase(false)
	if err != nil {
		return err
	}

	key, err := keystore.Decrypt(doc, passphrase)
	if err != nil {
		return err
	}

	fmt.Printf("Private: %x\n", crypto.FromECDSA(key))
	return nil
}
