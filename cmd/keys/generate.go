package keys

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/internal/cli"
	"github/chapool/go-chapay/keystore"
)

const lightFlag = "light"

func newGenerate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generates a key and stores it scrypt encrypted",
		Run: func(cmd *cobra.Command, args []string) {
			light, _ := cmd.Flags().GetBool(lightFlag)
			if err := runGenerate(light); err != nil {
				log.Fatal().Err(err).Msg("Failed to generate key")
			}
		},
	}
	cmd.Flags().Bool(lightFlag, false, "Use light scrypt parameters (devnet only)")
	return cmd
}

func runGenerate(light bool) error {
	path, err := cli.KeystorePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("refusing to overwrite existing keystore %s", path)
	}

	passphrase, err := keystore.PromptPassphrase(true)
	if err != nil {
		return err
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return errors.Wrap(err, "generating key")
	}

	params := keystore.DefaultScryptParams()
	if light {
		params = keystore.LightScryptParams()
	}

	if err := keystore.SaveKey(path, key, passphrase, params); err != nil {
		return err
	}

	fmt.Printf("Address:  %s\nKeystore: %s\n", crypto.PubkeyToAddress(key.PublicKey).Hex(), path)
	return nil
}
