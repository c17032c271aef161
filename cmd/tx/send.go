package tx

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/devkeys"
	"github/chapool/go-chapay/internal/cli"
	"github/chapool/go-chapay/keystore"
	"github/chapool/go-chapay/txtypes"
)

func newSend() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Builds, signs and submits a fee token transaction",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSend(cmd); err != nil {
				log.Fatal().Err(err).Msg("Failed to send transaction")
			}
		},
	}

	f := cmd.Flags()
	f.String("to", "", "Recipient address (omit to deploy the data as a contract)")
	f.String("value", "", "Value in wei")
	f.String("data", "", "Calldata as 0x hex")
	f.String("fee-token", "", "ERC-20 token to pay the gas fee in")
	f.Int64("nonce", -1, "Nonce (default: next pending nonce)")
	f.Uint64("gas", 0, "Gas limit (default: estimate)")
	f.String("tip-cap", "", "Max priority fee per gas in wei (default: suggested)")
	f.String("fee-cap", "", "Max fee per gas in wei (default: tip + 2x base fee)")
	f.Bool("sponsor", false, "Request fee sponsorship through the relay")
	f.String("fee-payer", "", "Expected sponsor address (implies --sponsor)")
	f.Bool("dev-sender", false, "Sign with the deterministic devnet sender key")
	f.Bool("sync", false, "Wait for the receipt (eth_sendRawTransactionSync)")
	f.Duration("sync-timeout", 0, "Receipt timeout for --sync, 0 uses the server default")

	return cmd
}

func runSend(cmd *cobra.Command) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	c, chain, err := cli.Dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	key, err := loadSenderKey(cmd)
	if err != nil {
		return err
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	args := txtypes.TxArgs{ChainID: chain.ID}
	args.To, _ = flags.GetString("to")
	args.Value, _ = flags.GetString("value")
	args.Data, _ = flags.GetString("data")
	args.FeeToken, _ = flags.GetString("fee-token")
	args.FeePayer, _ = flags.GetString("fee-payer")
	args.MaxPriorityFeePerGas, _ = flags.GetString("tip-cap")
	args.MaxFeePerGas, _ = flags.GetString("fee-cap")
	args.Gas, _ = flags.GetUint64("gas")

	tx, err := txtypes.NewFeeTokenTx(args)
	if err != nil {
		return err
	}

	if nonce, _ := flags.GetInt64("nonce"); nonce >= 0 {
		tx.Nonce = uint64(nonce)
	} else {
		n, err := c.PendingNonceAt(ctx, from)
		if err != nil {
			return err
		}
		tx.Nonce = n
	}

	if tx.GasTipCap == nil {
		tip, err := c.SuggestGasTipCap(ctx)
		if err != nil {
			return err
		}
		if tx.GasTipCap, err = toU256(tip, "suggested tip"); err != nil {
			return err
		}
	}

	if tx.GasFeeCap == nil {
		head, err := c.HeaderByNumber(ctx, nil)
		if err != nil {
			return err
		}
		feeCap := new(big.Int).Set(tx.GasTipCap.ToBig())
		if head.BaseFee != nil {
			feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		}
		if tx.GasFeeCap, err = toU256(feeCap, "fee cap"); err != nil {
			return err
		}
	}

	if tx.Gas == 0 {
		gas, err := c.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    tx.To,
			Value: bigOrNil(tx.Value),
			Data:  tx.Data,
		})
		if err != nil {
			return errors.Wrap(err, "estimating gas")
		}
		tx.Gas = gas
	}

	if sponsor, _ := flags.GetBool("sponsor"); sponsor || tx.FeePayer != nil {
		tx = tx.RequestSponsorship(tx.FeePayer)
	}

	signed, err := txtypes.SignTx(tx, key)
	if err != nil {
		return err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return err
	}

	if sync, _ := flags.GetBool("sync"); sync {
		timeout, _ := flags.GetDuration("sync-timeout")
		receipt, err := c.SendRawTransactionSync(ctx, raw, timeout)
		if err != nil {
			return err
		}
		printReceipt(chain, receipt)
		return nil
	}

	hash, err := c.SendRawTransaction(ctx, raw)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %s\n", "Tx Hash:", strings.ToLower(hash.Hex()))
	if signed.Stage() == txtypes.StagePendingSponsorship {
		fmt.Printf("%-12s sent through the relay for countersignature\n", "Sponsorship:")
	}
	return nil
}

// loadSenderKey resolves the signing key from --dev-sender or the configured
// keystore.
func loadSenderKey(cmd *cobra.Command) (*ecdsa.PrivateKey, error) {
	if devSender, _ := cmd.Flags().GetBool("dev-sender"); devSender {
		key, _, err := devkeys.Sender()
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

func toU256(v *big.Int, what string) (*uint256.Int, error) {
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.Errorf("%s does not fit in 256 bits", what)
	}
	return out, nil
}

func bigOrNil(v *uint256.Int) *big.Int {
	if v == nil {
		return nil
	}
	return v.ToBig()
}
