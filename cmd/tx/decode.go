package tx

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/txtypes"
)

func newDecode() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decodes a serialized fee token transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			out, err := runDecode(args[0])
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to decode transaction")
			}
			fmt.Print(out)
		},
	}
}

func runDecode(rawHex string) (string, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(rawHex))
	if err != nil {
		return "", err
	}

	tx := new(txtypes.FeeTokenTx)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return "", err
	}

	return formatTx(tx), nil
}

func formatTx(tx *txtypes.FeeTokenTx) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-12s 0x%02x (fee token)\n", "Type:", txtypes.FeeTokenTxType)
	fmt.Fprintf(&b, "%-12s %s\n", "Stage:", tx.Stage())
	fmt.Fprintf(&b, "%-12s %s\n", "Chain ID:", u256(tx.ChainID))
	fmt.Fprintf(&b, "%-12s %d\n", "Nonce:", tx.Nonce)
	fmt.Fprintf(&b, "%-12s %s wei\n", "Tip Cap:", u256(tx.GasTipCap))
	fmt.Fprintf(&b, "%-12s %s wei\n", "Fee Cap:", u256(tx.GasFeeCap))
	fmt.Fprintf(&b, "%-12s %d\n", "Gas Limit:", tx.Gas)
	if tx.To != nil {
		fmt.Fprintf(&b, "%-12s %s\n", "To:", strings.ToLower(tx.To.Hex()))
	} else {
		fmt.Fprintf(&b, "%-12s contract creation\n", "To:")
	}
	fmt.Fprintf(&b, "%-12s %s wei\n", "Value:", u256(tx.Value))
	fmt.Fprintf(&b, "%-12s %d bytes\n", "Data:", len(tx.Data))
	fmt.Fprintf(&b, "%-12s %d entries\n", "Access List:", len(tx.AccessList))
	fmt.Fprintf(&b, "%-12s %d entries\n", "Auth List:", len(tx.AuthList))
	if tx.FeeToken != nil {
		fmt.Fprintf(&b, "%-12s %s\n", "Fee Token:", strings.ToLower(tx.FeeToken.Hex()))
	} else {
		fmt.Fprintf(&b, "%-12s native\n", "Fee Token:")
	}

	if tx.SenderSigned() {
		if sender, err := txtypes.Sender(tx); err == nil {
			fmt.Fprintf(&b, "%-12s %s\n", "Sender:", strings.ToLower(sender.Hex()))
		} else {
			fmt.Fprintf(&b, "%-12s invalid signature\n", "Sender:")
		}
	}

	switch {
	case tx.FeePayerSig.Signed():
		if payer, err := txtypes.FeePayerAddress(tx); err == nil {
			fmt.Fprintf(&b, "%-12s %s\n", "Sponsor:", strings.ToLower(payer.Hex()))
		} else {
			fmt.Fprintf(&b, "%-12s invalid countersignature\n", "Sponsor:")
		}
	case tx.FeePayerSig.Pending():
		fmt.Fprintf(&b, "%-12s pending countersignature\n", "Sponsor:")
	default:
		fmt.Fprintf(&b, "%-12s none\n", "Sponsor:")
	}

	if tx.SenderSigned() {
		if hash, err := tx.Hash(); err == nil {
			fmt.Fprintf(&b, "%-12s %s\n", "Tx Hash:", strings.ToLower(hash.Hex()))
		}
	}

	return b.String()
}

func u256(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
