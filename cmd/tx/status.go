package tx

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/chains"
	"github/chapool/go-chapay/events"
	"github/chapool/go-chapay/internal/cli"
)

func newStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status <hash>",
		Short: "Shows the receipt of a mined transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runStatus(cmd, args[0]); err != nil {
				log.Fatal().Err(err).Msg("Failed to fetch transaction status")
			}
		},
	}
}

func runStatus(cmd *cobra.Command, hash string) error {
	ctx := cmd.Context()

	c, chain, err := cli.Dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	receipt, err := c.TransactionReceipt(ctx, common.HexToHash(strings.TrimSpace(hash)))
	if err != nil {
		return err
	}

	printReceipt(chain, receipt)
	return nil
}

func printReceipt(chain chains.Chain, receipt *types.Receipt) {
	status := "failed"
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = "success"
	}

	fmt.Printf("%-12s %s\n", "Tx Hash:", strings.ToLower(receipt.TxHash.Hex()))
	fmt.Printf("%-12s %s (%d)\n", "Chain:", chain.Name, chain.ID)
	fmt.Printf("%-12s %s\n", "Status:", status)
	fmt.Printf("%-12s %s\n", "Block:", receipt.BlockNumber.String())
	fmt.Printf("%-12s %d\n", "Gas Used:", receipt.GasUsed)
	if receipt.EffectiveGasPrice != nil {
		fmt.Printf("%-12s %s wei\n", "Gas Price:", receipt.EffectiveGasPrice.String())
	}
	if receipt.ContractAddress != (common.Address{}) {
		fmt.Printf("%-12s %s\n", "Contract:", strings.ToLower(receipt.ContractAddress.Hex()))
	}

	found := false
	for _, lg := range receipt.Logs {
		transfer, err := events.ParseTransfer(*lg)
		if err != nil {
			continue
		}
		if !found {
			fmt.Println()
			fmt.Println("Token transfers:")
			found = true
		}
		fmt.Printf("  %s: %s -> %s, %s\n",
			strings.ToLower(transfer.Token.Hex()),
			strings.ToLower(transfer.From.Hex()),
			strings.ToLower(transfer.To.Hex()),
			transfer.Value.String())
	}
	if !found {
		fmt.Println()
		fmt.Println("No ERC20 transfer events")
	}
}
