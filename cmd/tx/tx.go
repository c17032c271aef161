package tx

import (
	"github.com/spf13/cobra"

	"github/chapool/go-chapay/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("tx",
		newDecode(),
		newSend(),
		newSponsor(),
		newStatus(),
	)
}
