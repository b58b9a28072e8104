package slots

import "github.com/spf13/cobra"

func NewSlotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Slot scheduling commands",
	}

	cmd.AddCommand(NewGenerateCommand())

	return cmd
}
