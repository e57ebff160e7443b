package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var existsCmd = &cobra.Command{
	Use:   "exists <hash>",
	Short: "Check if a transaction with the content hash is sealed",
	Args:  cobra.ExactArgs(1),
	RunE:  existsRun,
}

func init() {
	rootCmd.AddCommand(existsCmd)
}

func existsRun(cmd *cobra.Command, args []string) error {
	core, log, err := newCore()
	if err != nil {
		return err
	}
	defer log.Sync()

	exists, err := core.Verify(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if !exists {
		return fmt.Errorf("transaction %s is not sealed", args[0])
	}

	pterm.Success.Printfln("transaction %s is sealed", args[0])
	return nil
}
