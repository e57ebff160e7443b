package cmd

import (
	"fmt"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	verifyFile       string
	verifyDifficulty uint
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate an exported chain, or the live chain when no file is given",
	RunE:  verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "Path to an exported chain.")
	verifyCmd.Flags().UintVarP(&verifyDifficulty, "difficulty", "d", database.DefaultDifficulty, "Difficulty the chain was mined at.")
}

func verifyRun(cmd *cobra.Command, args []string) error {
	data, err := readChain(cmd)
	if err != nil {
		return err
	}

	if err := database.ValidateExport(data, verifyDifficulty); err != nil {
		if ve := database.GetValidationError(err); ve != nil {
			pterm.Error.Printfln("block %d failed the %s check", ve.Index, ve.Check)
		}
		return fmt.Errorf("chain is not valid: %w", err)
	}

	pterm.Success.Println("chain is valid")
	return nil
}

// readChain reads the export from the file flag or from the ledger.
func readChain(cmd *cobra.Command) ([]byte, error) {
	if verifyFile != "" {
		data, err := os.ReadFile(verifyFile)
		if err != nil {
			return nil, fmt.Errorf("reading export: %w", err)
		}
		return data, nil
	}

	core, log, err := newCore()
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	data, err := core.Chain(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}

	return data, nil
}
