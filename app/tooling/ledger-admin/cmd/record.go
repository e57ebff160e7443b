package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	recordType    string
	recordBatchID string
	recordData    string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Submit a transaction and wait for it to be sealed",
	RunE:  recordRun,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordType, "type", "t", database.TypeProductCreation, "Type of the transaction.")
	recordCmd.Flags().StringVarP(&recordBatchID, "batch", "b", "", "Batch id the transaction belongs to.")
	recordCmd.Flags().StringVarP(&recordData, "data", "d", "{}", "JSON object with the rest of the transaction.")
}

func recordRun(cmd *cobra.Command, args []string) error {
	if recordBatchID == "" {
		return errors.New("a batch id is required")
	}

	content, err := database.ParseContent([]byte(recordData))
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	content[database.FieldType] = recordType
	content[database.FieldBatchID] = recordBatchID

	core, log, err := newCore()
	if err != nil {
		return err
	}
	defer log.Sync()

	sr, err := core.Submit(cmd.Context(), content)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	pterm.Success.Println(sr.Message)
	data := pterm.TableData{
		{"Block Hash", sr.BlockHash},
		{"Transactions", strconv.Itoa(sr.TransactionCount)},
	}

	return pterm.DefaultTable.WithData(data).Render()
}
