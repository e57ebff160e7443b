package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the ledger",
	RunE:  statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(cmd *cobra.Command, args []string) error {
	core, log, err := newCore()
	if err != nil {
		return err
	}
	defer log.Sync()

	status, err := core.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	valid := pterm.LightGreen("yes")
	if !status.IsValid {
		valid = pterm.LightRed("no")
	}

	data := pterm.TableData{
		{"Length", strconv.Itoa(status.Length)},
		{"Valid", valid},
		{"Pending", strconv.Itoa(status.PendingCount)},
		{"Difficulty", strconv.FormatUint(uint64(status.Difficulty), 10)},
		{"Latest Block", status.LatestBlock},
		{"Chain Hash", status.ChainHash},
	}

	return pterm.DefaultTable.WithBoxed().WithData(data).Render()
}
