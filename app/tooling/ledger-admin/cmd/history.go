package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <batch_id>",
	Short: "Print the sealed transactions recorded for a batch",
	Args:  cobra.ExactArgs(1),
	RunE:  historyRun,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func historyRun(cmd *cobra.Command, args []string) error {
	core, log, err := newCore()
	if err != nil {
		return err
	}
	defer log.Sync()

	trans, err := core.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if len(trans) == 0 {
		pterm.Info.Printfln("no transactions recorded for batch %q", args[0])
		return nil
	}

	data := pterm.TableData{{"#", "Recorded", "Type", "Hash"}}
	for i, tx := range trans {
		ts := time.UnixMilli(int64(tx.TimeStamp())).UTC().Format(time.RFC3339)
		data = append(data, []string{strconv.Itoa(i), ts, tx.Type(), tx.ContentHash()})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
