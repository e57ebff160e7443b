package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full chain to a file for offline verification",
	RunE:  exportRun,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Path to write the chain to, stdout if empty.")
}

func exportRun(cmd *cobra.Command, args []string) error {
	core, log, err := newCore()
	if err != nil {
		return err
	}
	defer log.Sync()

	data, err := core.Chain(cmd.Context())
	if err != nil {
		return fmt.Errorf("chain: %w", err)
	}

	if exportOut == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}

	if err := os.MkdirAll(filepath.Dir(exportOut), 0755); err != nil {
		return err
	}

	if err := os.WriteFile(exportOut, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	pterm.Success.Printfln("chain written to %s", exportOut)
	return nil
}
