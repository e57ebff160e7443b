// Package cmd contains the ledger admin commands.
package cmd

import (
	"os"
	"time"

	"github.com/ardanlabs/ledger/business/core/audit"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ledgerURL string
	timeout   time.Duration
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "ledger-admin",
	Short:         "Administer and audit a supply chain ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ledgerURL, "url", "u", "http://localhost:5000", "Url of the ledger.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Time allowed for a ledger call, mining included.")
}

// newCore constructs the ledger client. Logs go to stderr so command output
// can be redirected.
func newCore() (*audit.Core, *zap.SugaredLogger, error) {
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		return nil, nil, err
	}

	return audit.NewCore(log, ledgerURL, timeout), log, nil
}
