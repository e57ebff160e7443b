package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var genkeyOut string

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate a node key for signing attestations",
	RunE:  genkeyRun,
}

func init() {
	rootCmd.AddCommand(genkeyCmd)
	genkeyCmd.Flags().StringVarP(&genkeyOut, "out", "o", "zblock/node.ecdsa", "Path to write the key to.")
}

func genkeyRun(cmd *cobra.Command, args []string) error {
	addr, err := generateKey(genkeyOut)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("key written to %s for address %s", genkeyOut, addr)
	return nil
}

// generateKey writes a new key to the path and returns its address. An
// existing key is never replaced.
func generateKey(path string) (string, error) {
	switch _, err := os.Stat(path); {
	case err == nil:
		return "", fmt.Errorf("key %s already exists", path)
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return "", err
	}

	return signature.Address(privateKey), nil
}
