package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var attestExpect string

var attestCmd = &cobra.Command{
	Use:   "attest",
	Short: "Fetch a signed attestation and check who signed it",
	RunE:  attestRun,
}

func init() {
	rootCmd.AddCommand(attestCmd)
	attestCmd.Flags().StringVarP(&attestExpect, "expect", "e", "", "Address the attestation must be signed by.")
}

func attestRun(cmd *cobra.Command, args []string) error {
	core, log, err := newCore()
	if err != nil {
		return err
	}
	defer log.Sync()

	data, err := core.Attest(cmd.Context())
	if err != nil {
		return fmt.Errorf("attest: %w", err)
	}

	sa, err := checkAttestation(data, attestExpect)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("attestation signed by %s", sa.Signer)
	table := pterm.TableData{
		{"Length", strconv.Itoa(sa.Attestation.Length)},
		{"Latest Block", sa.Attestation.LatestBlock},
		{"Chain Hash", sa.Attestation.ChainHash},
		{"Timestamp", strconv.FormatUint(sa.Attestation.TimeStamp, 10)},
	}

	return pterm.DefaultTable.WithData(table).Render()
}

// checkAttestation recovers the signer of the attestation and checks it
// against the claimed signer and the expected address when provided.
func checkAttestation(data []byte, expect string) (state.SignedAttestation, error) {
	var sa state.SignedAttestation
	if err := json.Unmarshal(data, &sa); err != nil {
		return state.SignedAttestation{}, fmt.Errorf("decode attestation: %w", err)
	}

	addr, err := signature.FromAddress(sa.Attestation, sa.Signature)
	if err != nil {
		return state.SignedAttestation{}, fmt.Errorf("recover signer: %w", err)
	}

	if addr != sa.Signer {
		return state.SignedAttestation{}, fmt.Errorf("signature is from %s, attestation claims %s", addr, sa.Signer)
	}

	if expect != "" && common.HexToAddress(expect) != common.HexToAddress(addr) {
		return state.SignedAttestation{}, fmt.Errorf("signature is from %s, expected %s", addr, expect)
	}

	return sa, nil
}
