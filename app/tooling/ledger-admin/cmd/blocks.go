package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/leveldb"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	blocksStorage    string
	blocksPath       string
	blocksDifficulty uint
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Load and validate a stopped ledger's storage and print its blocks",
	RunE:  blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().StringVarP(&blocksStorage, "storage", "s", "disk", "Storage kind, disk or leveldb.")
	blocksCmd.Flags().StringVarP(&blocksPath, "path", "p", "zblock/ledger", "Path to the storage.")
	blocksCmd.Flags().UintVarP(&blocksDifficulty, "difficulty", "d", database.DefaultDifficulty, "Difficulty the chain was mined at.")
}

func blocksRun(cmd *cobra.Command, args []string) error {
	blocks, err := loadBlocks(blocksStorage, blocksPath, blocksDifficulty)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Index", "Sealed", "Txs", "Nonce", "Hash"}}
	for _, b := range blocks {
		ts := time.UnixMilli(int64(b.TimeStamp())).UTC().Format(time.RFC3339)
		data = append(data, []string{
			strconv.FormatUint(b.Index(), 10),
			ts,
			strconv.Itoa(b.TxCount()),
			strconv.FormatUint(b.Nonce(), 10),
			b.Hash(),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	pterm.Success.Printfln("%d blocks loaded and validated", len(blocks))
	return nil
}

// loadBlocks opens the storage and loads the chain held in it. Loading
// fails if the chain doesn't validate.
func loadBlocks(kind string, path string, difficulty uint) ([]database.Block, error) {
	var storage database.Storage
	switch kind {
	case "disk":
		d, err := disk.New(path)
		if err != nil {
			return nil, err
		}
		storage = d

	case "leveldb":
		l, err := leveldb.New(path)
		if err != nil {
			return nil, err
		}
		storage = l

	default:
		return nil, fmt.Errorf("unknown storage %q", kind)
	}

	db, err := database.New(difficulty, storage, nil)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("loading chain: %w", err)
	}
	defer db.Close()

	return db.Blocks(), nil
}
