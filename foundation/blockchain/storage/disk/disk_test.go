package disk_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestReadWrite(t *testing.T) {
	t.Log("Given the need to store blocks on disk.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen writing a genesis block and a second block.", testID)
		{
			d, err := disk.New(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct disk storage: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to construct disk storage.", success, testID)
			defer d.Close()

			genesis, err := database.POW(database.POWArgs{Index: 0, PrevHash: database.GenesisPrevHash, TimeStamp: 1, Difficulty: 1})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine genesis: %v", failed, testID, err)
			}

			tx, err := database.NewTx(map[string]any{"type": "product_creation", "batch_id": "B1"}, time.UnixMilli(1000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a transaction: %v", failed, testID, err)
			}

			block, err := database.POW(database.POWArgs{Index: 1, PrevHash: genesis.Hash(), TimeStamp: 2, Trans: []database.Tx{tx}, Difficulty: 1})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine block: %v", failed, testID, err)
			}

			for _, b := range []database.Block{genesis, block} {
				if err := d.Write(database.NewBlockData(b)); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, b.Index(), err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould be able to write both blocks.", success, testID)

			if err := d.Write(database.NewBlockData(block)); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to overwrite a block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not be able to overwrite a block.", success, testID)

			var got []database.BlockData
			iter := d.ForEach()
			for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to iterate: %v", failed, testID, err)
				}
				got = append(got, blockData)
			}

			if len(got) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould read back 2 blocks, got %d.", failed, testID, len(got))
			}
			t.Logf("\t%s\tTest %d:\tShould read back 2 blocks.", success, testID)

			if got[1].Hash != block.Hash() || got[1].MerkleRoot != block.MerkleRoot() {
				t.Fatalf("\t%s\tTest %d:\tShould read back the same block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould read back the same block.", success, testID)

			rb, err := database.ToBlock(got[1])
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to convert the block: %v", failed, testID, err)
			}

			if rb.ComputeHash() != block.Hash() {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, rb.ComputeHash())
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, block.Hash())
				t.Fatalf("\t%s\tTest %d:\tShould recompute the same hash after reading.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould recompute the same hash after reading.", success, testID)
		}
	}
}
