package database

import (
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// buildChain mines a genesis block and two blocks holding one transaction
// each at the specified difficulty.
func buildChain(t *testing.T, difficulty uint) []Block {
	t.Helper()

	genesis, err := POW(POWArgs{Index: 0, PrevHash: GenesisPrevHash, TimeStamp: 1, Difficulty: difficulty})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine genesis: %v", failed, err)
	}

	blocks := []Block{genesis}
	for i, batchID := range []string{"B1", "B2"} {
		tx, err := NewTx(map[string]any{"type": TypeProductCreation, "batch_id": batchID}, time.UnixMilli(int64(i)))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a transaction: %v", failed, err)
		}

		block, err := POW(POWArgs{Index: uint64(i + 1), PrevHash: blocks[i].hash, TimeStamp: uint64(i + 2), Trans: []Tx{tx}, Difficulty: difficulty})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine block: %v", failed, err)
		}

		blocks = append(blocks, block)
	}

	return blocks
}

func TestValidateChain(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
		tamper     func(t *testing.T, blocks []Block)
		index      uint64
		check      string
	}

	tt := []table{
		{
			name:       "previous hash byte",
			difficulty: 1,
			tamper: func(t *testing.T, blocks []Block) {
				b := []byte(blocks[1].prevHash)
				b[0] ^= 0x01
				blocks[1].prevHash = string(b)
			},
			index: 1,
			check: CheckHash,
		},
		{
			name:       "content",
			difficulty: 1,
			tamper: func(t *testing.T, blocks []Block) {
				blocks[2].timeStamp++
			},
			index: 2,
			check: CheckHash,
		},
		{
			name:       "linkage",
			difficulty: 0,
			tamper: func(t *testing.T, blocks []Block) {
				blocks[1].prevHash = "abc"
				blocks[1].hash = blocks[1].ComputeHash()
			},
			index: 1,
			check: CheckLinkage,
		},
		{
			name:       "rootless",
			difficulty: 0,
			tamper: func(t *testing.T, blocks []Block) {
				blocks[2].merkleRoot = "abc"
				blocks[2].hash = blocks[2].ComputeHash()
			},
			index: 2,
			check: CheckMerkleRoot,
		},
		{
			name:       "swapped",
			difficulty: 0,
			tamper: func(t *testing.T, blocks []Block) {
				tree, err := merkle.NewTree(blocks[2].Transactions())
				if err != nil {
					t.Fatalf("\t%s\tShould be able to build a tree: %v", failed, err)
				}
				blocks[1].trans = tree
				blocks[1].hash = blocks[1].ComputeHash()
				blocks[2].prevHash = blocks[1].hash
				blocks[2].hash = blocks[2].ComputeHash()
			},
			index: 1,
			check: CheckMerkleRoot,
		},
	}

	t.Log("Given the need to detect a changed chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the %s of a block is changed.", testID, tst.name)
			{
				f := func(t *testing.T) {
					blocks := buildChain(t, tst.difficulty)

					if err := ValidateChain(blocks, tst.difficulty, nil); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould validate before the change: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould validate before the change.", success, testID)

					tst.tamper(t, blocks)

					ve := GetValidationError(ValidateChain(blocks, tst.difficulty, nil))
					if ve == nil {
						t.Fatalf("\t%s\tTest %d:\tShould fail validation after the change.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail validation after the change.", success, testID)

					if ve.Index != tst.index || ve.Check != tst.check {
						t.Logf("\t%s\tTest %d:\tgot: %d %s", failed, testID, ve.Index, ve.Check)
						t.Logf("\t%s\tTest %d:\texp: %d %s", failed, testID, tst.index, tst.check)
						t.Fatalf("\t%s\tTest %d:\tShould report the first failing check.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould report the first failing check.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestValidateDifficulty(t *testing.T) {
	t.Log("Given the need to reject blocks that were not mined.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the blocks don't meet the difficulty.", testID)
		{
			blocks := buildChain(t, 0)

			ve := GetValidationError(ValidateChain(blocks, MaxDifficulty, nil))
			if ve == nil || ve.Index != 1 || ve.Check != CheckDifficulty {
				t.Fatalf("\t%s\tTest %d:\tShould fail the difficulty check on block 1: %v", failed, testID, ve)
			}
			t.Logf("\t%s\tTest %d:\tShould fail the difficulty check on block 1.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen genesis was never mined.", testID)
		{
			blocks := buildChain(t, 1)
			blocks[0].hash = "unmined"

			bb, err := NewBlockBuilder(1, blocks[1].Transactions(), blocks[1].timeStamp, "unmined")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct a builder: %v", failed, testID, err)
			}

			if blocks[1], err = Mine(bb, 1, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine block 1: %v", failed, testID, err)
			}

			bb, _ = NewBlockBuilder(2, blocks[2].Transactions(), blocks[2].timeStamp, blocks[1].hash)
			if blocks[2], err = Mine(bb, 1, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine block 2: %v", failed, testID, err)
			}

			if err := ValidateChain(blocks, 1, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould not validate genesis: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not validate genesis.", success, testID)
		}
	}
}
