package database_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
)

const difficulty = 2

// newChain constructs a database holding a genesis block and one block per
// set of transactions.
func newChain(t *testing.T, sets ...[]database.Tx) *database.Database {
	t.Helper()

	db, err := database.New(difficulty, memory.New(), nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the database: %v", failed, err)
	}

	genesis, err := database.POW(database.POWArgs{Index: 0, PrevHash: database.GenesisPrevHash, TimeStamp: 1, Difficulty: difficulty})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine genesis: %v", failed, err)
	}

	if err := db.Write(genesis); err != nil {
		t.Fatalf("\t%s\tShould be able to write genesis: %v", failed, err)
	}

	for i, trans := range sets {
		latest, _ := db.LatestBlock()

		args := database.POWArgs{
			Index:      latest.Index() + 1,
			PrevHash:   latest.Hash(),
			TimeStamp:  uint64(i + 2),
			Trans:      trans,
			Difficulty: difficulty,
		}

		block, err := database.POW(args)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, args.Index, err)
		}

		if err := db.Write(block); err != nil {
			t.Fatalf("\t%s\tShould be able to write block %d: %v", failed, args.Index, err)
		}
	}

	return db
}

func TestQueries(t *testing.T) {
	t.Log("Given the need to query the chain.")
	{
		create := newTx(t, "product_creation", "B1", 1)
		ship := newTx(t, "status_update", "B1", 2)
		other := newTx(t, "product_creation", "B2", 3)
		stock := newTx(t, "inventory_update", "B1", 4)

		db := newChain(t, []database.Tx{create, ship, other}, []database.Tx{stock})

		testID := 0
		t.Logf("\tTest %d:\tWhen asking for the history of a batch.", testID)
		{
			history := db.History("B1")
			if len(history) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould get 3 transactions, got %d.", failed, testID, len(history))
			}
			t.Logf("\t%s\tTest %d:\tShould get 3 transactions.", success, testID)

			for i, exp := range []database.Tx{create, ship, stock} {
				if !history[i].Equals(exp) {
					t.Fatalf("\t%s\tTest %d:\tShould get transaction %d in chain order.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get the transactions in chain order.", success, testID)

			if len(db.History("B3")) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould get no history for an unknown batch.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get no history for an unknown batch.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen checking transaction existence.", testID)
		{
			if !db.TxExists(stock.ContentHash()) {
				t.Fatalf("\t%s\tTest %d:\tShould find a sealed transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould find a sealed transaction.", success, testID)

			if db.TxExists(strings.Repeat("f", 64)) {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown hash.", success, testID)

			block, tx, found := db.FindTx(other.ContentHash())
			if !found || block.Index() != 1 || tx.BatchID() != "B2" {
				t.Fatalf("\t%s\tTest %d:\tShould locate the block holding the transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould locate the block holding the transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen looking up blocks.", testID)
		{
			if db.Length() != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould have 3 blocks, got %d.", failed, testID, db.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould have 3 blocks.", success, testID)

			latest, _ := db.LatestBlock()
			block, found := db.BlockByHash(latest.Hash())
			if !found || block.Index() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould find the latest block by hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould find the latest block by hash.", success, testID)

			if _, found := db.BlockByHash("nope"); found {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown block.", success, testID)

			if err := db.Validate(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}
	}
}

func TestWrite(t *testing.T) {
	t.Log("Given the need to only append blocks that extend the chain.")
	{
		db := newChain(t)
		genesis, _ := db.LatestBlock()

		testID := 0
		t.Logf("\tTest %d:\tWhen a block doesn't link to the latest block.", testID)
		{
			block, err := database.POW(database.POWArgs{Index: 1, PrevHash: strings.Repeat("0", 64), TimeStamp: 2, Difficulty: difficulty})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}

			if err := db.Write(block); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to write the block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not be able to write the block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a block skips an index.", testID)
		{
			block, err := database.POW(database.POWArgs{Index: 2, PrevHash: genesis.Hash(), TimeStamp: 2, Difficulty: difficulty})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}

			if err := db.Write(block); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to write the block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not be able to write the block.", success, testID)

			if db.Length() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain unchanged.", success, testID)
		}
	}
}

func TestReload(t *testing.T) {
	t.Log("Given the need to load a chain from storage.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the storage holds a valid chain.", testID)
		{
			store := memory.New()

			db, err := database.New(difficulty, store, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the database: %v", failed, testID, err)
			}

			genesis, _ := database.POW(database.POWArgs{Index: 0, PrevHash: database.GenesisPrevHash, TimeStamp: 1, Difficulty: difficulty})
			if err := db.Write(genesis); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write genesis: %v", failed, testID, err)
			}

			block, _ := database.POW(database.POWArgs{Index: 1, PrevHash: genesis.Hash(), TimeStamp: 2, Trans: []database.Tx{newTx(t, "product_creation", "B1", 1)}, Difficulty: difficulty})
			if err := db.Write(block); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the block: %v", failed, testID, err)
			}

			db2, err := database.New(difficulty, store, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reload the database: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to reload the database.", success, testID)

			if db2.Length() != 2 || db2.ChainHash() != db.ChainHash() || len(db2.History("B1")) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould rebuild the same chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould rebuild the same chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the storage holds a tampered block.", testID)
		{
			db := newChain(t, []database.Tx{newTx(t, "product_creation", "B1", 1)})

			store := memory.New()
			for _, block := range db.Blocks() {
				bd := database.NewBlockData(block)
				if bd.Index == 1 {
					bd.Nonce++
				}
				if err := store.Write(bd); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, bd.Index, err)
				}
			}

			if _, err := database.New(difficulty, store, nil); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to load the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not be able to load the chain.", success, testID)
		}
	}
}

func TestValidateExport(t *testing.T) {
	t.Log("Given the need to verify an exported chain.")
	{
		db := newChain(t,
			[]database.Tx{newTx(t, "product_creation", "B1", 1), newTx(t, "status_update", "B1", 2)},
			[]database.Tx{newTx(t, "inventory_update", "B1", 3)},
		)

		blocks := db.Blocks()
		export := make([]database.BlockData, len(blocks))
		for i, block := range blocks {
			export[i] = database.NewBlockData(block)
		}

		data, err := json.Marshal(export)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode the export: %v", failed, err)
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen the export is unchanged.", testID)
		{
			if err := database.ValidateExport(data, difficulty); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould validate the export: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the export.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a transaction in the export is changed.", testID)
		{
			tampered := strings.Replace(string(data), `"inventory_update"`, `"recall"`, 1)

			err := database.ValidateExport([]byte(tampered), difficulty)
			ve := database.GetValidationError(err)
			if ve == nil || ve.Index != 2 || ve.Check != database.CheckHash {
				t.Fatalf("\t%s\tTest %d:\tShould fail the hash check on block 2: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail the hash check on block 2.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the export holds only genesis.", testID)
		{
			data, _ := json.Marshal(export[:1])
			if err := database.ValidateExport(data, difficulty); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould validate the export: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the export.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the export is empty.", testID)
		{
			if err := database.ValidateExport([]byte(`[]`), difficulty); err != database.ErrNoGenesis {
				t.Fatalf("\t%s\tTest %d:\tShould report no genesis: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report no genesis.", success, testID)
		}
	}
}
