// Package database handles the lower level support for maintaining the
// chain of sealed blocks, the indexes used to query it, and the storage
// used to keep a copy of it.
package database

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// ErrChainInvalid is returned when blocks read from storage don't form a
// valid chain.
var ErrChainInvalid = errors.New("stored chain is invalid")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// txRef locates a transaction inside the chain.
type txRef struct {
	block int
	tx    int
}

// Database manages the chain of sealed blocks. It is not safe for concurrent
// use, the state package serializes access to it.
type Database struct {
	difficulty uint
	evHandler  func(v string, args ...any)
	storage    Storage

	blocks    []Block
	chainHash string

	byBlockHash map[string]int
	byBatch     map[string][]txRef
	byTxHash    map[string]txRef
}

// New constructs a database and loads any blocks held in storage. The loaded
// blocks must form a valid chain. When storage is empty, the database is
// empty and the caller is expected to write a genesis block.
func New(difficulty uint, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	db := Database{
		difficulty:  difficulty,
		evHandler:   evHandler,
		storage:     storage,
		byBlockHash: make(map[string]int),
		byBatch:     make(map[string][]txRef),
		byTxHash:    make(map[string]txRef),
	}

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w", len(db.blocks), err)
		}

		if blockData.Index != uint64(len(db.blocks)) {
			return nil, fmt.Errorf("%w: block out of order, got %d, exp %d", ErrChainInvalid, blockData.Index, len(db.blocks))
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		db.append(block)
	}

	if len(db.blocks) > 0 {
		evHandler("database: New: loaded blocks[%d] from storage", len(db.blocks))

		if err := ValidateChain(db.blocks, difficulty, evHandler); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrChainInvalid, err)
		}
	}

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Difficulty returns the difficulty blocks are validated against.
func (db *Database) Difficulty() uint {
	return db.difficulty
}

// Write adds a new sealed block to the end of the chain. The block is written
// to storage first and only becomes part of the chain if that succeeds.
func (db *Database) Write(block Block) error {
	switch l := len(db.blocks); {
	case l == 0:
		if block.index != 0 {
			return fmt.Errorf("first block must be genesis, got index %d", block.index)
		}

	default:
		latest := db.blocks[l-1]
		if block.index != latest.index+1 {
			return fmt.Errorf("block is not the next index, got %d, exp %d", block.index, latest.index+1)
		}
		if block.prevHash != latest.hash {
			return fmt.Errorf("block does not link to latest block, got %s, exp %s", block.prevHash, latest.hash)
		}
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("storage write: %w", err)
	}

	db.append(block)

	return nil
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	return len(db.blocks)
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() (Block, bool) {
	if len(db.blocks) == 0 {
		return Block{}, false
	}

	return db.blocks[len(db.blocks)-1], true
}

// Blocks returns a copy of the chain.
func (db *Database) Blocks() []Block {
	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)

	return blocks
}

// ChainHash returns the hash over the ordered list of block hashes.
func (db *Database) ChainHash() string {
	return db.chainHash
}

// BlockByHash returns the first block with the specified hash.
func (db *Database) BlockByHash(hash string) (Block, bool) {
	i, exists := db.byBlockHash[hash]
	if !exists {
		return Block{}, false
	}

	return db.blocks[i], true
}

// History returns the sealed transactions for the specified batch id in
// chain order, then insertion order within a block.
func (db *Database) History(batchID string) []Tx {
	refs := db.byBatch[batchID]

	trans := make([]Tx, 0, len(refs))
	for _, ref := range refs {
		trans = append(trans, db.blocks[ref.block].tx(ref.tx))
	}

	return trans
}

// TxExists reports whether a sealed transaction has the specified content hash.
func (db *Database) TxExists(contentHash string) bool {
	_, exists := db.byTxHash[contentHash]
	return exists
}

// FindTx returns the first sealed transaction with the specified content hash
// and the block that holds it.
func (db *Database) FindTx(contentHash string) (Block, Tx, bool) {
	ref, exists := db.byTxHash[contentHash]
	if !exists {
		return Block{}, Tx{}, false
	}

	block := db.blocks[ref.block]
	return block, block.tx(ref.tx), true
}

// Validate validates the full chain and returns the first failure found.
// No events are raised since this is called for every status request.
func (db *Database) Validate() error {
	return ValidateChain(db.blocks, db.difficulty, nil)
}

// =============================================================================

// append adds the block to the in memory chain and updates the indexes.
func (db *Database) append(block Block) {
	pos := len(db.blocks)
	db.blocks = append(db.blocks, block)

	if _, exists := db.byBlockHash[block.hash]; !exists {
		db.byBlockHash[block.hash] = pos
	}

	for i, tx := range block.Transactions() {
		ref := txRef{block: pos, tx: i}

		batchID := tx.BatchID()
		db.byBatch[batchID] = append(db.byBatch[batchID], ref)

		if _, exists := db.byTxHash[tx.ContentHash()]; !exists {
			db.byTxHash[tx.ContentHash()] = ref
		}
	}

	hashes := make([]string, len(db.blocks))
	for i, b := range db.blocks {
		hashes[i] = b.hash
	}
	db.chainHash = signature.Hash(hashes)
}
