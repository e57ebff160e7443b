// Package leveldb implements the ability to read and write blocks to a
// LevelDB key/value store.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Set of keys used to organize the blocks in the store.
const (
	blockIndexKeyPrefix = "blockindex_"
	blockHashKeyPrefix  = "blockhash_"
	blockHeightKey      = "height"
)

// LevelDB represents the serialization implementation for reading and
// storing blocks in a LevelDB store. This implements the database.Storage
// interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the LevelDB store at the specified path.
func New(dbPath string) (*LevelDB, error) {
	options := opt.Options{
		BlockCacheCapacity:  8 * opt.MiB,
		WriteBuffer:         4 * opt.MiB,
		CompactionTableSize: 2 * opt.MiB,
	}

	db, err := leveldb.OpenFile(dbPath, &options)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}

	return &LevelDB{db: db}, nil
}

// Close closes the store.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the block by index and by hash and moves the height forward
// in a single batch. Only the next block in sequence can be written.
func (l *LevelDB) Write(blockData database.BlockData) error {
	height, err := l.Height()
	if err != nil {
		return err
	}

	if blockData.Index != height {
		return fmt.Errorf("block index %d is not the next block %d", blockData.Index, height)
	}

	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(indexKey(blockData.Index), data)
	batch.Put([]byte(blockHashKeyPrefix+blockData.Hash), []byte(strconv.FormatUint(blockData.Index, 10)))
	batch.Put([]byte(blockHeightKey), []byte(strconv.FormatUint(blockData.Index+1, 10)))

	if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("writing block %d: %w", blockData.Index, err)
	}

	return nil
}

// GetBlock returns the block stored for the specified number.
func (l *LevelDB) GetBlock(num uint64) (database.BlockData, error) {
	data, err := l.db.Get(indexKey(num), nil)
	if err != nil {
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decoding block %d: %w", num, err)
	}

	return blockData, nil
}

// GetBlockByHash returns the block stored for the specified hash.
func (l *LevelDB) GetBlockByHash(hash string) (database.BlockData, error) {
	data, err := l.db.Get([]byte(blockHashKeyPrefix+hash), nil)
	if err != nil {
		return database.BlockData{}, err
	}

	num, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return database.BlockData{}, fmt.Errorf("parsing block number for %s: %w", hash, err)
	}

	return l.GetBlock(num)
}

// Height returns the number of blocks in the store.
func (l *LevelDB) Height() (uint64, error) {
	data, err := l.db.Get([]byte(blockHeightKey), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading height: %w", err)
	}

	height, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing height: %w", err)
	}

	return height, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (l *LevelDB) ForEach() database.Iterator {
	return &levelDBIterator{store: l}
}

// indexKey forms the key for the specified block number.
func indexKey(num uint64) []byte {
	return []byte(blockIndexKeyPrefix + strconv.FormatUint(num, 10))
}

// =============================================================================

// levelDBIterator walks the blocks by number until a block isn't found.
// This implements the database Iterator interface.
type levelDBIterator struct {
	store   *LevelDB
	current uint64
	eoc     bool
}

// Next retrieves the next block from the store.
func (li *levelDBIterator) Next() (database.BlockData, error) {
	if li.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := li.store.GetBlock(li.current)
	if errors.Is(err, leveldb.ErrNotFound) {
		li.eoc = true
	}

	li.current++

	return blockData, err
}

// Done returns the end of chain value.
func (li *levelDBIterator) Done() bool {
	return li.eoc
}
