// Package mempool maintains the pool of transactions waiting to be sealed
// into the next block.
package mempool

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Mempool represents the ordered set of admitted transactions that have not
// been sealed. Transactions are kept in admission order and no
// deduplication is performed. A Mempool is not safe for concurrent use, the
// state package serializes access to it.
type Mempool struct {
	pool []database.Tx
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	return len(mp.pool)
}

// Add appends a transaction to the end of the pool and returns the new size
// of the pool.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.pool = append(mp.pool, tx)
	return len(mp.pool)
}

// PickAll returns a copy of every transaction in the pool in admission
// order. This is the snapshot that gets sealed into the next block.
func (mp *Mempool) PickAll() []database.Tx {
	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

// Truncate replaces the pool with an empty one.
func (mp *Mempool) Truncate() {
	mp.pool = nil
}
