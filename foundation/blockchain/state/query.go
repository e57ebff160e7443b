package state

import (
	"encoding/hex"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Status represents a summary of the ledger at a point in time.
type Status struct {
	Length       int
	IsValid      bool
	PendingCount int
	ChainHash    string
	LatestBlock  string
	Difficulty   uint
}

// TxProof represents the information needed to prove a transaction is
// committed to by a block's merkle root without the rest of the block.
type TxProof struct {
	BlockIndex uint64
	BlockHash  string
	MerkleRoot string
	Leaf       string
	Proof      []string
	Order      []int64
}

// =============================================================================

// Status returns the length of the chain, the validity of the chain and the
// number of pending transactions, all read from the same state.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest, _ := s.db.LatestBlock()

	return Status{
		Length:       s.db.Length(),
		IsValid:      s.db.Validate() == nil,
		PendingCount: s.mempool.Count(),
		ChainHash:    s.db.ChainHash(),
		LatestBlock:  latest.Hash(),
		Difficulty:   s.difficulty,
	}
}

// Validate validates the full chain and returns the first failure found.
func (s *State) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Validate()
}

// Export returns every block in the chain in its serialized form.
func (s *State) Export() []database.BlockData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := s.db.Blocks()

	out := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		out[i] = database.NewBlockData(block)
	}

	return out
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Count()
}

// QueryBlockByHash returns the first block with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.BlockData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, found := s.db.BlockByHash(hash)
	if !found {
		return database.BlockData{}, false
	}

	return database.NewBlockData(block), true
}

// QueryHistory returns the sealed transactions for the specified batch id in
// chain order. Pending transactions are not included.
func (s *State) QueryHistory(batchID string) []database.Tx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.History(batchID)
}

// QueryTxExists reports whether a sealed transaction has the specified
// content hash.
func (s *State) QueryTxExists(contentHash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.TxExists(contentHash)
}

// QueryTxProof returns the merkle proof for the first sealed transaction
// with the specified content hash.
func (s *State) QueryTxProof(contentHash string) (TxProof, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, tx, found := s.db.FindTx(contentHash)
	if !found {
		return TxProof{}, false, nil
	}

	leaf, err := tx.Hash()
	if err != nil {
		return TxProof{}, false, fmt.Errorf("leaf hash: %w", err)
	}

	proof, order, err := block.Proof(tx)
	if err != nil {
		return TxProof{}, false, fmt.Errorf("merkle proof: %w", err)
	}

	hexProof := make([]string, len(proof))
	for i, p := range proof {
		hexProof[i] = hex.EncodeToString(p)
	}

	txp := TxProof{
		BlockIndex: block.Index(),
		BlockHash:  block.Hash(),
		MerkleRoot: block.MerkleRoot(),
		Leaf:       hex.EncodeToString(leaf),
		Proof:      hexProof,
		Order:      order,
	}

	return txp, true, nil
}
