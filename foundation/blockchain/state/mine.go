package state

import (
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Submit validates and stamps the content and adds it to the end of the
// pool. No deduplication is performed.
func (s *State) Submit(content map[string]any) (database.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.submit(content)
}

// SealPool mines a new block holding every pending transaction and appends
// it to the chain. When the pool is empty there is nothing to seal and the
// returned boolean is false.
func (s *State) SealPool() (database.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sealPool()
}

// SubmitAndSeal adds the content to the pool and seals the pool as one
// operation. No other submission or seal can interleave between the two.
func (s *State) SubmitAndSeal(content map[string]any) (database.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.submit(content); err != nil {
		return database.Block{}, false, err
	}

	return s.sealPool()
}

// =============================================================================

// submit performs the submission and requires the write lock to be held.
func (s *State) submit(content map[string]any) (database.Tx, error) {
	tx, err := database.NewTx(content, time.Now())
	if err != nil {
		return database.Tx{}, err
	}

	n := s.mempool.Add(tx)
	s.evHandler("state: Submit: tx[%s]: pending[%d]", tx, n)

	return tx, nil
}

// sealPool performs the seal and requires the write lock to be held. The
// pool is only cleared once the block is part of the chain, a failure leaves
// the pool as it was.
func (s *State) sealPool() (database.Block, bool, error) {
	if s.mempool.Count() == 0 {
		s.evHandler("state: SealPool: nothing to seal")
		return database.Block{}, false, nil
	}

	latest, _ := s.db.LatestBlock()

	args := database.POWArgs{
		Index:      latest.Index() + 1,
		PrevHash:   latest.Hash(),
		TimeStamp:  now(),
		Trans:      s.mempool.PickAll(),
		Difficulty: s.difficulty,
		EvHandler:  s.evHandler,
	}

	s.evHandler("state: SealPool: MINING: blk[%d]: trans[%d]", args.Index, len(args.Trans))

	block, err := database.POW(args)
	if err != nil {
		return database.Block{}, false, err
	}

	if err := s.db.Write(block); err != nil {
		return database.Block{}, false, err
	}

	s.mempool.Truncate()

	s.evHandler("state: SealPool: SEALED: blk[%d]: hash[%s]", block.Index(), block.Hash())

	return block, true, nil
}
