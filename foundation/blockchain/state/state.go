// Package state is the core API for the ledger and implements all the
// business rules and processing. It serializes every mutation of the
// chain and the pool and gives readers a consistent view of both.
package state

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Difficulty uint
	Storage    database.Storage
	SignerKey  *ecdsa.PrivateKey
	EvHandler  EventHandler
}

// State manages the chain of blocks and the pool of pending transactions.
type State struct {
	mu sync.RWMutex

	difficulty uint
	signerKey  *ecdsa.PrivateKey
	evHandler  EventHandler

	db      *database.Database
	mempool *mempool.Mempool
}

// New constructs the ledger. Blocks held in storage are loaded and
// validated. When storage is empty, a genesis block is mined and written so
// the chain is never empty.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if cfg.Difficulty > database.MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d is greater than the max of %d", cfg.Difficulty, database.MaxDifficulty)
	}

	// Load all existing blocks from storage into memory. The chain must
	// validate or the ledger can't be trusted.
	db, err := database.New(cfg.Difficulty, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		difficulty: cfg.Difficulty,
		signerKey:  cfg.SignerKey,
		evHandler:  ev,
		db:         db,
		mempool:    mempool.New(),
	}

	if db.Length() == 0 {
		if err := state.writeGenesis(); err != nil {
			return nil, err
		}
	}

	return &state, nil
}

// Shutdown cleanly brings the ledger down. It waits for any seal in
// progress to complete.
func (s *State) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: Shutdown: closing storage")

	return s.db.Close()
}

// Difficulty returns the difficulty blocks are mined at.
func (s *State) Difficulty() uint {
	return s.difficulty
}

// =============================================================================

// writeGenesis mines the genesis block and writes it to the chain.
func (s *State) writeGenesis() error {
	s.evHandler("state: writeGenesis: mining genesis block")

	args := database.POWArgs{
		Index:      0,
		PrevHash:   database.GenesisPrevHash,
		TimeStamp:  now(),
		Difficulty: s.difficulty,
		EvHandler:  s.evHandler,
	}

	block, err := database.POW(args)
	if err != nil {
		return fmt.Errorf("mining genesis: %w", err)
	}

	if err := s.db.Write(block); err != nil {
		return fmt.Errorf("writing genesis: %w", err)
	}

	return nil
}

// now returns the current time in unix milliseconds.
func now() uint64 {
	return uint64(time.Now().UTC().UnixMilli())
}
