package database

import (
	"fmt"
	"strings"
)

// DefaultDifficulty is the number of leading zero hex digits a block hash
// needs when no difficulty is configured.
const DefaultDifficulty = 4

// MaxDifficulty is the number of hex digits in a hash.
const MaxDifficulty = 64

// POWArgs represents the set of arguments required to mine a new block.
type POWArgs struct {
	Index      uint64
	PrevHash   string
	TimeStamp  uint64
	Trans      []Tx
	Difficulty uint
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the proof of work puzzle.
func POW(args POWArgs) (Block, error) {
	bb, err := NewBlockBuilder(args.Index, args.Trans, args.TimeStamp, args.PrevHash)
	if err != nil {
		return Block{}, err
	}

	return Mine(bb, args.Difficulty, args.EvHandler)
}

// Mine does the work of finding a nonce that produces a hash with the
// required number of leading zeros and then seals the block. The search
// starts from the builder's nonce and has no upper bound on attempts, a
// difficulty too high for the hardware stalls the caller.
func Mine(bb *BlockBuilder, difficulty uint, ev func(v string, args ...any)) (Block, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if difficulty > MaxDifficulty {
		return Block{}, fmt.Errorf("difficulty %d is greater than the max of %d", difficulty, MaxDifficulty)
	}

	ev("database: Mine: MINING: started: blk[%d]", bb.Index())
	defer ev("database: Mine: MINING: completed: blk[%d]", bb.Index())

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		if isHashSolved(difficulty, bb.Hash()) {
			break
		}

		if err := bb.IncrementNonce(); err != nil {
			return Block{}, err
		}
	}

	ev("database: Mine: MINING: SOLVED: blk[%d]: hash[%s]: nonce[%d]: attempts[%d]", bb.Index(), bb.Hash(), bb.Nonce(), attempts)

	return bb.Seal()
}

// isHashSolved checks the hash to make sure it complies with the proof of
// work rules. We need to match a difficulty number of leading 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if len(hash) != MaxDifficulty || difficulty > MaxDifficulty {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}
