package database

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Set of checks performed against every block after genesis.
const (
	CheckHash       = "hash"
	CheckLinkage    = "previous_hash"
	CheckMerkleRoot = "merkle_root"
	CheckDifficulty = "difficulty"
)

// ErrNoGenesis is returned when a chain being validated has no blocks.
var ErrNoGenesis = errors.New("chain has no genesis block")

// ValidationError identifies the block and the check that failed.
type ValidationError struct {
	Index uint64
	Check string
	Got   string
	Exp   string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("block %d failed %s check, got %s, exp %s", ve.Index, ve.Check, ve.Got, ve.Exp)
}

// IsValidationError checks if an error of type ValidationError exists.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationError returns a copy of the ValidationError pointer.
func GetValidationError(err error) *ValidationError {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return ve
}

// =============================================================================

// ValidateBlock takes a block and validates it against its predecessor. The
// checks run in a fixed order and the first failure is returned.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches content", b.index)

	if hash := b.ComputeHash(); hash != b.hash {
		return &ValidationError{Index: b.index, Check: CheckHash, Got: b.hash, Exp: hash}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: previous hash matches previous block", b.index)

	if b.prevHash != previousBlock.hash {
		return &ValidationError{Index: b.index, Check: CheckLinkage, Got: b.prevHash, Exp: previousBlock.hash}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root matches transactions", b.index)

	root, err := b.ComputeMerkleRoot()
	if err != nil {
		return fmt.Errorf("block %d merkle root: %w", b.index, err)
	}
	if root != b.merkleRoot {
		return &ValidationError{Index: b.index, Check: CheckMerkleRoot, Got: b.merkleRoot, Exp: root}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.index)

	if !isHashSolved(difficulty, b.hash) {
		return &ValidationError{Index: b.index, Check: CheckDifficulty, Got: b.hash, Exp: fmt.Sprintf("%d leading zeros", difficulty)}
	}

	return nil
}

// ValidateChain validates every block after genesis against its predecessor
// in index order. It returns the first failure found.
func ValidateChain(blocks []Block, difficulty uint, evHandler func(v string, args ...any)) error {
	if len(blocks) == 0 {
		return ErrNoGenesis
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], difficulty, evHandler); err != nil {
			return err
		}
	}

	return nil
}

// ValidateExport parses an exported chain and validates it using only the
// exported data. The boolean result of this function matches the result of
// validating the live chain the export was taken from.
func ValidateExport(data []byte, difficulty uint) error {
	var blockData []BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return fmt.Errorf("decode export: %w", err)
	}

	blocks := make([]Block, len(blockData))
	for i, bd := range blockData {
		block, err := ToBlock(bd)
		if err != nil {
			return fmt.Errorf("convert block %d: %w", bd.Index, err)
		}
		blocks[i] = block
	}

	return ValidateChain(blocks, difficulty, nil)
}
