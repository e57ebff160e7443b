package database

import (
	"errors"
	"fmt"
	"math"

	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// GenesisPrevHash is the previous hash recorded in the genesis block.
const GenesisPrevHash = "0"

// ErrInvariantViolation is returned when something attempts to change a
// block that has been sealed. It represents a programming error.
var ErrInvariantViolation = errors.New("invariant violation: block is sealed")

// =============================================================================

// Block represents a sealed group of transactions. A Block is immutable, it
// provides no behavior that can change its content.
type Block struct {
	index      uint64
	timeStamp  uint64
	prevHash   string
	nonce      uint64
	merkleRoot string
	hash       string
	trans      *merkle.Tree[Tx]
}

// Index returns the position of the block in the chain.
func (b Block) Index() uint64 {
	return b.index
}

// TimeStamp returns the time mining started in unix milliseconds.
func (b Block) TimeStamp() uint64 {
	return b.timeStamp
}

// PrevHash returns the hash of the previous block in the chain.
func (b Block) PrevHash() string {
	return b.prevHash
}

// Nonce returns the value that solved the proof of work.
func (b Block) Nonce() uint64 {
	return b.nonce
}

// MerkleRoot returns the stored merkle root of the transactions.
func (b Block) MerkleRoot() string {
	return b.merkleRoot
}

// Hash returns the stored hash of the block.
func (b Block) Hash() string {
	return b.hash
}

// Transactions returns the transactions in the block in insertion order.
func (b Block) Transactions() []Tx {
	if b.trans == nil {
		return []Tx{}
	}

	return b.trans.Values()
}

// TxCount returns the number of transactions in the block.
func (b Block) TxCount() int {
	if b.trans == nil {
		return 0
	}

	return len(b.trans.Leafs)
}

// tx returns the transaction at the specified position.
func (b Block) tx(i int) Tx {
	return b.trans.Leafs[i].Value
}

// ComputeHash calculates the hash of the block from its content, using the
// stored merkle root and nonce. It does not change the block.
func (b Block) ComputeHash() string {
	return blockHash(b.index, b.merkleRoot, b.nonce, b.prevHash, b.timeStamp, b.Transactions())
}

// ComputeMerkleRoot calculates the merkle root from the transactions. It does
// not change the block.
func (b Block) ComputeMerkleRoot() (string, error) {
	tree, err := merkle.NewTree(b.Transactions())
	if err != nil {
		return "", err
	}

	return tree.RootHex(), nil
}

// Proof returns the merkle proof for the specified transaction.
func (b Block) Proof(tx Tx) ([][]byte, []int64, error) {
	if b.trans == nil {
		return nil, nil, errors.New("block has no transactions")
	}

	return b.trans.Proof(tx)
}

// =============================================================================

// BlockBuilder represents a block that is being mined. Only the nonce can be
// changed and only until the builder is sealed. Sealing consumes the builder
// and produces the immutable Block.
type BlockBuilder struct {
	block  Block
	sealed bool
}

// NewBlockBuilder constructs a block to be mined with a nonce of zero and
// the merkle root and hash calculated.
func NewBlockBuilder(index uint64, trans []Tx, timeStamp uint64, prevHash string) (*BlockBuilder, error) {
	cpy := make([]Tx, len(trans))
	copy(cpy, trans)

	tree, err := merkle.NewTree(cpy)
	if err != nil {
		return nil, fmt.Errorf("merkle tree: %w", err)
	}

	bb := BlockBuilder{
		block: Block{
			index:      index,
			timeStamp:  timeStamp,
			prevHash:   prevHash,
			nonce:      0,
			merkleRoot: tree.RootHex(),
			trans:      tree,
		},
	}
	bb.block.hash = bb.block.ComputeHash()

	return &bb, nil
}

// Index returns the position the block will have in the chain.
func (bb *BlockBuilder) Index() uint64 {
	return bb.block.index
}

// Nonce returns the current nonce.
func (bb *BlockBuilder) Nonce() uint64 {
	return bb.block.nonce
}

// Hash returns the hash for the current nonce.
func (bb *BlockBuilder) Hash() string {
	return bb.block.hash
}

// Sealed reports whether the builder has been consumed.
func (bb *BlockBuilder) Sealed() bool {
	return bb.sealed
}

// SetNonce changes the nonce and recalculates the hash.
func (bb *BlockBuilder) SetNonce(nonce uint64) error {
	if bb.sealed {
		return ErrInvariantViolation
	}

	bb.block.nonce = nonce
	bb.block.hash = bb.block.ComputeHash()

	return nil
}

// IncrementNonce moves the nonce forward by one and recalculates the hash.
func (bb *BlockBuilder) IncrementNonce() error {
	if bb.sealed {
		return ErrInvariantViolation
	}

	if bb.block.nonce == math.MaxUint64 {
		return errors.New("nonce space exhausted")
	}

	return bb.SetNonce(bb.block.nonce + 1)
}

// Seal consumes the builder and returns the immutable block. Any further
// attempt to change the builder returns ErrInvariantViolation.
func (bb *BlockBuilder) Seal() (Block, error) {
	if bb.sealed {
		return Block{}, ErrInvariantViolation
	}

	bb.sealed = true

	return bb.block, nil
}

// =============================================================================

// BlockData represents what is written to storage and exported for audit.
// The field names match the canonical block serialization.
type BlockData struct {
	Index        uint64 `json:"index"`
	Transactions []Tx   `json:"transactions"`
	TimeStamp    uint64 `json:"timestamp"`
	PrevHash     string `json:"previous_hash"`
	Hash         string `json:"hash"`
	Nonce        uint64 `json:"nonce"`
	MerkleRoot   string `json:"merkle_root"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Index:        block.index,
		Transactions: block.Transactions(),
		TimeStamp:    block.timeStamp,
		PrevHash:     block.prevHash,
		Hash:         block.hash,
		Nonce:        block.nonce,
		MerkleRoot:   block.merkleRoot,
	}
}

// ToBlock converts a BlockData into a Block. The stored hash and merkle root
// are kept as provided so validation can detect any tampering.
func ToBlock(blockData BlockData) (Block, error) {
	tree, err := merkle.NewTree(blockData.Transactions)
	if err != nil {
		return Block{}, err
	}

	b := Block{
		index:      blockData.Index,
		timeStamp:  blockData.TimeStamp,
		prevHash:   blockData.PrevHash,
		nonce:      blockData.Nonce,
		merkleRoot: blockData.MerkleRoot,
		hash:       blockData.Hash,
		trans:      tree,
	}

	return b, nil
}

// =============================================================================

// blockHash calculates the hash of the block content. The field tags are
// declared in sorted order so the encoding is canonical.
func blockHash(index uint64, merkleRoot string, nonce uint64, prevHash string, timeStamp uint64, trans []Tx) string {
	hd := struct {
		Index        uint64 `json:"index"`
		MerkleRoot   string `json:"merkle_root"`
		Nonce        uint64 `json:"nonce"`
		PrevHash     string `json:"previous_hash"`
		TimeStamp    uint64 `json:"timestamp"`
		Transactions []Tx   `json:"transactions"`
	}{
		Index:        index,
		MerkleRoot:   merkleRoot,
		Nonce:        nonce,
		PrevHash:     prevHash,
		TimeStamp:    timeStamp,
		Transactions: trans,
	}

	return signature.Hash(hd)
}
