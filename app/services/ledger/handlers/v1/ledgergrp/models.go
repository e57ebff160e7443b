package ledgergrp

import (
	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// requiredFields are the fields the ledger needs from every submission. The
// rest of the submitted content is recorded as provided.
type requiredFields struct {
	Type    string `json:"type" validate:"required"`
	BatchID string `json:"batch_id" validate:"required"`
}

// checkContent validates the required fields of the submitted content.
func checkContent(content map[string]any) error {
	var rf requiredFields
	rf.Type, _ = content[database.FieldType].(string)
	rf.BatchID, _ = content[database.FieldBatchID].(string)

	return validate.Check(rf)
}

type submitResponse struct {
	Message          string `json:"message"`
	BlockHash        string `json:"block_hash"`
	TransactionCount int    `json:"transaction_count"`
}

type verifyResponse struct {
	Exists bool `json:"exists"`
}

type statusResponse struct {
	Length       int    `json:"length"`
	IsValid      bool   `json:"is_valid"`
	PendingCount int    `json:"pending_count"`
	ChainHash    string `json:"chain_hash"`
	LatestBlock  string `json:"latest_block"`
	Difficulty   uint   `json:"difficulty"`
}

func toStatusResponse(s state.Status) statusResponse {
	return statusResponse{
		Length:       s.Length,
		IsValid:      s.IsValid,
		PendingCount: s.PendingCount,
		ChainHash:    s.ChainHash,
		LatestBlock:  s.LatestBlock,
		Difficulty:   s.Difficulty,
	}
}

// legacyStatusResponse is the status form the supply chain application reads.
type legacyStatusResponse struct {
	Length              int  `json:"length"`
	IsValid             bool `json:"is_valid"`
	PendingTransactions int  `json:"pending_transactions"`
}

type validationResponse struct {
	Valid  bool   `json:"valid"`
	Index  uint64 `json:"index,omitempty"`
	Check  string `json:"check,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type proofResponse struct {
	BlockIndex uint64   `json:"block_index"`
	BlockHash  string   `json:"block_hash"`
	MerkleRoot string   `json:"merkle_root"`
	Leaf       string   `json:"leaf"`
	Proof      []string `json:"proof"`
	Order      []int64  `json:"order"`
}

func toProofResponse(txp state.TxProof) proofResponse {
	return proofResponse{
		BlockIndex: txp.BlockIndex,
		BlockHash:  txp.BlockHash,
		MerkleRoot: txp.MerkleRoot,
		Leaf:       txp.Leaf,
		Proof:      txp.Proof,
		Order:      txp.Order,
	}
}
