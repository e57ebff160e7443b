package state

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// ErrNoSigner is returned when an attestation is requested and the ledger
// was not configured with a key.
var ErrNoSigner = errors.New("ledger has no signing key")

// Attestation represents the values a ledger signs to vouch for the chain
// it holds at a point in time.
type Attestation struct {
	Length      int    `json:"length"`
	LatestBlock string `json:"latest_block"`
	ChainHash   string `json:"chain_hash"`
	TimeStamp   uint64 `json:"timestamp"`
}

// SignedAttestation is an attestation with the signature and the address of
// the signer. The address can be recovered from the attestation and the
// signature with signature.FromAddress.
type SignedAttestation struct {
	Attestation Attestation `json:"attestation"`
	Signature   string      `json:"signature"`
	Signer      string      `json:"signer"`
}

// Attest signs the current length, latest block hash and chain hash with the
// ledger's key.
func (s *State) Attest() (SignedAttestation, error) {
	if s.signerKey == nil {
		return SignedAttestation{}, ErrNoSigner
	}

	s.mu.RLock()
	latest, _ := s.db.LatestBlock()
	att := Attestation{
		Length:      s.db.Length(),
		LatestBlock: latest.Hash(),
		ChainHash:   s.db.ChainHash(),
		TimeStamp:   now(),
	}
	s.mu.RUnlock()

	sig, err := signature.Sign(att, s.signerKey)
	if err != nil {
		return SignedAttestation{}, err
	}

	sa := SignedAttestation{
		Attestation: att,
		Signature:   sig,
		Signer:      signature.Address(s.signerKey),
	}

	return sa, nil
}
