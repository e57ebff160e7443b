// Package signature provides helper functions for handling the ledger's
// hashing and signing needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// InvalidHash is returned by Hash when a value can't be encoded. It can never
// satisfy a difficulty check or match a real digest.
const InvalidHash = ""

// ledgerID is an arbitrary number added to the recovery id of a signature.
// It makes it clear the signature was produced by this ledger. Ethereum and
// Bitcoin use the value of 27.
const ledgerID = 29

// =============================================================================

// Canonical returns the canonical encoding of the value. Maps are encoded
// with their keys sorted and structs in field declaration order, so a value
// always produces the same bytes.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}

	return data, nil
}

// Hash returns the sha256 hex digest of the canonical encoding of the value.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return InvalidHash
	}

	return HashBytes(data)
}

// HashBytes returns the sha256 hex digest of the specified bytes.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// Sign uses the specified private key to sign the canonical encoding of the
// value. The signature is returned hex encoded in the [R|S|V] format.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", errors.New("invalid signature")
	}

	// Mark the recovery id with the ledger id.
	sig[crypto.RecoveryIDOffset] += ledgerID

	return hexutil.Encode(sig), nil
}

// VerifySignature verifies the signature conforms to our standards.
func VerifySignature(sigStr string) error {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length, got %d, exp %d", len(sig), crypto.SignatureLength)
	}

	// Check the recovery id is either 0 or 1.
	v := sig[crypto.RecoveryIDOffset] - ledgerID
	if v != 0 && v != 1 {
		return errors.New("invalid recovery id")
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address of the key that signed the value.
func FromAddress(value any, sigStr string) (string, error) {
	if err := VerifySignature(sigStr); err != nil {
		return "", err
	}

	// NOTE: If the same exact value is not provided the wrong address is
	// recovered. The public key is extracted from the data and signature.

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] -= ledgerID

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// Address returns the address for the specified private key.
func Address(privateKey *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(privateKey.PublicKey).String()
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this value with the
// ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {
	v, err := Canonical(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide a data length
	// consistency with all data.
	dataHash := crypto.Keccak256(v)

	// This stamp is used so signatures we produce when signing data are
	// always unique to the ledger.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, dataHash), nil
}
