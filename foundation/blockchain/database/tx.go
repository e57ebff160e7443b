package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Set of field names the ledger relies on inside a transaction.
const (
	FieldType      = "type"
	FieldBatchID   = "batch_id"
	FieldTimeStamp = "timestamp"
	FieldHash      = "hash"
)

// Set of transaction types submitted by the supply chain application. The
// ledger does not restrict the type to this set.
const (
	TypeProductCreation = "product_creation"
	TypeStatusUpdate    = "status_update"
	TypeInventoryUpdate = "inventory_update"
)

// ErrInvalidTx is returned when submitted content can't become a transaction.
var ErrInvalidTx = errors.New("invalid transaction")

// =============================================================================

// Tx represents an application supplied transaction as it's recorded in the
// ledger. The content is opaque except for the type and batch id. When
// admitted, the content is stamped with the admission time and a hash of the
// submitted content. A Tx can't be changed once stamped.
type Tx struct {
	fields map[string]any
}

// NewTx validates and stamps the submitted content. The ledger keeps its own
// copy so later changes to the content by the caller are not observed. A
// submitted timestamp or hash field is replaced by the stamp but remains
// committed through the content hash.
func NewTx(content map[string]any, now time.Time) (Tx, error) {
	if err := checkRequired(content); err != nil {
		return Tx{}, err
	}

	data, err := signature.Canonical(content)
	if err != nil {
		return Tx{}, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}

	fields, err := decodeFields(data)
	if err != nil {
		return Tx{}, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}

	fields[FieldTimeStamp] = json.Number(strconv.FormatInt(now.UTC().UnixMilli(), 10))
	fields[FieldHash] = signature.HashBytes(data)

	return Tx{fields: fields}, nil
}

// ParseContent decodes a JSON object into transaction content. Numbers are
// kept as their original literals.
func ParseContent(data []byte) (map[string]any, error) {
	content, err := decodeFields(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}

	return content, nil
}

// Type returns the type of the transaction.
func (tx Tx) Type() string {
	s, _ := tx.fields[FieldType].(string)
	return s
}

// BatchID returns the correlation key for the transaction.
func (tx Tx) BatchID() string {
	s, _ := tx.fields[FieldBatchID].(string)
	return s
}

// ContentHash returns the hash of the submitted content.
func (tx Tx) ContentHash() string {
	s, _ := tx.fields[FieldHash].(string)
	return s
}

// TimeStamp returns the admission time in unix milliseconds.
func (tx Tx) TimeStamp() uint64 {
	switch v := tx.fields[FieldTimeStamp].(type) {
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Field returns a copy of the value for the specified field.
func (tx Tx) Field(name string) (any, bool) {
	v, exists := tx.fields[name]
	if !exists {
		return nil, false
	}

	return cloneValue(v), true
}

// Fields returns a copy of all the fields, stamps included.
func (tx Tx) Fields() map[string]any {
	return cloneValue(tx.fields).(map[string]any)
}

// Hash implements the merkle Hashable interface for providing a hash
// of a transaction.
func (tx Tx) Hash() ([]byte, error) {
	data, err := tx.MarshalJSON()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return sum[:], nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions. If the content hash and admission time are
// the same, the two transactions are the same.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ContentHash() == otherTx.ContentHash() && tx.TimeStamp() == otherTx.TimeStamp()
}

// MarshalJSON implements the json.Marshaler interface. The encoding is
// canonical, fields are sorted by name.
func (tx Tx) MarshalJSON() ([]byte, error) {
	if tx.fields == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(tx.fields)
}

// UnmarshalJSON implements the json.Unmarshaler interface. It's used to read
// stored and exported transactions back without altering their content.
func (tx *Tx) UnmarshalJSON(data []byte) error {
	fields, err := decodeFields(data)
	if err != nil {
		return err
	}

	tx.fields = fields
	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s:%s", tx.Type(), tx.BatchID(), tx.ContentHash())
}

// =============================================================================

// checkRequired verifies the fields the ledger relies on are present.
func checkRequired(content map[string]any) error {
	for _, name := range []string{FieldType, FieldBatchID} {
		s, ok := content[name].(string)
		if !ok || s == "" {
			return fmt.Errorf("%w: field %q must be a non-empty string", ErrInvalidTx, name)
		}
	}

	return nil
}

// decodeFields decodes a single JSON object keeping numbers as literals.
func decodeFields(data []byte) (map[string]any, error) {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var fields map[string]any
	if err := d.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if fields == nil {
		return nil, errors.New("decode: expected a JSON object")
	}

	if d.More() {
		return nil, errors.New("decode: unexpected data after JSON object")
	}

	return fields, nil
}

// cloneValue makes a deep copy of values produced by JSON decoding.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for key, value := range v {
			m[key] = cloneValue(value)
		}
		return m

	case []any:
		s := make([]any, len(v))
		for i, value := range v {
			s[i] = cloneValue(value)
		}
		return s

	default:
		return v
	}
}
