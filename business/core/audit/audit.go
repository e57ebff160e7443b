// Package audit provides the application's access to the ledger. The
// ledger is an auxiliary audit trail, the application's own records stay
// the source of truth, so failing to reach the ledger never fails the
// application's workflow.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"go.uber.org/zap"
)

// ErrUpstreamUnavailable is returned when the ledger can't be reached.
var ErrUpstreamUnavailable = errors.New("ledger is not accessible")

// Set of optional fields the application adds to status updates.
const (
	fieldProductData = "product_data"
	fieldStatus      = "status"
	fieldUpdatedBy   = "updated_by"
	fieldSubmittedAt = "submitted_at"
)

// =============================================================================

// SubmitResult is what the ledger reports for a sealed submission.
type SubmitResult struct {
	Message          string `json:"message"`
	BlockHash        string `json:"block_hash"`
	TransactionCount int    `json:"transaction_count"`
}

// Status is what the ledger reports about its chain.
type Status struct {
	Length       int    `json:"length"`
	IsValid      bool   `json:"is_valid"`
	PendingCount int    `json:"pending_count"`
	ChainHash    string `json:"chain_hash"`
	LatestBlock  string `json:"latest_block"`
	Difficulty   uint   `json:"difficulty"`
}

// RequestError is returned when the ledger answers a request with a failure.
type RequestError struct {
	Status int
	Resp   errs.Response
}

// Error implements the error interface.
func (re *RequestError) Error() string {
	return fmt.Sprintf("ledger responded %d: %s", re.Status, re.Resp.Error)
}

// =============================================================================

// Core manages the set of APIs for recording supply chain events.
type Core struct {
	log     *zap.SugaredLogger
	baseURL string
	client  *http.Client
}

// NewCore constructs a core for ledger api access.
func NewCore(log *zap.SugaredLogger, baseURL string, timeout time.Duration) *Core {
	return &Core{
		log:     log,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// RecordProductCreation records the creation of a product batch. A failure is
// logged as a warning and reported as false.
func (c *Core) RecordProductCreation(ctx context.Context, batchID string, productData map[string]any) bool {
	content := map[string]any{
		database.FieldType:    database.TypeProductCreation,
		database.FieldBatchID: batchID,
		fieldProductData:      productData,
	}

	return c.record(ctx, content)
}

// RecordStatusUpdate records a change in the status of a product batch. The
// status and updatedBy values are only recorded when provided.
func (c *Core) RecordStatusUpdate(ctx context.Context, batchID string, data map[string]any, status string, updatedBy string) bool {
	content := map[string]any{
		database.FieldType:    database.TypeStatusUpdate,
		database.FieldBatchID: batchID,
		fieldProductData:      data,
	}

	if status != "" {
		content[fieldStatus] = status
	}
	if updatedBy != "" {
		content[fieldUpdatedBy] = updatedBy
	}

	return c.record(ctx, content)
}

// RecordInventoryUpdate records a change to the inventory held for a batch.
func (c *Core) RecordInventoryUpdate(ctx context.Context, batchID string, data map[string]any, updatedBy string) bool {
	content := map[string]any{
		database.FieldType:    database.TypeInventoryUpdate,
		database.FieldBatchID: batchID,
		fieldProductData:      data,
	}

	if updatedBy != "" {
		content[fieldUpdatedBy] = updatedBy
	}

	return c.record(ctx, content)
}

// Submit sends the content to the ledger to be sealed into a block.
func (c *Core) Submit(ctx context.Context, content map[string]any) (SubmitResult, error) {
	var sr SubmitResult
	if err := c.call(ctx, http.MethodPost, "/v1/tx/submit", content, &sr); err != nil {
		return SubmitResult{}, err
	}

	return sr, nil
}

// History returns the sealed transactions recorded for the batch.
func (c *Core) History(ctx context.Context, batchID string) ([]database.Tx, error) {
	var trans []database.Tx
	if err := c.call(ctx, http.MethodGet, "/v1/history/"+url.PathEscape(batchID), nil, &trans); err != nil {
		return nil, err
	}

	return trans, nil
}

// Verify reports whether a transaction with the content hash is sealed.
func (c *Core) Verify(ctx context.Context, contentHash string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/tx/verify/"+url.PathEscape(contentHash), nil, &resp); err != nil {
		return false, err
	}

	return resp.Exists, nil
}

// Status returns the status of the ledger.
func (c *Core) Status(ctx context.Context) (Status, error) {
	var status Status
	if err := c.call(ctx, http.MethodGet, "/v1/status", nil, &status); err != nil {
		return Status{}, err
	}

	return status, nil
}

// Chain returns the raw export of the full chain so it can be verified
// with database.ValidateExport.
func (c *Core) Chain(ctx context.Context) ([]byte, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/v1/chain", nil, &raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// Attest returns the raw signed attestation from the ledger.
func (c *Core) Attest(ctx context.Context) ([]byte, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/v1/attest", nil, &raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// =============================================================================

// record submits the content and degrades to a warning on any failure.
func (c *Core) record(ctx context.Context, content map[string]any) bool {
	content[fieldSubmittedAt] = time.Now().UTC().UnixMilli()

	sr, err := c.Submit(ctx, content)
	if err != nil {
		c.log.Warnw("audit", "status", "ledger record failed", "type", content[database.FieldType], "batch_id", content[database.FieldBatchID], "ERROR", err)
		return false
	}

	c.log.Infow("audit", "status", "ledger record sealed", "type", content[database.FieldType], "batch_id", content[database.FieldBatchID], "block_hash", sr.BlockHash)
	return true
}

// call performs the request and decodes the response into resp.
func (c *Core) call(ctx context.Context, method string, path string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		re := RequestError{Status: res.StatusCode}
		if err := json.NewDecoder(res.Body).Decode(&re.Resp); err != nil {
			re.Resp.Error = http.StatusText(res.StatusCode)
		}
		return &re
	}

	if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
