// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// SubmitTransaction adds the transaction to the pool and seals the pool into
// a new block before responding.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var content map[string]any
	if err := web.Decode(r, &content); err != nil {
		metrics.AddRejected(ctx)
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := checkContent(content); err != nil {
		metrics.AddRejected(ctx)
		return err
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "type", content[database.FieldType], "batch_id", content[database.FieldBatchID])

	block, sealed, err := h.State.SubmitAndSeal(content)
	if err != nil {
		if errors.Is(err, database.ErrInvalidTx) {
			metrics.AddRejected(ctx)
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("submit and seal: %w", err)
	}

	if !sealed {
		return errs.NewTrusted(errors.New("no transactions to mine"), http.StatusBadRequest)
	}

	metrics.AddSealed(ctx)

	resp := submitResponse{
		Message:          "Transaction added successfully",
		BlockHash:        block.Hash(),
		TransactionCount: block.TxCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full sealed chain in its canonical form.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Export(), http.StatusOK)
}

// History returns the sealed transactions recorded for a batch.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	batchID := web.Param(r, "batch_id")
	return web.Respond(ctx, w, h.State.QueryHistory(batchID), http.StatusOK)
}

// VerifyTransaction reports if a transaction with the content hash is sealed.
func (h Handlers) VerifyTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := verifyResponse{
		Exists: h.State.QueryTxExists(web.Param(r, "hash")),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the status of the chain.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toStatusResponse(h.State.Status()), http.StatusOK)
}

// LegacyStatus returns the status of the chain in the form the supply chain
// application reads.
func (h Handlers) LegacyStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := h.State.Status()

	resp := legacyStatusResponse{
		Length:              status.Length,
		IsValid:             status.IsValid,
		PendingTransactions: status.PendingCount,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlockByHash returns the first block with the specified hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	block, found := h.State.QueryBlockByHash(hash)
	if !found {
		return errs.NewNotFound("block %q not found", hash)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Validate reports the first block and check that fails validation.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := h.State.Validate()
	if err == nil {
		return web.Respond(ctx, w, validationResponse{Valid: true}, http.StatusOK)
	}

	resp := validationResponse{
		Reason: err.Error(),
	}

	if ve := database.GetValidationError(err); ve != nil {
		resp.Index = ve.Index
		resp.Check = ve.Check
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// TransactionProof returns the merkle proof for a sealed transaction.
func (h Handlers) TransactionProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	txp, found, err := h.State.QueryTxProof(hash)
	if err != nil {
		return fmt.Errorf("query proof: %w", err)
	}

	if !found {
		return errs.NewNotFound("transaction %q not found", hash)
	}

	return web.Respond(ctx, w, toProofResponse(txp), http.StatusOK)
}

// Attest returns a signed statement of the current chain.
func (h Handlers) Attest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sa, err := h.State.Attest()
	if err != nil {
		if errors.Is(err, state.ErrNoSigner) {
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return fmt.Errorf("attest: %w", err)
	}

	return web.Respond(ctx, w, sa, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer func() {
		if dropped, err := h.Evts.Release(v.TraceID); err == nil && dropped > 0 {
			h.Log.Infow("websocket", "traceid", v.TraceID, "dropped", dropped)
		}
	}()

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the ledger or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
