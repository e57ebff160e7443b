// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledger/app/services/ledger/handlers/v1/ledgergrp"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", lgh.Events)
	app.Handle(http.MethodPost, version, "/tx/submit", lgh.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/verify/:hash", lgh.VerifyTransaction)
	app.Handle(http.MethodGet, version, "/tx/proof/:hash", lgh.TransactionProof)
	app.Handle(http.MethodGet, version, "/chain", lgh.Chain)
	app.Handle(http.MethodGet, version, "/history/:batch_id", lgh.History)
	app.Handle(http.MethodGet, version, "/status", lgh.Status)
	app.Handle(http.MethodGet, version, "/block/:hash", lgh.BlockByHash)
	app.Handle(http.MethodGet, version, "/validate", lgh.Validate)
	app.Handle(http.MethodGet, version, "/attest", lgh.Attest)
}

// LegacyRoutes binds the unversioned routes the supply chain application
// was built against.
func LegacyRoutes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodPost, "", "/add_transaction", lgh.SubmitTransaction)
	app.Handle(http.MethodGet, "", "/get_chain", lgh.Chain)
	app.Handle(http.MethodGet, "", "/get_product_history/:batch_id", lgh.History)
	app.Handle(http.MethodGet, "", "/verify_transaction/:hash", lgh.VerifyTransaction)
	app.Handle(http.MethodGet, "", "/chain_status", lgh.LegacyStatus)
}
