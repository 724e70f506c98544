// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"net/http"

	"github.com/ardanlabs/cryptochain/business/web/errs"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/state"
	"github.com/ardanlabs/cryptochain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryStatus(), http.StatusOK)
}

// Chain returns the full chain for a peer to sync against.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// ReplaceChain takes a chain from a peer and adopts it when it is longer and
// valid. A rejected chain is not an error, the response reports the outcome.
func (h Handlers) ReplaceChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var chain []database.Block
	if err := web.Decode(r, &chain); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	accepted := h.State.ReplaceChain(chain)
	h.Log.Infow("replace chain", "traceid", v.TraceID, "length", len(chain), "accepted", accepted)

	resp := struct {
		Accepted bool `json:"accepted"`
	}{
		Accepted: accepted,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the pending transactions keyed by id.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// SetMempool replaces the pool with the one sent by a peer.
func (h Handlers) SetMempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pool map[string]database.Tx
	if err := web.Decode(r, &pool); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.State.SetMempool(pool)

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// SubmitNodeTransaction adds a transaction shared by a peer to the pool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit node tx", "traceid", v.TraceID, "tx", tx)

	if err := h.State.UpsertNodeTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}
