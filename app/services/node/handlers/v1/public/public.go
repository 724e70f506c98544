// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ardanlabs/cryptochain/business/sys/metrics"
	"github.com/ardanlabs/cryptochain/business/web/errs"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/state"
	"github.com/ardanlabs/cryptochain/foundation/events"
	"github.com/ardanlabs/cryptochain/foundation/nameservice"
	"github.com/ardanlabs/cryptochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client. The optional
// topic query parameters limit the events to those starting with a topic.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, r.URL.Query()["topic"]...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// BlocksLength returns the number of blocks in the chain.
func (h Handlers) BlocksLength(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, chainLength{Length: h.State.QueryChainLength()}, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Mempool returns the pending transactions keyed by id.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// Transact pays from the node's wallet, folding the payment into the
// node's pending transaction when there is one.
func (h Handlers) Transact(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req transact
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	recipient := h.NS.Resolve(req.Recipient)

	h.Log.Infow("transact", "traceid", v.TraceID, "recipient", recipient, "amount", req.Amount)

	tx, err := h.State.Transact(recipient, req.Amount)
	if err != nil {
		return txError(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// SubmitWalletTransaction adds a transaction signed by an external wallet
// to the pool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req signedTx
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	tx := req.toTx()

	h.Log.Infow("submit wallet tx", "traceid", v.TraceID, "tx", tx)

	if err := h.State.UpsertWalletTransaction(tx); err != nil {
		return txError(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// MineTransactions mines the pooled transactions into a new block and
// returns the block.
func (h Handlers) MineTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	block, err := h.State.RequestMining(ctx)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrChainChanged),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(err, http.StatusConflict)

		case errors.Is(err, state.ErrMiningQueueFull),
			errors.Is(err, state.ErrShuttingDown):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return err
	}

	metrics.AddBlocksMined()
	h.Log.Infow("mined block", "traceid", v.TraceID, "hash", block.Hash, "difficulty", block.Difficulty, "txs", len(block.Data))

	return web.Respond(ctx, w, block, http.StatusOK)
}

// WalletInfo returns the node's address and balance.
func (h Handlers) WalletInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := h.State.RetrieveMinerAddress()

	info := walletInfo{
		Address: address,
		Name:    h.NS.Lookup(address),
		Balance: h.State.QueryBalance(address),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Balance returns the balance of the address or name given in the path.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := h.NS.Resolve(web.Param(r, "address"))

	info := walletInfo{
		Address: address,
		Name:    h.NS.Lookup(address),
		Balance: h.State.QueryBalance(address),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// KnownAddresses returns every address that appears on the chain.
func (h Handlers) KnownAddresses(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addresses := h.State.RetrieveKnownAddresses()

	known := make([]knownAddress, len(addresses))
	for i, address := range addresses {
		known[i] = knownAddress{
			Address: address,
			Name:    h.NS.Lookup(address),
		}
	}

	return web.Respond(ctx, w, known, http.StatusOK)
}

// =============================================================================

// txError marks the errors caused by the transaction itself as safe to
// return to the caller.
func txError(err error) error {
	switch {
	case errors.Is(err, database.ErrInsufficientBalance),
		errors.Is(err, database.ErrSelfTransfer),
		errors.Is(err, database.ErrInvalidTransaction),
		errors.Is(err, state.ErrStaleBalance):
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	return err
}
