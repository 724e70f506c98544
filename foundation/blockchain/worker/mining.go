package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/state"
)

// miningOperations handles mining requests one at a time.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case result := <-w.startMining:
			if w.isShutdown() {
				result <- state.MineResult{Err: state.ErrShuttingDown}
				continue
			}
			result <- w.runMiningOperation()

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			for {
				select {
				case result := <-w.startMining:
					result <- state.MineResult{Err: state.ErrShuttingDown}
				default:
					return
				}
			}
		}
	}
}

// runMiningOperation mines the pooled transactions into a new block. When a
// cancel arrives mid search, the outcome is held back until the canceller
// says it is done replacing the chain.
func (w *Worker) runMiningOperation() state.MineResult {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// A cancel left over from a previous operation does not apply.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan struct{})
	waits := w.watchCancel(cancel, stop)

	start := time.Now()
	block, err := w.state.MineTransactions(ctx)
	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", time.Since(start))

	close(stop)
	for wait := range waits {
		w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
		<-wait
		w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
	}

	switch {
	case err == nil:
		w.evHandler("worker: runMiningOperation: MINING: hash[%s] txs[%d]", block.Hash, len(block.Data))
	case errors.Is(err, database.ErrChainChanged):
		w.evHandler("worker: runMiningOperation: MINING: WARNING: chain changed while mining")
	case ctx.Err() != nil:
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
	}

	return state.MineResult{Block: block, Err: err}
}

// watchCancel starts a G that cancels the mining context when a cancel is
// signaled. The wait channel that came with the cancel is handed back on
// the returned channel, which is closed once the G is finished.
func (w *Worker) watchCancel(cancel context.CancelFunc, stop <-chan struct{}) <-chan chan struct{} {
	waits := make(chan chan struct{}, 1)

	go func() {
		defer close(waits)

		select {
		case wait := <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
			waits <- wait
		case <-stop:
		}
	}()

	return waits
}
