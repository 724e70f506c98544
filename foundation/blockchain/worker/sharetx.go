package worker

import (
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// maxTxShareRequests is the number of transactions that can wait to be
// shared. Transactions signaled while the queue is full are not shared.
const maxTxShareRequests = 100

// shareTxOperations sends new transactions to the known peers.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case tx := <-w.txSharing:
			if w.isShutdown() {
				continue
			}
			w.runShareTxOperation(w.collectTxs(tx))

		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}

// collectTxs gathers the transactions already queued behind tx. An update
// of a transaction replaces the queued version, since peers only accept
// the latest signature anyway.
func (w *Worker) collectTxs(tx database.Tx) []database.Tx {
	txs := []database.Tx{tx}
	index := map[string]int{tx.ID: 0}

	for {
		select {
		case tx := <-w.txSharing:
			if i, exists := index[tx.ID]; exists {
				txs[i] = tx
				continue
			}
			index[tx.ID] = len(txs)
			txs = append(txs, tx)

		default:
			return txs
		}
	}
}

// runShareTxOperation sends the transactions to the known peers.
func (w *Worker) runShareTxOperation(txs []database.Tx) {
	w.evHandler("worker: runShareTxOperation: started: txs[%d]", len(txs))
	defer w.evHandler("worker: runShareTxOperation: completed")

	for _, tx := range txs {
		w.state.NetSendTxToPeers(tx)
	}
}
