package worker

// Sync asks every known peer for its chain and adopts the longest valid one.
// The pool of the first peer that has pending transactions replaces this
// node's pool.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	w.syncChain()

	for _, peer := range w.state.RetrieveKnownPeers() {
		pool, err := w.state.NetRequestPeerMempool(peer)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", peer.Host, err)
			continue
		}

		if len(pool) == 0 {
			continue
		}

		w.state.SetMempool(pool)
		return
	}
}

// syncOperations periodically looks for a longer chain on the known peers.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.syncChain()
			}
		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// syncChain pulls the chain from every peer reporting a longer one.
func (w *Worker) syncChain() {
	for _, peer := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(peer)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", peer.Host, err)
			continue
		}

		// If this peer has a longer chain, ask for it.
		if peerStatus.Length <= w.state.QueryChainLength() {
			continue
		}

		w.evHandler("worker: sync: retrievePeerChain: %s: length[%d]", peer.Host, peerStatus.Length)

		chain, err := w.state.NetRequestPeerChain(peer)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerChain: %s: ERROR %s", peer.Host, err)
			continue
		}

		w.state.ReplaceChain(chain)
	}
}
