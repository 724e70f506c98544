package worker

// shareChainOperations handles sending the chain to the known peers after
// this node mines a block.
func (w *Worker) shareChainOperations() {
	w.evHandler("worker: shareChainOperations: G started")
	defer w.evHandler("worker: shareChainOperations: G completed")

	for {
		select {
		case <-w.chainSharing:
			if !w.isShutdown() {
				w.state.NetSendChainToPeers()
			}
		case <-w.shut:
			w.evHandler("worker: shareChainOperations: received shut signal")
			return
		}
	}
}
