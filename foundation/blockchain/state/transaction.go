package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// ErrStaleBalance is returned when a transaction spends a balance the sender
// no longer holds on the current chain.
var ErrStaleBalance = errors.New("transaction input does not match the sender's balance")

// Transact pays amount to the recipient from the node's wallet. The node's
// pending transaction is updated if there is one, otherwise a new one is
// created. The result is pooled and shared with the known peers.
func (s *State) Transact(recipient string, amount uint64) (database.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.mempool.ExistingTransaction(s.minerWallet.Address())
	switch {
	case exists:
		if err := tx.Update(s.minerWallet, recipient, amount); err != nil {
			return database.Tx{}, err
		}

	default:
		var err error
		tx, err = s.minerWallet.CreateTransaction(recipient, amount, s.db.Chain(), s.genesis.StartingBalance)
		if err != nil {
			return database.Tx{}, err
		}
	}

	s.mempool.SetTransaction(tx)
	s.evHandler("state: Transact: pooled tx[%s] recipient[%s] amount[%d]", tx.ID, recipient, amount)

	s.Worker.SignalShareTx(tx)

	return tx, nil
}

// UpsertWalletTransaction accepts a transaction signed by an external wallet
// for inclusion and shares it with the known peers.
func (s *State) UpsertWalletTransaction(tx database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	s.mempool.SetTransaction(tx)
	s.evHandler("state: UpsertWalletTransaction: pooled tx[%s]", tx)

	s.Worker.SignalShareTx(tx)

	return nil
}

// UpsertNodeTransaction accepts a transaction shared by a peer for inclusion.
func (s *State) UpsertNodeTransaction(tx database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	s.mempool.SetTransaction(tx)
	s.evHandler("state: UpsertNodeTransaction: pooled tx[%s]", tx)

	return nil
}

// SetMempool replaces the pool with the transactions received from a peer.
// The transactions are trusted and not validated.
func (s *State) SetMempool(txs map[string]database.Tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.SetMap(txs)
	s.evHandler("state: SetMempool: pool replaced: count[%d]", len(txs))
}

// =============================================================================

// validateTransaction takes the transaction and validates it has a proper
// signature and spends the sender's balance on the current chain.
func (s *State) validateTransaction(tx database.Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	balance := database.CalculateBalance(s.db.Chain(), tx.Input.Address, s.genesis.StartingBalance)
	if tx.Input.Amount != balance {
		return fmt.Errorf("%w: input %d, balance %d", ErrStaleBalance, tx.Input.Amount, balance)
	}

	return nil
}
