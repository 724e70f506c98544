package database

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"time"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/signature"
	"github.com/google/uuid"
)

// ErrInsufficientBalance is returned when a transfer asks for more than the
// sender has available.
var ErrInsufficientBalance = errors.New("amount exceeds balance")

// ErrSelfTransfer is returned when the recipient of a transfer is the sender.
var ErrSelfTransfer = errors.New("recipient is the sender")

// ErrInvalidTransaction is returned when a transaction fails validation.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Signer represents the behavior required to author transactions. The
// wallet package provides the implementation.
type Signer interface {
	Address() string
	Sign(value any) (string, error)
}

// =============================================================================

// TxInput identifies who authored a transaction and proves it.
type TxInput struct {
	Timestamp int64  `json:"timestamp"` // Milliseconds since epoch the input was signed.
	Amount    uint64 `json:"amount"`    // Sender balance when the transaction was created.
	Address   string `json:"address"`   // Sender's public key.
	Signature string `json:"signature"` // Signature over the output map.
}

// Tx is a signed value transfer from one sender to one or more recipients.
// The output map includes the sender's own remaining balance.
type Tx struct {
	ID        string            `json:"id"`
	OutputMap map[string]uint64 `json:"outputMap"`
	Input     TxInput           `json:"input"`
}

// NewTx constructs a transaction paying amount to the recipient out of the
// sender's balance, signed by the sender.
func NewTx(signer Signer, balance uint64, recipient string, amount uint64) (Tx, error) {
	sender := signer.Address()

	if recipient == sender {
		return Tx{}, ErrSelfTransfer
	}

	if amount > balance {
		return Tx{}, ErrInsufficientBalance
	}

	outputMap := map[string]uint64{
		recipient: amount,
		sender:    balance - amount,
	}

	input, err := newInput(signer, balance, outputMap)
	if err != nil {
		return Tx{}, err
	}

	tx := Tx{
		ID:        uuid.NewString(),
		OutputMap: outputMap,
		Input:     input,
	}

	return tx, nil
}

// NewRewardTx constructs the transaction paying the mining reward to the
// miner's address.
func NewRewardTx(minerAddress string, reward uint64) Tx {
	return Tx{
		ID:        uuid.NewString(),
		OutputMap: map[string]uint64{minerAddress: reward},
		Input: TxInput{
			Timestamp: time.Now().UnixMilli(),
			Amount:    reward,
			Address:   genesis.RewardAddress,
		},
	}
}

// Update adds amount for the recipient to a pending transaction, taking it
// from what remains allocated to the sender, and signs the result again.
// The transaction is unchanged if the update fails.
func (tx *Tx) Update(signer Signer, recipient string, amount uint64) error {
	sender := signer.Address()

	if sender != tx.Input.Address {
		return errors.New("signer is not the sender of this transaction")
	}

	if recipient == sender {
		return ErrSelfTransfer
	}

	remaining := tx.OutputMap[sender]
	if amount > remaining {
		return ErrInsufficientBalance
	}

	outputMap := cloneOutputs(tx.OutputMap)
	outputMap[recipient] += amount
	outputMap[sender] = remaining - amount

	input, err := newInput(signer, tx.Input.Amount, outputMap)
	if err != nil {
		return err
	}

	tx.OutputMap = outputMap
	tx.Input = input

	return nil
}

// Validate checks the outputs add up to the input amount and the signature
// over the outputs belongs to the input address. Reward transactions are
// only valid inside a block and always fail here.
func (tx Tx) Validate() error {
	if tx.IsReward() {
		return fmt.Errorf("%w: reward outside of a block", ErrInvalidTransaction)
	}

	if len(tx.OutputMap) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalidTransaction)
	}

	var total uint64
	for _, value := range tx.OutputMap {
		var carry uint64
		total, carry = bits.Add64(total, value, 0)
		if carry != 0 {
			return fmt.Errorf("%w: outputs overflow", ErrInvalidTransaction)
		}
	}

	if total != tx.Input.Amount {
		return fmt.Errorf("%w: from %s: outputs total %d, input amount %d", ErrInvalidTransaction, tx.Input.Address, total, tx.Input.Amount)
	}

	if err := signature.VerifySignature(tx.OutputMap, tx.Input.Address, tx.Input.Signature); err != nil {
		return fmt.Errorf("%w: signature from %s: %w", ErrInvalidTransaction, tx.Input.Address, err)
	}

	return nil
}

// ValidTransaction reports whether the transaction passes Validate.
func ValidTransaction(tx Tx) bool {
	return tx.Validate() == nil
}

// IsReward reports whether this is a mining reward transaction.
func (tx Tx) IsReward() bool {
	return tx.Input.Address == genesis.RewardAddress
}

// Clone returns a deep copy of the transaction.
func (tx Tx) Clone() Tx {
	tx.OutputMap = cloneOutputs(tx.OutputMap)
	return tx
}

// Recipients returns the addresses paid by the transaction other than the
// sender, in sorted order.
func (tx Tx) Recipients() []string {
	addrs := make([]string, 0, len(tx.OutputMap))
	for addr := range tx.OutputMap {
		if addr != tx.Input.Address {
			addrs = append(addrs, addr)
		}
	}
	sort.Strings(addrs)

	return addrs
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s", tx.Input.Address, tx.ID)
}

// =============================================================================

func newInput(signer Signer, amount uint64, outputMap map[string]uint64) (TxInput, error) {
	sig, err := signer.Sign(outputMap)
	if err != nil {
		return TxInput{}, fmt.Errorf("signing outputs: %w", err)
	}

	input := TxInput{
		Timestamp: time.Now().UnixMilli(),
		Amount:    amount,
		Address:   signer.Address(),
		Signature: sig,
	}

	return input, nil
}

func cloneOutputs(outputMap map[string]uint64) map[string]uint64 {
	if outputMap == nil {
		return nil
	}

	cp := make(map[string]uint64, len(outputMap))
	for addr, value := range outputMap {
		cp[addr] = value
	}

	return cp
}
