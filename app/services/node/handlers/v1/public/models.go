package public

import (
	"github.com/ardanlabs/cryptochain/business/sys/validate"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// transact is the payload for paying from the node's wallet.
type transact struct {
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint64 `json:"amount" validate:"required,gt=0"`
}

// Validate checks the data in the model is considered clean.
func (t transact) Validate() error {
	return validate.Check(t)
}

// signedTx is a transaction built and signed by an external wallet.
type signedTx struct {
	ID        string            `json:"id" validate:"required"`
	OutputMap map[string]uint64 `json:"outputMap" validate:"required,min=1"`
	Input     txInput           `json:"input" validate:"required"`
}

type txInput struct {
	Timestamp int64  `json:"timestamp" validate:"required"`
	Amount    uint64 `json:"amount"`
	Address   string `json:"address" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (st signedTx) Validate() error {
	return validate.Check(st)
}

func (st signedTx) toTx() database.Tx {
	return database.Tx{
		ID:        st.ID,
		OutputMap: st.OutputMap,
		Input: database.TxInput{
			Timestamp: st.Input.Timestamp,
			Amount:    st.Input.Amount,
			Address:   st.Input.Address,
			Signature: st.Input.Signature,
		},
	}
}

type walletInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
}

type chainLength struct {
	Length int `json:"length"`
}

type knownAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}
