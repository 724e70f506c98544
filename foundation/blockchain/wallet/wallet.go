// Package wallet holds a key pair and produces signed transactions for it.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds the private key for an address. It implements the
// database.Signer interface.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// New constructs a wallet with a freshly generated key pair.
func New() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return FromPrivateKey(privateKey), nil
}

// FromPrivateKey constructs a wallet for an existing private key.
func FromPrivateKey(privateKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		privateKey: privateKey,
		address:    signature.Address(&privateKey.PublicKey),
	}
}

// FromHex constructs a wallet from a hex encoded private key.
func FromHex(hexKey string) (*Wallet, error) {
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}

	return FromPrivateKey(privateKey), nil
}

// Load reads the private key stored at the path.
func Load(path string) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("load key %q: %w", path, err)
	}

	return FromPrivateKey(privateKey), nil
}

// LoadOrGenerate reads the private key stored at the path, generating and
// saving a new one if the file does not exist. The boolean reports whether
// a new key was generated.
func LoadOrGenerate(path string) (*Wallet, bool, error) {
	w, err := Load(path)
	if err == nil {
		return w, false, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	w, err = New()
	if err != nil {
		return nil, false, err
	}

	if err := w.Save(path); err != nil {
		return nil, false, err
	}

	return w, true, nil
}

// Save writes the private key to the path in hex form.
func (w *Wallet) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return crypto.SaveECDSA(path, w.privateKey)
}

// Address returns the wallet's public key in hex form.
func (w *Wallet) Address() string {
	return w.address
}

// PrivateKey returns the wallet's private key.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// Sign signs the value with the wallet's private key.
func (w *Wallet) Sign(value any) (string, error) {
	return signature.Sign(value, w.privateKey)
}

// Balance derives the wallet's balance from the chain.
func (w *Wallet) Balance(chain []database.Block, startingBalance uint64) uint64 {
	return CalculateBalance(chain, w.address, startingBalance)
}

// CreateTransaction derives the wallet's balance from the chain and builds a
// signed transaction paying amount to the recipient.
func (w *Wallet) CreateTransaction(recipient string, amount uint64, chain []database.Block, startingBalance uint64) (database.Tx, error) {
	balance := w.Balance(chain, startingBalance)

	return database.NewTx(w, balance, recipient, amount)
}

// CalculateBalance derives the balance of any address from the chain.
func CalculateBalance(chain []database.Block, address string, startingBalance uint64) uint64 {
	return database.CalculateBalance(chain, address, startingBalance)
}
