// Package nameservice reads a folder of wallet keys and provides friendly
// names for the addresses they control.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
)

// keyExt is the extension of the key files the name service reads.
const keyExt = ".ecdsa"

// NameService maintains a bidirectional map of wallet addresses and names.
type NameService struct {
	names     map[string]string
	addresses map[string]string
}

// New constructs a name service from the key files found under root. The
// file name without its extension is the name of the wallet.
func New(root string) (*NameService, error) {
	ns := NameService{
		names:     make(map[string]string),
		addresses: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExt {
			return nil
		}

		w, err := wallet.Load(fileName)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(fileName), keyExt)
		ns.names[w.Address()] = name
		ns.addresses[name] = w.Address()

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. The address itself is
// returned when it has no name.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.names[address]
	if !exists {
		return address
	}
	return name
}

// Resolve returns the address registered under the name. The value is
// returned untouched when it is not a known name.
func (ns *NameService) Resolve(nameOrAddress string) string {
	address, exists := ns.addresses[nameOrAddress]
	if !exists {
		return nameOrAddress
	}
	return address
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for address, name := range ns.names {
		cpy[address] = name
	}
	return cpy
}
