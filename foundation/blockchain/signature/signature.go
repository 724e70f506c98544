// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/bits"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// cryptochainStamp is prefixed to every message before signing. It makes it
// clear a signature was produced for this chain and not replayable elsewhere.
const cryptochainStamp = "\x19Cryptochain Signed Message:\n32"

// =============================================================================

// Canonical returns the JSON form of the value with every object's keys in
// sorted order, so values that differ only in key order encode identically.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var generic any
	if err := d.Decode(&generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}

// Hash returns the hex encoded SHA-256 digest of the canonical form of each
// value, joined by a single space in the order provided.
func Hash(values ...any) (string, error) {
	parts := make([][]byte, len(values))
	for i, v := range values {
		data, err := Canonical(v)
		if err != nil {
			return "", err
		}
		parts[i] = data
	}

	return HashCanonical(parts...), nil
}

// HashCanonical hashes parts that are already in canonical form. The proof
// of work search uses it to avoid re-encoding the block data every attempt.
func HashCanonical(parts ...[]byte) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{' '})
		}
		h.Write(p)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// LeadingZeroBits counts the zero bits at the front of the binary expansion
// of a hex digest. An invalid digest has no leading zero bits.
func LeadingZeroBits(hash string) int {
	data, err := hex.DecodeString(hash)
	if err != nil {
		return 0
	}

	var n int
	for _, b := range data {
		if b != 0 {
			return n + bits.LeadingZeros8(b)
		}
		n += 8
	}

	return n
}

// =============================================================================

// Address returns the address for the public key, the hex encoding of its
// compressed form.
func Address(publicKey *ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.CompressPubkey(publicKey))
}

// Sign uses the specified private key to sign the data.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the signature verifies with the public key before handing it out.
	pub := crypto.CompressPubkey(&privateKey.PublicKey)
	if !crypto.VerifySignature(pub, data, sig[:crypto.RecoveryIDOffset]) {
		return "", errors.New("invalid signature")
	}

	return hexutil.Encode(sig), nil
}

// VerifySignature verifies the signature was produced over the value by the
// private key behind the specified address.
func VerifySignature(value any, address string, sigStr string) error {
	pub, err := hexutil.Decode(address)
	if err != nil {
		return errors.New("invalid address encoding")
	}

	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return errors.New("invalid signature encoding")
	}

	if len(sig) != crypto.SignatureLength {
		return errors.New("invalid signature length")
	}

	data, err := stamp(value)
	if err != nil {
		return err
	}

	if !crypto.VerifySignature(pub, data, sig[:crypto.RecoveryIDOffset]) {
		return errors.New("signature does not match address")
	}

	return nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the cryptochain stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data in canonical form so map ordering can't change it.
	v, err := Canonical(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(v)

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	data := crypto.Keccak256([]byte(cryptochainStamp), txHash)

	return data, nil
}
