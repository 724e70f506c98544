package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
	"github.com/ardanlabs/cryptochain/foundation/nameservice"
)

func Test_NameService(t *testing.T) {
	root := t.TempDir()

	kennedy, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to create a wallet: %v", err)
	}
	if err := kennedy.Save(filepath.Join(root, "kennedy.ecdsa")); err != nil {
		t.Fatalf("Should be able to save a wallet: %v", err)
	}

	pavel, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to create a wallet: %v", err)
	}
	if err := pavel.Save(filepath.Join(root, "nested", "pavel.ecdsa")); err != nil {
		t.Fatalf("Should be able to save a wallet: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0600); err != nil {
		t.Fatalf("Should be able to write a file: %v", err)
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %v", err)
	}

	if got := ns.Lookup(kennedy.Address()); got != "kennedy" {
		t.Errorf("Should look up kennedy: got %q", got)
	}
	if got := ns.Lookup(pavel.Address()); got != "pavel" {
		t.Errorf("Should look up pavel in a nested folder: got %q", got)
	}
	if got := ns.Lookup("0xunknown"); got != "0xunknown" {
		t.Errorf("Should return unknown addresses untouched: got %q", got)
	}
	if got := ns.Resolve("kennedy"); got != kennedy.Address() {
		t.Errorf("Should resolve kennedy to its address: got %q", got)
	}
	if got := ns.Resolve("nobody"); got != "nobody" {
		t.Errorf("Should return unknown names untouched: got %q", got)
	}
	if got := len(ns.Copy()); got != 2 {
		t.Errorf("Should hold two names: got %d", got)
	}
}
