package worker

import (
	"testing"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

func Test_CollectTxs(t *testing.T) {
	w := Worker{
		txSharing: make(chan database.Tx, maxTxShareRequests),
		evHandler: func(v string, args ...any) {},
	}

	tx := func(id string, sig string) database.Tx {
		return database.Tx{ID: id, Input: database.TxInput{Signature: sig}}
	}

	w.txSharing <- tx("b", "b1")
	w.txSharing <- tx("a", "a2")
	w.txSharing <- tx("c", "c1")
	w.txSharing <- tx("b", "b2")

	got := w.collectTxs(tx("a", "a1"))

	exp := []database.Tx{tx("a", "a2"), tx("b", "b2"), tx("c", "c1")}
	if len(got) != len(exp) {
		t.Fatalf("Should get %d transactions, got %d.", len(exp), len(got))
	}

	for i := range exp {
		if got[i].ID != exp[i].ID || got[i].Input.Signature != exp[i].Input.Signature {
			t.Errorf("Should get %s/%s at index %d, got %s/%s.", exp[i].ID, exp[i].Input.Signature, i, got[i].ID, got[i].Input.Signature)
		}
	}

	if n := len(w.txSharing); n != 0 {
		t.Errorf("Should drain the queue, %d left.", n)
	}
}
