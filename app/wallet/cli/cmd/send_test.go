package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fakeNode serves the routes the wallet uses and pools what is submitted.
// The returned func gives a copy of the pool.
func fakeNode(t *testing.T) (*httptest.Server, func() map[string]database.Tx) {
	gen := genesis.Default()

	var mu sync.Mutex
	pool := make(map[string]database.Tx)

	snapshot := func() map[string]database.Tx {
		mu.Lock()
		defer mu.Unlock()

		cpy := make(map[string]database.Tx, len(pool))
		for id, tx := range pool {
			cpy[id] = tx
		}
		return cpy
	}

	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/genesis", func(w http.ResponseWriter, r *http.Request) {
		reply(w, gen)
	})
	mux.HandleFunc("GET /v1/blocks", func(w http.ResponseWriter, r *http.Request) {
		reply(w, []database.Block{database.GenesisBlock(gen)})
	})
	mux.HandleFunc("GET /v1/transaction-pool-map", func(w http.ResponseWriter, r *http.Request) {
		reply(w, snapshot())
	})
	mux.HandleFunc("POST /v1/tx/submit", func(w http.ResponseWriter, r *http.Request) {
		var tx database.Tx
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			reply(w, map[string]string{"error": err.Error()})
			return
		}
		if err := tx.Validate(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			reply(w, map[string]string{"error": err.Error()})
			return
		}
		mu.Lock()
		pool[tx.ID] = tx
		mu.Unlock()

		reply(w, tx)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, snapshot
}

func Test_Send(t *testing.T) {
	t.Log("Given the need to send value from a local wallet.")
	{
		srv, snapshot := fakeNode(t)

		w, err := wallet.New()
		if err != nil {
			t.Fatalf("Should be able to create a wallet: %v", err)
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen the wallet has nothing pending.", testID)
		{
			tx, err := send(srv.URL, w, "alice", 100)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send.", success, testID)

			if _, exists := snapshot()[tx.ID]; !exists || tx.OutputMap[w.Address()] != 900 {
				t.Fatalf("\t%s\tTest %d:\tShould submit a new transaction: %v", failed, testID, tx.OutputMap)
			}
			t.Logf("\t%s\tTest %d:\tShould submit a new transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the wallet already has a pending payment.", testID)
		{
			tx, err := send(srv.URL, w, "bob", 50)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}

			pool := snapshot()
			if len(pool) != 1 || pool[tx.ID].OutputMap["bob"] != 50 || pool[tx.ID].OutputMap["alice"] != 100 {
				t.Fatalf("\t%s\tTest %d:\tShould extend the pending transaction: %v", failed, testID, pool)
			}
			t.Logf("\t%s\tTest %d:\tShould extend the pending transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen sending more than the remaining balance.", testID)
		{
			if _, err := send(srv.URL, w, "carol", 851); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to send.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to send.", success, testID)
		}
	}
}
