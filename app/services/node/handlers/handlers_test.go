package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/cryptochain/app/services/node/handlers"
	"github.com/ardanlabs/cryptochain/business/web/errs"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/peer"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/state"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/worker"
	"github.com/ardanlabs/cryptochain/foundation/events"
	"github.com/ardanlabs/cryptochain/foundation/logger"
	"github.com/ardanlabs/cryptochain/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type nodeTest struct {
	public  http.Handler
	private http.Handler
	state   *state.State
	miner   *wallet.Wallet
}

func newNodeTest(t *testing.T) *nodeTest {
	t.Helper()

	log, err := logger.New("TEST")
	if err != nil {
		t.Fatalf("Should be able to construct the logger: %v", err)
	}
	t.Cleanup(func() { log.Sync() })

	root := t.TempDir()
	miner, _, err := wallet.LoadOrGenerate(root + "/miner1.ecdsa")
	if err != nil {
		t.Fatalf("Should be able to create the miner wallet: %v", err)
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %v", err)
	}

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to create the storage: %v", err)
	}

	st, err := state.New(state.Config{
		MinerWallet: miner,
		Host:        "localhost:9080",
		Storage:     storage,
		Genesis:     genesis.Default(),
		KnownPeers:  peer.NewPeerSet(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}
	worker.Run(st, nil)
	t.Cleanup(func() { st.Shutdown() })

	shutdown := make(chan os.Signal, 1)
	cfg := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		NS:       ns,
		Evts:     events.New(),
	}

	return &nodeTest{
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
		state:   st,
		miner:   miner,
	}
}

func (nt *nodeTest) do(t *testing.T, h http.Handler, method string, path string, body any, resp any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Should be able to encode the request: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if resp != nil && w.Body.Len() > 0 {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			t.Fatalf("Should be able to decode the response: %v", err)
		}
	}

	return w.Code
}

// =============================================================================

func Test_Public(t *testing.T) {
	nt := newNodeTest(t)

	t.Log("Given the need to use the public API.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asking for the blocks of a new node.", testID)
		{
			var chain []database.Block
			if code := nt.do(t, nt.public, http.MethodGet, "/v1/blocks", nil, &chain); code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d", failed, testID, code)
			}
			if len(chain) != 1 || chain[0].Hash != genesis.Default().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould receive the genesis block: %v", failed, testID, chain)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the genesis block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen paying from the node wallet.", testID)
		{
			req := map[string]any{"recipient": "alice", "amount": 50}

			var tx database.Tx
			if code := nt.do(t, nt.public, http.MethodPost, "/v1/transact", req, &tx); code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d", failed, testID, code)
			}
			if tx.OutputMap["alice"] != 50 || tx.OutputMap[nt.miner.Address()] != 950 {
				t.Fatalf("\t%s\tTest %d:\tShould receive the pooled transaction: %v", failed, testID, tx.OutputMap)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the pooled transaction.", success, testID)

			var pool map[string]database.Tx
			nt.do(t, nt.public, http.MethodGet, "/v1/transaction-pool-map", nil, &pool)
			if _, exists := pool[tx.ID]; !exists || len(pool) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould see the transaction in the pool: %v", failed, testID, pool)
			}
			t.Logf("\t%s\tTest %d:\tShould see the transaction in the pool.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the payment is missing its amount.", testID)
		{
			var er errs.Response
			code := nt.do(t, nt.public, http.MethodPost, "/v1/transact", map[string]any{"recipient": "alice"}, &er)
			if code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400: %d", failed, testID, code)
			}
			if _, exists := er.Fields["amount"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould report the amount field: %+v", failed, testID, er)
			}
			t.Logf("\t%s\tTest %d:\tShould report the amount field.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen paying more than the balance.", testID)
		{
			var er errs.Response
			code := nt.do(t, nt.public, http.MethodPost, "/v1/transact", map[string]any{"recipient": "bob", "amount": 5000}, &er)
			if code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400: %d", failed, testID, code)
			}
			if er.Error != database.ErrInsufficientBalance.Error() {
				t.Fatalf("\t%s\tTest %d:\tShould report the insufficient balance: %q", failed, testID, er.Error)
			}
			t.Logf("\t%s\tTest %d:\tShould report the insufficient balance.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining the pool.", testID)
		{
			var block database.Block
			if code := nt.do(t, nt.public, http.MethodPost, "/v1/mine-transactions", nil, &block); code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d", failed, testID, code)
			}
			if len(block.Data) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould mine the payment and the reward: %v", failed, testID, block.Data)
			}
			t.Logf("\t%s\tTest %d:\tShould mine the payment and the reward.", success, testID)

			var length struct {
				Length int `json:"length"`
			}
			nt.do(t, nt.public, http.MethodGet, "/v1/blocks/length", nil, &length)
			if length.Length != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have two blocks: %d", failed, testID, length.Length)
			}
			t.Logf("\t%s\tTest %d:\tShould have two blocks.", success, testID)

			var info struct {
				Address string `json:"address"`
				Balance uint64 `json:"balance"`
			}
			nt.do(t, nt.public, http.MethodGet, "/v1/balance/alice", nil, &info)
			if info.Balance != 1050 {
				t.Fatalf("\t%s\tTest %d:\tShould credit alice: %d", failed, testID, info.Balance)
			}
			t.Logf("\t%s\tTest %d:\tShould credit alice.", success, testID)

			nt.do(t, nt.public, http.MethodGet, "/v1/wallet-info", nil, &info)
			if info.Address != nt.miner.Address() || info.Balance != 1000 {
				t.Fatalf("\t%s\tTest %d:\tShould report the node wallet: %+v", failed, testID, info)
			}
			t.Logf("\t%s\tTest %d:\tShould report the node wallet.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting a transaction signed elsewhere.", testID)
		{
			sender, err := wallet.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a wallet: %v", failed, testID, err)
			}

			tx, err := sender.CreateTransaction("carol", 10, nt.state.RetrieveChain(), genesis.Default().StartingBalance)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a transaction: %v", failed, testID, err)
			}

			if code := nt.do(t, nt.public, http.MethodPost, "/v1/tx/submit", tx, nil); code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			tx.OutputMap["carol"] = 20
			if code := nt.do(t, nt.public, http.MethodPost, "/v1/tx/submit", tx, nil); code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject a tampered transaction: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a tampered transaction.", success, testID)
		}
	}
}

func Test_Private(t *testing.T) {
	nt := newNodeTest(t)

	t.Log("Given the need to serve peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asked for status.", testID)
		{
			var status peer.PeerStatus
			if code := nt.do(t, nt.private, http.MethodGet, "/v1/node/status", nil, &status); code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d", failed, testID, code)
			}
			if status.Length != 1 || status.LatestBlockHash != genesis.Default().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould report the genesis chain: %+v", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould report the genesis chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer sends a chain that is not longer.", testID)
		{
			var resp struct {
				Accepted bool `json:"accepted"`
			}
			code := nt.do(t, nt.private, http.MethodPost, "/v1/node/chain", nt.state.RetrieveChain(), &resp)
			if code != http.StatusOK || resp.Accepted {
				t.Fatalf("\t%s\tTest %d:\tShould answer that the chain was not accepted: %d %v", failed, testID, code, resp.Accepted)
			}
			t.Logf("\t%s\tTest %d:\tShould answer that the chain was not accepted.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer shares a transaction.", testID)
		{
			sender, err := wallet.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a wallet: %v", failed, testID, err)
			}

			tx, err := sender.CreateTransaction("dave", 15, nt.state.RetrieveChain(), genesis.Default().StartingBalance)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create a transaction: %v", failed, testID, err)
			}

			if code := nt.do(t, nt.private, http.MethodPost, "/v1/node/tx", tx, nil); code != http.StatusNoContent {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 204: %d", failed, testID, code)
			}

			var pool map[string]database.Tx
			nt.do(t, nt.private, http.MethodGet, "/v1/node/pool", nil, &pool)
			if _, exists := pool[tx.ID]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould pool the transaction: %v", failed, testID, pool)
			}
			t.Logf("\t%s\tTest %d:\tShould pool the transaction.", success, testID)
		}
	}
}
