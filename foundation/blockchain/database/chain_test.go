package database_test

import (
	"context"
	"testing"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/signature"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
)

func Test_ValidateChain(t *testing.T) {
	gen := genesis.Default()

	db := newDatabase(t)
	w := newWallet(t)
	tx, err := w.CreateTransaction("recipient", 50, db.Chain(), gen.StartingBalance)
	if err != nil {
		t.Fatalf("Should be able to create a transaction: %v", err)
	}
	if _, err := db.AddBlock(context.Background(), []database.Tx{tx, database.NewRewardTx(w.Address(), gen.MiningReward)}); err != nil {
		t.Fatalf("Should be able to mine a block: %v", err)
	}
	mineBlocks(t, db, 2)

	t.Log("Given the need to validate chains.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a mined chain.", testID)
		{
			if err := database.ValidateChain(db.Chain(), gen); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the chain.", success, testID)
		}

		mutations := []struct {
			name   string
			mutate func(b *database.Block)
		}{
			{"hash", func(b *database.Block) { b.Hash = "00" + b.Hash[2:] + "0" }},
			{"lastHash", func(b *database.Block) { b.LastHash = "evil-hash" }},
			{"nonce", func(b *database.Block) { b.Nonce++ }},
			{"difficulty", func(b *database.Block) { b.Difficulty++ }},
			{"timestamp", func(b *database.Block) { b.Timestamp++ }},
			{"data", func(b *database.Block) {
				b.Data = append(b.Data, database.NewRewardTx("thief", gen.MiningReward))
			}},
		}

		for _, m := range mutations {
			for height := 1; height < db.Length(); height++ {
				testID++
				t.Logf("\tTest %d:\tWhen block %d has a mutated %s.", testID, height, m.name)
				{
					chain := cloneChain(db.Chain())
					m.mutate(&chain[height])

					if database.IsValidChain(chain, gen) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the chain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the chain.", success, testID)
				}
			}
		}

		testID++
		t.Logf("\tTest %d:\tWhen the genesis block is altered.", testID)
		{
			chain := cloneChain(db.Chain())
			chain[0].Data = []database.Tx{database.NewRewardTx("thief", 1)}

			if database.IsValidChain(chain, gen) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a block is forged with a lowered difficulty.", testID)
		{
			chain := db.Chain()
			prev := chain[len(chain)-1]

			forged := database.Block{
				Timestamp:  prev.Timestamp + 1,
				LastHash:   prev.Hash,
				Data:       []database.Tx{},
				Difficulty: 1,
			}
			for {
				forged.Hash = forged.ComputeHash()
				if signature.LeadingZeroBits(forged.Hash) >= forged.Difficulty {
					break
				}
				forged.Nonce++
			}

			if prev.Difficulty-forged.Difficulty < 2 {
				t.Fatalf("\t%s\tTest %d:\tShould build a forged block at least two below, prev %d.", failed, testID, prev.Difficulty)
			}

			if database.IsValidChain(append(chain, forged), gen) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the difficulty jump.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the difficulty jump.", success, testID)
		}
	}
}

func Test_ValidTransactionData(t *testing.T) {
	gen := genesis.Default()

	type table struct {
		name  string
		valid bool
		data  func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx
	}

	tt := []table{
		{
			name:  "valid",
			valid: true,
			data: func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx {
				tx := mustCreate(t, w, "r1", 10, chain)
				return []database.Tx{tx, database.NewRewardTx("miner", gen.MiningReward)}
			},
		},
		{
			name:  "reward only",
			valid: true,
			data: func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx {
				return []database.Tx{database.NewRewardTx("miner", gen.MiningReward)}
			},
		},
		{
			name: "two rewards",
			data: func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx {
				return []database.Tx{
					database.NewRewardTx("miner", gen.MiningReward),
					database.NewRewardTx("miner", gen.MiningReward),
				}
			},
		},
		{
			name: "wrong reward",
			data: func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx {
				return []database.Tx{database.NewRewardTx("miner", gen.MiningReward+1)}
			},
		},
		{
			name: "tampered outputs",
			data: func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx {
				tx := mustCreate(t, w, "r1", 10, chain)
				tx.OutputMap[w.Address()] = 999_999
				return []database.Tx{tx}
			},
		},
		{
			name: "duplicate sender",
			data: func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx {
				return []database.Tx{mustCreate(t, w, "r1", 10, chain), mustCreate(t, w, "r2", 10, chain)}
			},
		},
		{
			name: "fake balance",
			data: func(t *testing.T, w *wallet.Wallet, chain []database.Block) []database.Tx {
				tx, err := database.NewTx(w, 9000, "r1", 10)
				if err != nil {
					t.Fatalf("Should be able to create a transaction: %v", err)
				}
				return []database.Tx{tx}
			},
		},
	}

	t.Log("Given the need to validate the transaction data of a chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				db := newDatabase(t)
				w := newWallet(t)

				if _, err := db.AddBlock(context.Background(), tst.data(t, w, db.Chain())); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %v", failed, testID, err)
				}

				err := database.ValidTransactionData(db.Chain(), gen)
				switch {
				case tst.valid && err != nil:
					t.Fatalf("\t%s\tTest %d:\tShould accept the data: %v", failed, testID, err)
				case !tst.valid && err == nil:
					t.Fatalf("\t%s\tTest %d:\tShould reject the data.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get valid=%t.", success, testID, tst.valid)

				candidate := newDatabase(t)
				err = candidate.ReplaceChain(db.Chain(), true)
				if tst.valid != (err == nil) {
					t.Fatalf("\t%s\tTest %d:\tShould get the same answer from ReplaceChain: %v", failed, testID, err)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

// =============================================================================

func newWallet(t *testing.T) *wallet.Wallet {
	t.Helper()

	w, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to create a wallet: %v", err)
	}

	return w
}

func mustCreate(t *testing.T, w *wallet.Wallet, recipient string, amount uint64, chain []database.Block) database.Tx {
	t.Helper()

	tx, err := w.CreateTransaction(recipient, amount, chain, genesis.Default().StartingBalance)
	if err != nil {
		t.Fatalf("Should be able to create a transaction: %v", err)
	}

	return tx
}

func cloneChain(chain []database.Block) []database.Block {
	cp := make([]database.Block, len(chain))
	for i, b := range chain {
		b.Data = make([]database.Tx, len(chain[i].Data))
		for j, tx := range chain[i].Data {
			b.Data[j] = tx.Clone()
		}
		cp[i] = b
	}

	return cp
}
