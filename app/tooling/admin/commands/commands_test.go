package commands_test

import (
	"context"
	"testing"

	"github.com/ardanlabs/cryptochain/app/tooling/admin/commands"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/storage/leveldb"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/storage/memory"
)

func Test_Migrate(t *testing.T) {
	gen := genesis.Default()

	src, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to create the source storage: %v", err)
	}

	db, err := database.New(gen, src, nil)
	if err != nil {
		t.Fatalf("Should be able to construct the database: %v", err)
	}

	for i := 0; i < 3; i++ {
		reward := database.NewRewardTx("miner", gen.MiningReward)
		if _, err := db.AddBlock(context.Background(), []database.Tx{reward}); err != nil {
			t.Fatalf("Should be able to mine block %d: %v", i, err)
		}
	}

	if err := commands.Validate(db); err != nil {
		t.Fatalf("Should validate the source chain: %v", err)
	}

	dst, err := leveldb.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to create the target storage: %v", err)
	}

	if err := commands.Migrate(db, dst); err != nil {
		t.Fatalf("Should be able to migrate: %v", err)
	}

	migrated, err := database.New(gen, dst, nil)
	if err != nil {
		t.Fatalf("Should load the migrated chain: %v", err)
	}
	defer migrated.Close()

	if migrated.Length() != db.Length() || migrated.LatestBlock().Hash != db.LatestBlock().Hash {
		t.Fatalf("Should hold the same chain: %d/%s, %d/%s", migrated.Length(), migrated.LatestBlock().Hash, db.Length(), db.LatestBlock().Hash)
	}
}
