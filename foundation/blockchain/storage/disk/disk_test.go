package disk_test

import (
	"testing"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/storage/disk"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Storage(t *testing.T) {
	blocks := []database.Block{
		{Timestamp: 10, LastHash: "hash-one", Hash: "a1", Data: []database.Tx{}, Nonce: 4, Difficulty: 2},
		{Timestamp: 20, LastHash: "a1", Hash: "b2", Data: []database.Tx{{ID: "tx", OutputMap: map[string]uint64{"x": 5}}}, Nonce: 9, Difficulty: 3},
	}

	t.Log("Given the need to store blocks in disk storage.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen writing and reading blocks.", testID)
		{
			s, err := disk.New(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
			}
			defer s.Close()
			t.Logf("\t%s\tTest %d:\tShould be able to open storage.", success, testID)

			for i, block := range blocks {
				if err := s.Write(uint64(i+1), block); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, i+1, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould be able to write blocks.", success, testID)

			got, err := s.GetBlock(2)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read block 2: %v", failed, testID, err)
			}
			if got.Hash != "b2" || got.Data[0].OutputMap["x"] != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould read back the same block: %+v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould read back the same block.", success, testID)

			var hashes []string
			iter := s.ForEach()
			for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to iterate: %v", failed, testID, err)
				}
				hashes = append(hashes, block.Hash)
			}

			if len(hashes) != 2 || hashes[0] != "a1" || hashes[1] != "b2" {
				t.Fatalf("\t%s\tTest %d:\tShould iterate blocks in height order: %v", failed, testID, hashes)
			}
			t.Logf("\t%s\tTest %d:\tShould iterate blocks in height order.", success, testID)

			if err := s.Reset(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reset: %v", failed, testID, err)
			}

			iter = s.ForEach()
			if _, err := iter.Next(); err == nil || !iter.Done() {
				t.Fatalf("\t%s\tTest %d:\tShould have no blocks after reset.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have no blocks after reset.", success, testID)
		}
	}
}

func Test_Reopen(t *testing.T) {
	dir := t.TempDir()

	s, err := disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to open storage: %v", err)
	}

	if err := s.Write(1, database.Block{Timestamp: 10, Hash: "a1", Data: []database.Tx{}}); err != nil {
		t.Fatalf("Should be able to write a block: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Should be able to close storage: %v", err)
	}

	s, err = disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to reopen storage: %v", err)
	}
	defer s.Close()

	block, err := s.GetBlock(1)
	if err != nil {
		t.Fatalf("Should be able to read the block after reopening: %v", err)
	}

	if block.Hash != "a1" || block.Timestamp != 10 {
		t.Fatalf("Should read back the stored block: %+v", block)
	}
}
