// This program performs administrative tasks against the chain a node keeps
// in storage. The node must be stopped while the tool runs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/cryptochain/app/tooling/admin/commands"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/storage/leveldb"
	"github.com/ardanlabs/cryptochain/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args        conf.Args
		Storage     string `conf:"default:disk,help:disk|leveldb"`
		DBPath      string `conf:"default:zblock/miner1/"`
		GenesisPath string `conf:"default:zblock/genesis.json"`
		To          struct {
			Storage string `conf:"default:leveldb"`
			DBPath  string `conf:"default:zblock/miner1.ldb/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "cryptochain storage admin",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	strg, err := openStorage(cfg.Storage, cfg.DBPath)
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	db, err := database.New(gen, strg, ev)
	if err != nil {
		strg.Close()
		return err
	}
	defer db.Close()

	return processCommands(cfg.Args, db, func() (database.Storage, error) {
		return openStorage(cfg.To.Storage, cfg.To.DBPath)
	})
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, db *database.Database, target func() (database.Storage, error)) error {
	switch args.Num(0) {
	case "validate":
		if err := commands.Validate(db); err != nil {
			return fmt.Errorf("validating chain: %w", err)
		}

	case "bals":
		if err := commands.Balances(args, db); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "blocks":
		if err := commands.Blocks(db); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}

	case "migrate":
		strg, err := target()
		if err != nil {
			return err
		}
		defer strg.Close()

		if err := commands.Migrate(db, strg); err != nil {
			return fmt.Errorf("migrating chain: %w", err)
		}

	default:
		fmt.Println("validate: check the stored chain against the genesis file")
		fmt.Println("bals:     show the balance of every address, or of the one given")
		fmt.Println("blocks:   print every block")
		fmt.Println("migrate:  copy the chain into the --to-storage backend")
		return commands.ErrHelp
	}

	return nil
}

func openStorage(kind string, dbPath string) (database.Storage, error) {
	switch kind {
	case "disk":
		strg, err := disk.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening disk storage: %w", err)
		}
		return strg, nil

	case "leveldb":
		strg, err := leveldb.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening leveldb storage: %w", err)
		}
		return strg, nil
	}

	return nil, fmt.Errorf("unknown storage %q", kind)
}
