package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	leveldb "github.com/ipfs/go-ds-leveldb"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	randoracle "github.com/entropynet/go-randoracle"
)

var log = logging.Logger("randoracle/cli")

func main() {
	app := &cli.App{
		Name:  "randoracle",
		Usage: "drand beacon verification oracle",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "datastore",
				Value: "randoracle.db",
				Usage: "path to the oracle datastore",
			},
		},
		Commands: []*cli.Command{
			&initCmd,
			&submitCmd,
			&beaconCmd,
			&bountyCmd,
			&shuffleCmd,
			&watchCmd,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %+v\n", err)
		os.Exit(1)
	}
}

// openOracle opens the datastore named by the global flag and the oracle
// over it. The returned closer releases the datastore.
func openOracle(c *cli.Context) (*randoracle.Oracle, func(), error) {
	ds, err := leveldb.NewDatastore(c.String("datastore"), nil)
	if err != nil {
		return nil, nil, xerrors.Errorf("creating a datastore: %w", err)
	}
	o, err := randoracle.New(c.Context, ds)
	if err != nil {
		_ = ds.Close()
		return nil, nil, xerrors.Errorf("opening the oracle: %w", err)
	}
	return o, func() {
		if err := ds.Close(); err != nil {
			log.Errorw("closing datastore", "error", err)
		}
	}, nil
}
