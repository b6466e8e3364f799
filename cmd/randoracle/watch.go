package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/entropynet/go-randoracle/beaconstore"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "prints beacons as they advance the latest round, until interrupted",
	Action: func(c *cli.Context) error {
		o, closer, err := openOracle(c)
		if err != nil {
			return err
		}
		defer closer()

		ch := make(chan *beaconstore.Beacon, 8)
		last, stop := o.Subscribe(ch)
		defer stop()
		if last != nil {
			printBeacon(last)
		}

		for {
			select {
			case beacon, ok := <-ch:
				if !ok {
					return fmt.Errorf("subscription dropped, consumer too slow")
				}
				printBeacon(beacon)
			case <-c.Context.Done():
				return nil
			}
		}
	},
}

func printBeacon(b *beaconstore.Beacon) {
	fmt.Printf("round %d: %s\n", b.Round, hex.EncodeToString(b.Randomness))
}
