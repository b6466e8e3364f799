package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var beaconCmd = cli.Command{
	Name:  "beacon",
	Usage: "queries stored randomness",
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "prints the randomness for one round, empty if unseen",
			Flags: []cli.Flag{
				&cli.Uint64Flag{
					Name:     "round",
					Required: true,
				},
			},
			Action: func(c *cli.Context) error {
				o, closer, err := openOracle(c)
				if err != nil {
					return err
				}
				defer closer()

				randomness, err := o.GetBeacon(c.Context, c.Uint64("round"))
				if err != nil {
					return err
				}
				fmt.Println(hex.EncodeToString(randomness))
				return nil
			},
		},
		{
			Name:  "latest",
			Usage: "prints the highest ingested round and its randomness",
			Action: func(c *cli.Context) error {
				o, closer, err := openOracle(c)
				if err != nil {
					return err
				}
				defer closer()

				latest, err := o.LatestBeacon()
				if err != nil {
					return err
				}
				fmt.Printf("round %d: %s\n", latest.Round, hex.EncodeToString(latest.Randomness))
				return nil
			},
		},
	},
}

var shuffleCmd = cli.Command{
	Name:  "shuffle",
	Usage: "permutes an integer range seeded by a round's randomness",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:     "round",
			Required: true,
		},
		&cli.UintFlag{
			Name:  "from",
			Value: 0,
		},
		&cli.UintFlag{
			Name:     "to",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		o, closer, err := openOracle(c)
		if err != nil {
			return err
		}
		defer closer()

		permutation, err := o.Shuffle(c.Context, c.Uint64("round"),
			uint32(c.Uint("from")), uint32(c.Uint("to")))
		if err != nil {
			return err
		}
		out := make([]string, len(permutation))
		for i, v := range permutation {
			out[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(out, " "))
		return nil
	},
}

