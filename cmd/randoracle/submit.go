package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	randoracle "github.com/entropynet/go-randoracle"
)

var initCmd = cli.Command{
	Name:  "init",
	Usage: "establishes the oracle configuration",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "pubkey",
			Usage:    "hex encoded beacon group public key (compressed G1)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "denom",
			Usage:    "denomination bounties must be paid in",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		pubKey, err := hex.DecodeString(c.String("pubkey"))
		if err != nil {
			return xerrors.Errorf("decoding pubkey hex: %w", err)
		}

		o, closer, err := openOracle(c)
		if err != nil {
			return err
		}
		defer closer()

		return o.Init(c.Context, randoracle.Config{
			PublicKey:   pubKey,
			BountyDenom: c.String("denom"),
		})
	},
}

var submitCmd = cli.Command{
	Name:  "submit",
	Usage: "verifies and ingests one beacon round",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:     "round",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "previous-signature",
			Usage:    "hex encoded signature of the previous round",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "signature",
			Usage:    "hex encoded signature of this round",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "submitter",
			Usage: "identity credited with any bounty attached to the round",
			Value: "local",
		},
	},
	Action: func(c *cli.Context) error {
		prevSig, err := hex.DecodeString(c.String("previous-signature"))
		if err != nil {
			return xerrors.Errorf("decoding previous signature hex: %w", err)
		}
		sig, err := hex.DecodeString(c.String("signature"))
		if err != nil {
			return xerrors.Errorf("decoding signature hex: %w", err)
		}

		o, closer, err := openOracle(c)
		if err != nil {
			return err
		}
		defer closer()

		res, err := o.Submit(c.Context, c.Uint64("round"), prevSig, sig, c.String("submitter"))
		if err != nil {
			return err
		}
		fmt.Printf("randomness: %s\n", hex.EncodeToString(res.Randomness))
		if res.Transfer != nil {
			fmt.Printf("bounty: %s %s -> %s\n",
				res.Transfer.Amount, res.Transfer.Denom, res.Transfer.Recipient)
		}
		return nil
	},
}
