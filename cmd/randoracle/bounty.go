package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	randoracle "github.com/entropynet/go-randoracle"
	"github.com/entropynet/go-randoracle/escrow"
)

var bountyCmd = cli.Command{
	Name:  "bounty",
	Usage: "escrows and inspects round bounties",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "escrows funds against a not-yet-published round",
			Flags: []cli.Flag{
				&cli.Uint64Flag{
					Name:     "round",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "amount",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "denom",
					Required: true,
				},
			},
			Action: func(c *cli.Context) error {
				amount, err := escrow.FromString(c.String("amount"))
				if err != nil {
					return xerrors.Errorf("parsing amount: %w", err)
				}

				o, closer, err := openOracle(c)
				if err != nil {
					return err
				}
				defer closer()

				total, err := o.ContributeBounty(c.Context, c.Uint64("round"), randoracle.Funds{
					Denom:  c.String("denom"),
					Amount: amount,
				})
				if err != nil {
					return err
				}
				fmt.Printf("round %d now escrows %s %s\n",
					c.Uint64("round"), total, c.String("denom"))
				return nil
			},
		},
		{
			Name:  "list",
			Usage: "lists open bounties in ascending round order",
			Action: func(c *cli.Context) error {
				o, closer, err := openOracle(c)
				if err != nil {
					return err
				}
				defer closer()

				entries, err := o.ListBounties(c.Context)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Printf("round %d: %s\n", e.Round, e.Amount)
				}
				return nil
			},
		},
	},
}
