/*
Membership is a command line tool for the Membership contract operators. It
deploys the contract, sends curation transactions, queries the registry and
dumps the contract state for the migration tests.

Settings are read from the YAML file passed with --config, global flags
override them:

	rpc:
	  endpoint: http://localhost:30333
	  dial_timeout: 15s
	  request_timeout: 15s
	wallet:
	  path: wallet.json
	  address: NfgHwwTi3wHAS8aFAN243C5vGbkYDpqLHP
	  password: one
	contract:
	  hash: NfgHwwTi3wHAS8aFAN243C5vGbkYDpqLHP
	  dir: contracts/membership
	  mint_limit: 1000
	  voting_authority: NfgHwwTi3wHAS8aFAN243C5vGbkYDpqLHP
	  reputation_authority: NfgHwwTi3wHAS8aFAN243C5vGbkYDpqLHP
	logger:
	  level: info
*/
package main

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/membership-contract/common"
	"github.com/urfave/cli"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "membership"
	app.Usage = "Membership contract operator tool"
	app.Version = fmt.Sprintf("%d.%d.%d", common.Version/1_000_000, common.Version/1_000%1_000, common.Version%1_000)
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "path to the YAML configuration file", EnvVar: "MEMBERSHIP_CONFIG"},
		cli.StringFlag{Name: "rpc, r", Usage: "Neo RPC server endpoint", EnvVar: "MEMBERSHIP_RPC"},
		cli.StringFlag{Name: "wallet, w", Usage: "path to the NEP-6 wallet", EnvVar: "MEMBERSHIP_WALLET"},
		cli.StringFlag{Name: "address, a", Usage: "wallet account to sign transactions with"},
		cli.StringFlag{Name: "password", Usage: "wallet account password", EnvVar: "MEMBERSHIP_PASSWORD"},
		cli.StringFlag{Name: "contract", Usage: "Membership contract address (Neo address or LE hex)", EnvVar: "MEMBERSHIP_CONTRACT"},
		cli.StringFlag{Name: "log-level", Usage: "logging level (debug, info, warn, error)"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "deploy",
			Usage:  "deploy or update the contract and bind configured authorities",
			Action: deployCmd,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "dir", Usage: "directory with compiled contract.nef and manifest.json"},
				cli.BoolFlag{Name: "update", Usage: "update already deployed contract if it differs"},
			},
		},
		{
			Name:      "mint",
			Usage:     "mint membership token to the recipient",
			ArgsUsage: "<recipient> <achievements-hash> <induction-height>",
			Action:    mintCmd,
		},
		{
			Name:      "update-reputation",
			Usage:     "set reputation score of the token",
			ArgsUsage: "<token-id> <score>",
			Action:    updateReputationCmd,
		},
		{
			Name:      "set-status",
			Usage:     "activate or deactivate the token",
			ArgsUsage: "<token-id> <true|false>",
			Action:    setStatusCmd,
		},
		{
			Name:      "token",
			Usage:     "print token metadata",
			ArgsUsage: "<token-id>",
			Action:    tokenCmd,
		},
		{
			Name:      "owner",
			Usage:     "print membership status and indexed tokens of the account",
			ArgsUsage: "<address>",
			Action:    ownerCmd,
		},
		{
			Name:   "dump",
			Usage:  "dump contract state and storage for the migration tests",
			Action: dumpCmd,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "label", Usage: "label of the blockchain environment (e.g. 'testnet')"},
				cli.StringFlag{Name: "dir", Value: "testdata", Usage: "root directory of the dumps"},
			},
		},
		{
			Name:   "verify",
			Usage:  "check consistency of the contract storage",
			Action: verifyCmd,
		},
	}

	return app
}
