package main

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/splitter-contract/common"
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
	app.Name = "splitter"
	app.Usage = "Coin splitter ledger"
	app.Version = common.VersionString(common.Version)
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "Path to the YAML configuration file",
			EnvVar: "SPLITTER_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "init",
			Usage:     "Initialize the ledger",
			UsageText: "splitter init --from <address> --asset <address>",
			Flags:     []cli.Flag{fromFlag, assetFlag},
			Action:    initialize,
		},
		{
			Name:      "send",
			Usage:     "Deposit coins and split them between two recipients",
			UsageText: "splitter send --from <address> --amount <amount> --asset <address> --recipient1 <address> --recipient2 <address>",
			Flags: []cli.Flag{fromFlag, amountFlag, assetFlag,
				cli.StringFlag{Name: "recipient1, r1", Usage: "Address of the first recipient"},
				cli.StringFlag{Name: "recipient2, r2", Usage: "Address of the second recipient"},
			},
			Action: send,
		},
		{
			Name:      "withdraw",
			Usage:     "Withdraw credited coins",
			UsageText: "splitter withdraw --from <address> --amount <amount> --asset <address>",
			Flags:     []cli.Flag{fromFlag, amountFlag, assetFlag},
			Action:    withdraw,
		},
		{
			Name:      "balance",
			Usage:     "Print withdrawable balance of the recipient",
			UsageText: "splitter balance --address <address>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "address, a", Usage: "Address of the recipient"},
			},
			Action: balance,
		},
		{
			Name:   "config",
			Usage:  "Print ledger configuration",
			Action: configuration,
		},
		{
			Name:   "version",
			Usage:  "Print version recorded in the ledger",
			Action: version,
		},
		{
			Name:      "dump",
			Usage:     "Dump ledger state into the directory",
			UsageText: "splitter dump --dir <path> --label <label>",
			Flags:     []cli.Flag{dirFlag, labelFlag},
			Action:    dumpLedger,
		},
		{
			Name:      "restore",
			Usage:     "Restore ledger state from the latest dump with the label",
			UsageText: "splitter restore --dir <path> --label <label>",
			Flags:     []cli.Flag{dirFlag, labelFlag},
			Action:    restoreLedger,
		},
	}

	return app
}

var (
	fromFlag = cli.StringFlag{
		Name:  "from, f",
		Usage: "Address of the caller",
	}
	assetFlag = cli.StringFlag{
		Name:  "asset",
		Usage: "Address of the NEP-17 asset",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "Amount of coins in decimal notation (e.g. 1.5)",
	}
	dirFlag = cli.StringFlag{
		Name:  "dir, d",
		Usage: "Directory of ledger dumps",
		Value: "dumps",
	}
	labelFlag = cli.StringFlag{
		Name:  "label, l",
		Usage: "Label of the dump",
		Value: "splitter",
	}
)
