package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/splitter-contract/common"
	"github.com/nspcc-dev/splitter-contract/contracts/splitter"
	"github.com/nspcc-dev/splitter-contract/identity"
	"github.com/nspcc-dev/splitter-contract/internal/dump"
	"github.com/nspcc-dev/splitter-contract/transfer"
	"github.com/urfave/cli"
)

var errNoDump = errors.New("no dump with the label")

type instructionOutput struct {
	transfer.Instruction
	Script string `json:"script"`
}

type responseOutput struct {
	Notifications []state.NotificationEvent `json:"notifications"`
	Instructions  []instructionOutput       `json:"instructions"`
}

type configOutput struct {
	Administrator identity.Identity `json:"administrator"`
	ApprovedAsset identity.Identity `json:"approvedAsset"`
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResponse(resp splitter.Response) error {
	out := responseOutput{
		Notifications: resp.Notifications,
		Instructions:  make([]instructionOutput, len(resp.Instructions)),
	}

	for i := range resp.Instructions {
		script, err := resp.Instructions[i].Script()
		if err != nil {
			return fmt.Errorf("build script of transfer %s: %w", resp.Instructions[i].ID, err)
		}

		out.Instructions[i] = instructionOutput{
			Instruction: resp.Instructions[i],
			Script:      hex.EncodeToString(script),
		}
	}

	return printJSON(out)
}

func caller(c *cli.Context, env *environment) (identity.Identity, error) {
	id, err := env.validator.Validate(c.String("from"))
	if err != nil {
		return identity.Identity{}, fmt.Errorf("caller: %w", err)
	}
	return id, nil
}

var initialize = withEnvironment(func(c *cli.Context, env *environment) error {
	if err := requireFlags(c, "from", "asset"); err != nil {
		return err
	}

	from, err := caller(c, env)
	if err != nil {
		return err
	}

	_, resp, err := env.runtime.Initialize(context.Background(), from, c.String("asset"))
	if err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}

	return printResponse(resp)
})

var send = withEnvironment(func(c *cli.Context, env *environment) error {
	if err := requireFlags(c, "from", "amount", "asset", "recipient1", "recipient2"); err != nil {
		return err
	}

	from, err := caller(c, env)
	if err != nil {
		return err
	}

	v, err := env.parseAmount(c.String("amount"))
	if err != nil {
		return err
	}

	res, err := env.runtime.CreditSplit(context.Background(), from, v,
		c.String("asset"), c.String("recipient1"), c.String("recipient2"))
	if err != nil {
		return fmt.Errorf("send coins: %w", err)
	}

	return printResponse(res.Response)
})

var withdraw = withEnvironment(func(c *cli.Context, env *environment) error {
	if err := requireFlags(c, "from", "amount", "asset"); err != nil {
		return err
	}

	from, err := caller(c, env)
	if err != nil {
		return err
	}

	v, err := env.parseAmount(c.String("amount"))
	if err != nil {
		return err
	}

	resp, err := env.runtime.Withdraw(context.Background(), from, v, c.String("asset"))
	if err != nil {
		return fmt.Errorf("withdraw coins: %w", err)
	}

	return printResponse(resp)
})

var balance = withEnvironment(func(c *cli.Context, env *environment) error {
	if err := requireFlags(c, "address"); err != nil {
		return err
	}

	bal, err := env.runtime.BalanceOf(c.String("address"))
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	decimals, err := env.approvedAssetDecimals()
	if err != nil {
		if !errors.Is(err, splitter.ErrNotFound) {
			return err
		}
		decimals = env.cfg.Ledger.Decimals
	}

	fmt.Println(formatAmount(bal, decimals))

	return nil
})

var configuration = withEnvironment(func(_ *cli.Context, env *environment) error {
	cfg, err := env.runtime.Configuration()
	if err != nil {
		return fmt.Errorf("read ledger configuration: %w", err)
	}

	return printJSON(configOutput{
		Administrator: cfg.Administrator,
		ApprovedAsset: cfg.ApprovedAsset,
	})
})

var version = withEnvironment(func(_ *cli.Context, env *environment) error {
	v, err := env.runtime.Version()
	if err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}

	fmt.Printf("%s %s\n", v.Name, common.VersionString(v.Version))

	return nil
})

var dumpLedger = withEnvironment(func(c *cli.Context, env *environment) error {
	cfg, err := env.runtime.Configuration()
	if err != nil {
		return fmt.Errorf("read ledger configuration: %w", err)
	}

	v, err := env.runtime.Version()
	if err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}

	dir := c.String("dir")

	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	id := dump.ID{Label: c.String("label"), Time: time.Now()}

	d, err := dump.NewCreator(dir, id)
	if err != nil {
		return fmt.Errorf("init dump: %w", err)
	}
	defer d.Close()

	d.SetSummary(dump.Summary{
		Contract:      env.cfg.Ledger.Address,
		Name:          v.Name,
		Version:       v.Version,
		Administrator: cfg.Administrator.String(),
		ApprovedAsset: cfg.ApprovedAsset.String(),
	})

	err = d.WriteStore(env.store)
	if err != nil {
		return err
	}

	err = d.Flush()
	if err != nil {
		return err
	}

	fmt.Printf("Ledger is successfully dumped to '%s' as %s\n", dir, id)

	return nil
})

var restoreLedger = withEnvironment(func(c *cli.Context, env *environment) error {
	_, err := env.runtime.Configuration()
	if err == nil {
		return errors.New("ledger storage is not empty")
	}
	if !errors.Is(err, splitter.ErrNotFound) {
		return fmt.Errorf("read ledger configuration: %w", err)
	}

	var (
		dir    = c.String("dir")
		label  = c.String("label")
		latest *dump.ID
	)

	err = dump.IterateDumps(dir, func(id dump.ID, r *dump.Reader) {
		if id.Label != label || r.Summary().Contract != env.cfg.Ledger.Address {
			return
		}

		if latest == nil || id.Time.After(latest.Time) {
			latest = &id
		}
	})
	if err != nil {
		return fmt.Errorf("read dumps: %w", err)
	}

	if latest == nil {
		return fmt.Errorf("%w '%s' of ledger %s", errNoDump, label, env.cfg.Ledger.Address)
	}

	var restoreErr error

	err = dump.IterateDumps(dir, func(id dump.ID, r *dump.Reader) {
		if restoreErr == nil && id.String() == latest.String() {
			restoreErr = r.Restore(env.store)
		}
	})
	if err == nil {
		err = restoreErr
	}
	if err != nil {
		return fmt.Errorf("restore dump %s: %w", latest, err)
	}

	fmt.Printf("Ledger is successfully restored from %s\n", latest)

	return nil
})
