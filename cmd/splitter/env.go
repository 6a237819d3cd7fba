package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/splitter-contract/config"
	"github.com/nspcc-dev/splitter-contract/events"
	"github.com/nspcc-dev/splitter-contract/events/kafka"
	"github.com/nspcc-dev/splitter-contract/host"
	"github.com/nspcc-dev/splitter-contract/identity"
	"github.com/nspcc-dev/splitter-contract/store"
	"github.com/nspcc-dev/splitter-contract/transfer"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// decimalsReader provides precision of NEP-17 assets.
type decimalsReader interface {
	Decimals(asset util.Uint160) (int, error)
}

// environment groups resources of the single command run.
type environment struct {
	cfg       *config.Config
	log       *zap.Logger
	store     storage.Store
	rpc       *rpcclient.Client
	decimals  decimalsReader
	kafka     *kafka.Publisher
	runtime   *host.Runtime
	validator identity.AddressValidator
}

func newEnvironment(c *cli.Context) (*environment, error) {
	var (
		env environment
		err error
	)

	env.cfg, err = config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	env.log, err = env.cfg.Logger.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	ok := false
	defer func() {
		if !ok {
			env.close()
		}
	}()

	contract, err := env.validator.Validate(env.cfg.Ledger.Address)
	if err != nil {
		return nil, fmt.Errorf("ledger address: %w", err)
	}

	assets := make([]util.Uint160, 0, len(env.cfg.Ledger.Assets))
	for _, s := range env.cfg.Ledger.Assets {
		a, err := env.validator.Validate(s)
		if err != nil {
			return nil, fmt.Errorf("ledger assets: %w", err)
		}
		assets = append(assets, a.ScriptHash())
	}

	tr := transfer.NEP17{Assets: assets}

	if env.cfg.RPC.Endpoint != "" {
		env.rpc, err = rpcclient.New(context.Background(), env.cfg.RPC.Endpoint, rpcclient.Options{
			DialTimeout:    env.cfg.RPC.Timeout,
			RequestTimeout: env.cfg.RPC.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("RPC client dial: %w", err)
		}

		balances := transfer.NewRPCBalanceReader(invoker.New(env.rpc, nil))
		tr.Balances = balances
		env.decimals = balances
	}

	publisher := events.Multi{events.NewLogPublisher(env.log)}

	if len(env.cfg.Kafka.Brokers) > 0 {
		env.kafka = kafka.NewPublisher(env.cfg.Kafka.Brokers, env.cfg.Kafka.Topic)
		publisher = append(publisher, env.kafka)
	}

	env.store, err = store.Open(env.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	env.runtime, err = host.New(host.Prm{
		Logger:         env.log,
		Store:          env.store,
		Contract:       contract,
		Validator:      env.validator,
		Transferer:     tr,
		Publisher:      publisher,
		SkipAssetCheck: !env.cfg.Ledger.EnforceApprovedAsset,
	})
	if err != nil {
		return nil, fmt.Errorf("init ledger runtime: %w", err)
	}

	ok = true

	return &env, nil
}

func (x *environment) close() {
	if x.store != nil {
		if err := x.store.Close(); err != nil {
			x.log.Error("failed to close storage", zap.Error(err))
		}
	}

	if x.kafka != nil {
		if err := x.kafka.Close(); err != nil {
			x.log.Error("failed to close Kafka publisher", zap.Error(err))
		}
	}

	if x.rpc != nil {
		x.rpc.Close()
	}

	_ = x.log.Sync()
}

// approvedAssetDecimals returns precision of the approved asset of the
// initialized ledger: from the network if RPC is configured, from the
// configuration otherwise.
func (x *environment) approvedAssetDecimals() (int, error) {
	cfg, err := x.runtime.Configuration()
	if err != nil {
		return 0, fmt.Errorf("read ledger configuration: %w", err)
	}

	if x.decimals == nil {
		return x.cfg.Ledger.Decimals, nil
	}

	return x.decimals.Decimals(cfg.ApprovedAsset.ScriptHash())
}

// parseAmount converts decimal notation of the amount into units of the
// approved asset. Ledger balances are kept in these units whatever asset
// a deposit or withdrawal names.
func (x *environment) parseAmount(s string) (*big.Int, error) {
	decimals, err := x.approvedAssetDecimals()
	if err != nil {
		return nil, err
	}

	return parseAmount(s, decimals)
}

// withEnvironment wraps command action with environment lifecycle.
func withEnvironment(f func(*cli.Context, *environment) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := newEnvironment(c)
		if err != nil {
			return err
		}
		defer env.close()

		return f(c, env)
	}
}

func requireFlags(c *cli.Context, names ...string) error {
	var missing []string
	for _, n := range names {
		if c.String(n) == "" {
			missing = append(missing, n)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %v", missing)
	}

	return nil
}
