/*
Package host runs the splitter ledger over a durable key-value store.

Runtime executes one ledger operation at a time. Every operation works on a
write-cache over the store: if the ledger returns an error the cache is
dropped, otherwise it is persisted as a single batch. Notifications of
committed operations are passed to the configured events.Publisher.
*/
package host

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/splitter-contract/contracts/splitter"
	"github.com/nspcc-dev/splitter-contract/events"
	"github.com/nspcc-dev/splitter-contract/identity"
	"github.com/nspcc-dev/splitter-contract/transfer"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ErrAlreadyInitialized is returned on repeated ledger initialization.
var ErrAlreadyInitialized = errors.New("ledger is already initialized")

// Operation names used in logs and metrics.
const (
	OpInitialize  = "initialize"
	OpCreditSplit = "creditSplit"
	OpWithdraw    = "withdraw"
)

// Prm groups parameters of New.
type Prm struct {
	// Logger, zap.NewNop() if nil.
	Logger *zap.Logger

	// Durable storage of the ledger. Required.
	Store storage.Store

	// Address of the ledger itself. Required.
	Contract identity.Identity

	// Validator of user-supplied identities. Required.
	Validator identity.Validator

	// Transfer primitive. Required.
	Transferer transfer.Transferer

	// Receiver of notifications of committed operations. Optional.
	Publisher events.Publisher

	// Metrics are registered here if set.
	Registerer prometheus.Registerer

	// Disables approved asset check of deposits and withdrawals.
	SkipAssetCheck bool
}

// Runtime executes ledger operations.
type Runtime struct {
	log       *zap.Logger
	store     storage.Store
	env       splitter.Env
	validator identity.Validator
	contract  *splitter.Contract
	publisher events.Publisher
	metrics   *metrics

	mtx sync.Mutex
}

// New checks parameters and returns Runtime ready to serve.
func New(prm Prm) (*Runtime, error) {
	switch {
	case prm.Store == nil:
		return nil, errors.New("missing storage")
	case prm.Validator == nil:
		return nil, errors.New("missing identity validator")
	case prm.Transferer == nil:
		return nil, errors.New("missing transfer primitive")
	case prm.Contract.Equals(identity.Identity{}):
		return nil, errors.New("missing ledger address")
	}

	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	m := newMetrics()
	if prm.Registerer != nil {
		err := m.register(prm.Registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return &Runtime{
		log:       prm.Logger,
		store:     prm.Store,
		env:       splitter.Env{Contract: prm.Contract},
		validator: prm.Validator,
		contract: splitter.New(splitter.Prm{
			Validator:      prm.Validator,
			Transferer:     prm.Transferer,
			SkipAssetCheck: prm.SkipAssetCheck,
		}),
		publisher: prm.Publisher,
		metrics:   m,
	}, nil
}

// Initialize makes caller the administrator and asset the approved one.
// Returns ErrAlreadyInitialized if the ledger has been initialized before.
func (r *Runtime) Initialize(ctx context.Context, caller identity.Identity, asset string) (splitter.Config, splitter.Response, error) {
	var (
		cfg  splitter.Config
		resp splitter.Response
	)

	err := r.exec(ctx, OpInitialize, func(st *storage.MemCachedStore) (splitter.Response, error) {
		_, err := r.contract.Configuration(st)
		if err == nil {
			return resp, ErrAlreadyInitialized
		}
		if !errors.Is(err, splitter.ErrNotFound) {
			return resp, err
		}

		cfg, resp, err = r.contract.Initialize(st, r.env, caller, asset)
		return resp, err
	})

	return cfg, resp, err
}

// CreditSplit deposits amount of asset from the caller and splits it between
// two recipients.
func (r *Runtime) CreditSplit(ctx context.Context, caller identity.Identity, amount *big.Int, asset, recipient1, recipient2 string) (splitter.CreditSplitResult, error) {
	var res splitter.CreditSplitResult

	err := r.exec(ctx, OpCreditSplit, func(st *storage.MemCachedStore) (splitter.Response, error) {
		var err error

		res, err = r.contract.CreditSplit(st, r.env, splitter.CreditSplitPrm{
			Source:     caller,
			Amount:     amount,
			Asset:      asset,
			Recipient1: recipient1,
			Recipient2: recipient2,
		})
		return res.Response, err
	})
	if err != nil {
		return res, err
	}

	dropped := new(big.Int).Sub(amount, res.Credited[0])
	dropped.Sub(dropped, res.Credited[1])
	if dropped.Sign() > 0 {
		f, _ := new(big.Float).SetInt(dropped).Float64()
		r.metrics.dropped.Add(f)
	}

	return res, nil
}

// Withdraw transfers amount of asset from the caller's balance to the caller.
func (r *Runtime) Withdraw(ctx context.Context, caller identity.Identity, amount *big.Int, asset string) (splitter.Response, error) {
	var resp splitter.Response

	err := r.exec(ctx, OpWithdraw, func(st *storage.MemCachedStore) (splitter.Response, error) {
		var err error

		resp, err = r.contract.Withdraw(st, r.env, splitter.WithdrawPrm{
			Requester: caller,
			Amount:    amount,
			Asset:     asset,
		})
		return resp, err
	})

	return resp, err
}

// Configuration returns ledger configuration.
func (r *Runtime) Configuration() (splitter.Config, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.contract.Configuration(storage.NewMemCachedStore(r.store))
}

// Version returns ledger name and version recorded at initialization.
func (r *Runtime) Version() (splitter.VersionInfo, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.contract.Version(storage.NewMemCachedStore(r.store))
}

// BalanceOf returns withdrawable balance of the recipient address.
func (r *Runtime) BalanceOf(recipient string) (*big.Int, error) {
	id, err := r.validator.Validate(recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.contract.BalanceOf(storage.NewMemCachedStore(r.store), id)
}

func (r *Runtime) exec(ctx context.Context, op string, f func(*storage.MemCachedStore) (splitter.Response, error)) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	cache := storage.NewMemCachedStore(r.store)

	resp, err := f(cache)
	if err == nil {
		_, err = cache.PersistSync()
		if err != nil {
			err = fmt.Errorf("persist changes: %w", err)
		}
	}

	r.metrics.observe(op, err)

	if err != nil {
		r.log.Info("ledger operation failed",
			zap.String("operation", op),
			zap.Error(err))
		return err
	}

	r.log.Debug("ledger operation committed",
		zap.String("operation", op),
		zap.Int("notifications", len(resp.Notifications)),
		zap.Int("instructions", len(resp.Instructions)))

	if r.publisher != nil && len(resp.Notifications) > 0 {
		if perr := r.publisher.Publish(ctx, resp.Notifications); perr != nil {
			r.log.Error("failed to publish notifications",
				zap.String("operation", op),
				zap.Error(perr))
		}
	}

	return nil
}
