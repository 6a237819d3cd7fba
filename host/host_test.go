package host

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/splitter-contract/contracts/splitter"
	"github.com/nspcc-dev/splitter-contract/contracts/splitter/splitterconst"
	"github.com/nspcc-dev/splitter-contract/identity"
	"github.com/nspcc-dev/splitter-contract/transfer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	ledgerAddr = newIdentity(0xff)
	adminAddr  = newIdentity(0xaa)
	tokenAddr  = newIdentity(0xee)
	otherToken = newIdentity(0xef)
	depositor  = newIdentity(0xdd)

	recipientA = newIdentity('A')
	recipientB = newIdentity('B')
)

func newIdentity(b byte) identity.Identity {
	return identity.FromScriptHash(util.Uint160{b})
}

type recordingPublisher struct {
	events []state.NotificationEvent
	err    error
}

func (x *recordingPublisher) Publish(_ context.Context, events []state.NotificationEvent) error {
	x.events = append(x.events, events...)
	return x.err
}

type failingTransferer struct {
	err error
}

func (x *failingTransferer) Transfer(from, to, asset identity.Identity, amount *big.Int, data []byte) (transfer.Instruction, error) {
	if x.err != nil {
		return transfer.Instruction{}, &transfer.Error{From: from, To: to, Asset: asset, Amount: amount, Err: x.err}
	}
	return transfer.NEP17{}.Transfer(from, to, asset, amount, data)
}

// failingStore is storage.Store rejecting writes on demand.
type failingStore struct {
	*storage.MemoryStore
	err error
}

func (x *failingStore) PutChangeSet(puts map[string][]byte, stor map[string][]byte) error {
	if x.err != nil {
		return x.err
	}
	return x.MemoryStore.PutChangeSet(puts, stor)
}

type testRuntime struct {
	*Runtime
	store *failingStore
	tr    *failingTransferer
	pub   *recordingPublisher
	reg   *prometheus.Registry
}

func newTestRuntime(t *testing.T, skipAssetCheck bool) *testRuntime {
	tr := &testRuntime{
		store: &failingStore{MemoryStore: storage.NewMemoryStore()},
		tr:    new(failingTransferer),
		pub:   new(recordingPublisher),
		reg:   prometheus.NewRegistry(),
	}

	r, err := New(Prm{
		Logger:         zaptest.NewLogger(t),
		Store:          tr.store,
		Contract:       ledgerAddr,
		Validator:      identity.AddressValidator{},
		Transferer:     tr.tr,
		Publisher:      tr.pub,
		Registerer:     tr.reg,
		SkipAssetCheck: skipAssetCheck,
	})
	require.NoError(t, err)

	tr.Runtime = r

	return tr
}

func newInitializedRuntime(t *testing.T) *testRuntime {
	r := newTestRuntime(t, false)

	_, _, err := r.Initialize(context.Background(), adminAddr, tokenAddr.String())
	require.NoError(t, err)

	r.pub.events = nil

	return r
}

func (r *testRuntime) requireBalance(t *testing.T, id identity.Identity, exp int64) {
	bal, err := r.BalanceOf(id.String())
	require.NoError(t, err)
	require.EqualValues(t, exp, bal.Int64(), id.String())
}

func (r *testRuntime) opCount(op, status string) float64 {
	return testutil.ToFloat64(r.metrics.operations.WithLabelValues(op, status))
}

func TestNew(t *testing.T) {
	valid := Prm{
		Store:      storage.NewMemoryStore(),
		Contract:   ledgerAddr,
		Validator:  identity.AddressValidator{},
		Transferer: transfer.NEP17{},
	}

	_, err := New(valid)
	require.NoError(t, err)

	for name, mod := range map[string]func(*Prm){
		"store":      func(p *Prm) { p.Store = nil },
		"contract":   func(p *Prm) { p.Contract = identity.Identity{} },
		"validator":  func(p *Prm) { p.Validator = nil },
		"transferer": func(p *Prm) { p.Transferer = nil },
	} {
		prm := valid
		mod(&prm)

		_, err := New(prm)
		require.Error(t, err, name)
	}

	reg := prometheus.NewRegistry()
	valid.Registerer = reg

	_, err = New(valid)
	require.NoError(t, err)

	_, err = New(valid)
	require.Error(t, err, "metrics must not be registered twice")
}

func TestRuntime_Initialize(t *testing.T) {
	r := newTestRuntime(t, false)
	ctx := context.Background()

	_, err := r.Configuration()
	require.ErrorIs(t, err, splitter.ErrNotFound)

	cfg, resp, err := r.Initialize(ctx, adminAddr, tokenAddr.String())
	require.NoError(t, err)
	require.True(t, cfg.Administrator.Equals(adminAddr))
	require.True(t, cfg.ApprovedAsset.Equals(tokenAddr))
	require.Len(t, resp.Notifications, 1)
	require.Equal(t, resp.Notifications, r.pub.events)

	stored, err := r.Configuration()
	require.NoError(t, err)
	require.Equal(t, cfg, stored)

	v, err := r.Version()
	require.NoError(t, err)
	require.Equal(t, "splitter", v.Name)

	_, _, err = r.Initialize(ctx, depositor, otherToken.String())
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	stored, err = r.Configuration()
	require.NoError(t, err)
	require.Equal(t, cfg, stored)

	require.EqualValues(t, 1, r.opCount(OpInitialize, statusSuccess))
	require.EqualValues(t, 1, r.opCount(OpInitialize, statusFailure))
	require.Len(t, r.pub.events, 1)
}

func TestRuntime_CreditSplit(t *testing.T) {
	r := newInitializedRuntime(t)
	ctx := context.Background()

	res, err := r.CreditSplit(ctx, depositor, big.NewInt(101), tokenAddr.String(), recipientA.String(), recipientB.String())
	require.NoError(t, err)
	require.Len(t, res.Instructions, 1)
	require.True(t, res.Instructions[0].From.Equals(depositor))
	require.True(t, res.Instructions[0].To.Equals(ledgerAddr))

	r.requireBalance(t, recipientA, 50)
	r.requireBalance(t, recipientB, 50)

	require.Len(t, r.pub.events, 3)
	require.Equal(t, splitterconst.SendCoinsEvent, r.pub.events[2].Name)

	require.EqualValues(t, 1, testutil.ToFloat64(r.metrics.dropped))
	require.EqualValues(t, 1, r.opCount(OpCreditSplit, statusSuccess))

	_, err = r.CreditSplit(ctx, depositor, big.NewInt(10), tokenAddr.String(), recipientA.String(), recipientA.String())
	require.NoError(t, err)

	r.requireBalance(t, recipientA, 60)
	require.EqualValues(t, 1, testutil.ToFloat64(r.metrics.dropped))
}

func TestRuntime_Withdraw(t *testing.T) {
	r := newInitializedRuntime(t)
	ctx := context.Background()

	_, err := r.CreditSplit(ctx, depositor, big.NewInt(100), tokenAddr.String(), recipientA.String(), recipientB.String())
	require.NoError(t, err)

	_, err = r.Withdraw(ctx, recipientA, big.NewInt(51), tokenAddr.String())
	require.ErrorIs(t, err, splitter.ErrWithdrawAmountExceedsBalance)
	r.requireBalance(t, recipientA, 50)

	resp, err := r.Withdraw(ctx, recipientA, big.NewInt(30), tokenAddr.String())
	require.NoError(t, err)
	require.Len(t, resp.Instructions, 1)
	require.True(t, resp.Instructions[0].From.Equals(ledgerAddr))
	require.True(t, resp.Instructions[0].To.Equals(recipientA))
	require.EqualValues(t, 30, resp.Instructions[0].Amount.Int64())

	r.requireBalance(t, recipientA, 20)
	r.requireBalance(t, recipientB, 50)

	require.EqualValues(t, 1, r.opCount(OpWithdraw, statusSuccess))
	require.EqualValues(t, 1, r.opCount(OpWithdraw, statusFailure))
}

func TestRuntime_Rollback(t *testing.T) {
	t.Run("transfer failure", func(t *testing.T) {
		r := newInitializedRuntime(t)
		ctx := context.Background()

		_, err := r.CreditSplit(ctx, depositor, big.NewInt(100), tokenAddr.String(), recipientA.String(), recipientB.String())
		require.NoError(t, err)
		r.pub.events = nil

		r.tr.err = transfer.ErrInsufficientFunds

		_, err = r.CreditSplit(ctx, depositor, big.NewInt(100), tokenAddr.String(), recipientA.String(), recipientB.String())
		require.ErrorIs(t, err, transfer.ErrInsufficientFunds)

		_, err = r.Withdraw(ctx, recipientA, big.NewInt(10), tokenAddr.String())
		var terr *transfer.Error
		require.ErrorAs(t, err, &terr)

		r.requireBalance(t, recipientA, 50)
		r.requireBalance(t, recipientB, 50)
		require.Empty(t, r.pub.events)
	})

	t.Run("persist failure", func(t *testing.T) {
		r := newInitializedRuntime(t)
		ctx := context.Background()

		r.store.err = errors.New("disk is full")

		_, err := r.CreditSplit(ctx, depositor, big.NewInt(100), tokenAddr.String(), recipientA.String(), recipientB.String())
		require.ErrorIs(t, err, r.store.err)

		r.store.err = nil

		r.requireBalance(t, recipientA, 0)
		r.requireBalance(t, recipientB, 0)
		require.Empty(t, r.pub.events)
		require.EqualValues(t, 1, r.opCount(OpCreditSplit, statusFailure))
		require.Zero(t, testutil.ToFloat64(r.metrics.dropped))
	})
}

func TestRuntime_AssetCheck(t *testing.T) {
	ctx := context.Background()

	r := newInitializedRuntime(t)

	_, err := r.CreditSplit(ctx, depositor, big.NewInt(10), otherToken.String(), recipientA.String(), recipientB.String())
	require.ErrorIs(t, err, splitter.ErrUnapprovedAsset)
	r.requireBalance(t, recipientA, 0)

	r = newTestRuntime(t, true)

	_, _, err = r.Initialize(ctx, adminAddr, tokenAddr.String())
	require.NoError(t, err)

	_, err = r.CreditSplit(ctx, depositor, big.NewInt(10), otherToken.String(), recipientA.String(), recipientB.String())
	require.NoError(t, err)
	r.requireBalance(t, recipientA, 5)
}

func TestRuntime_PublishFailure(t *testing.T) {
	r := newInitializedRuntime(t)
	r.pub.err = errors.New("broker is down")

	_, err := r.CreditSplit(context.Background(), depositor, big.NewInt(10), tokenAddr.String(), recipientA.String(), recipientB.String())
	require.NoError(t, err)

	r.requireBalance(t, recipientA, 5)
}

func TestRuntime_BalanceOf(t *testing.T) {
	r := newInitializedRuntime(t)

	_, err := r.BalanceOf("not an address")
	require.ErrorIs(t, err, identity.ErrInvalidAddress)

	r.requireBalance(t, recipientA, 0)
}
