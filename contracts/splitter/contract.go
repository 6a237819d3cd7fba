package splitter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/splitter-contract/common"
	"github.com/nspcc-dev/splitter-contract/contracts/splitter/splitterconst"
	"github.com/nspcc-dev/splitter-contract/identity"
	"github.com/nspcc-dev/splitter-contract/transfer"
)

var (
	// ErrNotFound is returned when the ledger has not been initialized.
	ErrNotFound = errors.New("ledger configuration not found")
	// ErrWithdrawAmountExceedsBalance is returned when requested withdrawal is
	// bigger than the accrued balance.
	ErrWithdrawAmountExceedsBalance = errors.New("withdraw amount exceeds balance")
	// ErrInvalidAmount is returned for negative amounts and amounts that do
	// not fit into 128 bits.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrOverflow is returned when a credit would push balance beyond 128 bits.
	ErrOverflow = errors.New("balance overflow")
	// ErrUnderflow is returned when a debit would make balance negative.
	ErrUnderflow = errors.New("balance underflow")
	// ErrUnapprovedAsset is returned when operation references an asset other
	// than the one approved at initialization.
	ErrUnapprovedAsset = errors.New("asset is not approved")
)

type (
	// Config is the singleton ledger configuration.
	Config struct {
		// Identity that initialized the ledger.
		Administrator identity.Identity
		// Asset the ledger is authorized to move.
		ApprovedAsset identity.Identity
	}

	// VersionInfo describes contract recorded at initialization.
	VersionInfo struct {
		Name    string
		Version int
	}

	// Env describes environment the ledger is executed in.
	Env struct {
		// Address of the ledger, it holds deposited assets.
		Contract identity.Identity
	}

	// Response groups outcome of a state-changing operation.
	Response struct {
		Notifications []state.NotificationEvent
		// Transfers to be executed by the host after the operation.
		Instructions []transfer.Instruction
	}

	// CreditSplitPrm groups parameters of Contract.CreditSplit.
	CreditSplitPrm struct {
		// Depositor, assets are transferred from it.
		Source     identity.Identity
		Amount     *big.Int
		Asset      string
		Recipient1 string
		Recipient2 string
	}

	// CreditSplitResult is a Response of Contract.CreditSplit with the amounts
	// credited to each recipient.
	CreditSplitResult struct {
		Response
		Credited [2]*big.Int
	}

	// WithdrawPrm groups parameters of Contract.Withdraw.
	WithdrawPrm struct {
		Requester identity.Identity
		Amount    *big.Int
		Asset     string
	}
)

// ToStackItem implements stackitem.Convertible.
func (c *Config) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(c.Administrator.ScriptHash().BytesBE()),
		stackitem.NewByteArray(c.ApprovedAsset.ScriptHash().BytesBE()),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (c *Config) FromStackItem(item stackitem.Item) error {
	fields, ok := item.Value().([]stackitem.Item)
	if !ok || len(fields) != 2 {
		return errors.New("not a struct of 2 fields")
	}

	admin, err := hash160FromItem(fields[0])
	if err != nil {
		return fmt.Errorf("administrator: %w", err)
	}

	asset, err := hash160FromItem(fields[1])
	if err != nil {
		return fmt.Errorf("approved asset: %w", err)
	}

	c.Administrator = identity.FromScriptHash(admin)
	c.ApprovedAsset = identity.FromScriptHash(asset)

	return nil
}

// ToStackItem implements stackitem.Convertible.
func (v *VersionInfo) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(v.Name)),
		stackitem.NewBigInteger(big.NewInt(int64(v.Version))),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (v *VersionInfo) FromStackItem(item stackitem.Item) error {
	fields, ok := item.Value().([]stackitem.Item)
	if !ok || len(fields) != 2 {
		return errors.New("not a struct of 2 fields")
	}

	name, err := fields[0].TryBytes()
	if err != nil {
		return fmt.Errorf("name: %w", err)
	}

	ver, err := fields[1].TryInteger()
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}

	if !ver.IsInt64() {
		return errors.New("version is out of range")
	}

	v.Name = string(name)
	v.Version = int(ver.Int64())

	return nil
}

func hash160FromItem(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}

	return util.Uint160DecodeBytesBE(b)
}

// Prm groups parameters of New.
type Prm struct {
	// Validates identities received as strings.
	Validator identity.Validator

	// Produces transfer instructions of deposits and withdrawals.
	Transferer transfer.Transferer

	// Disables comparison of the asset passed to CreditSplit and Withdraw
	// with the approved one.
	SkipAssetCheck bool
}

// Contract is the splitter ledger. It holds no state itself, all data lives
// in the storage passed to its methods.
type Contract struct {
	validator  identity.Validator
	transferer transfer.Transferer
	checkAsset bool
}

// New returns Contract working with provided collaborators.
func New(prm Prm) *Contract {
	return &Contract{
		validator:  prm.Validator,
		transferer: prm.Transferer,
		checkAsset: !prm.SkipAssetCheck,
	}
}

// Initialize stores ledger configuration: caller becomes the administrator,
// asset is validated and becomes the approved one. Initialize must be called
// exactly once, the ledger does not check it.
//
// It produces Initialize notification.
func (c *Contract) Initialize(st common.Storage, env Env, caller identity.Identity, asset string) (Config, Response, error) {
	approved, err := c.validator.Validate(asset)
	if err != nil {
		return Config{}, Response{}, fmt.Errorf("asset: %w", err)
	}

	cfg := Config{
		Administrator: caller,
		ApprovedAsset: approved,
	}

	err = common.SetSerialized(st, []byte{splitterconst.ConfigKey}, &cfg)
	if err != nil {
		return Config{}, Response{}, fmt.Errorf("save configuration: %w", err)
	}

	err = common.SetSerialized(st, []byte{splitterconst.VersionKey}, &VersionInfo{
		Name:    common.ContractName,
		Version: common.Version,
	})
	if err != nil {
		return Config{}, Response{}, fmt.Errorf("save version: %w", err)
	}

	return cfg, Response{
		Notifications: []state.NotificationEvent{
			notification(env, splitterconst.InitializeEvent,
				hashItem(caller), hashItem(approved)),
		},
	}, nil
}

// Configuration returns ledger configuration. Returns ErrNotFound if the
// ledger has not been initialized.
func (c *Contract) Configuration(st common.Storage) (Config, error) {
	var cfg Config

	ok, err := common.GetSerialized(st, []byte{splitterconst.ConfigKey}, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read configuration: %w", err)
	}
	if !ok {
		return Config{}, ErrNotFound
	}

	return cfg, nil
}

// Version returns contract name and version recorded at initialization.
// Returns ErrNotFound if the ledger has not been initialized.
func (c *Contract) Version(st common.Storage) (VersionInfo, error) {
	var v VersionInfo

	ok, err := common.GetSerialized(st, []byte{splitterconst.VersionKey}, &v)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("read version: %w", err)
	}
	if !ok {
		return VersionInfo{}, ErrNotFound
	}

	return v, nil
}

// BalanceOf returns withdrawable balance of the recipient. Recipients never
// credited have zero balance.
func (c *Contract) BalanceOf(st common.Storage, recipient identity.Identity) (*big.Int, error) {
	return getBalance(st, recipient)
}

// CreditSplit takes a deposit from the source and credits each recipient with
// a half of it. Odd unit of the amount is not credited to anyone. Recipients
// may be the same, then it receives both halves.
//
// It produces Credit notification for each recipient followed by SendCoins
// notification. The response carries the transfer-in instruction.
func (c *Contract) CreditSplit(st common.Storage, env Env, prm CreditSplitPrm) (CreditSplitResult, error) {
	var res CreditSplitResult

	err := checkAmount(prm.Amount)
	if err != nil {
		return res, err
	}

	r1, err := c.validator.Validate(prm.Recipient1)
	if err != nil {
		return res, fmt.Errorf("recipient1: %w", err)
	}

	r2, err := c.validator.Validate(prm.Recipient2)
	if err != nil {
		return res, fmt.Errorf("recipient2: %w", err)
	}

	asset, err := c.approvedAsset(st, prm.Asset)
	if err != nil {
		return res, err
	}

	ins, err := c.transferer.Transfer(prm.Source, env.Contract, asset, prm.Amount,
		common.DepositTransferDetails(r1.ScriptHash().BytesBE(), r2.ScriptHash().BytesBE()))
	if err != nil {
		return res, fmt.Errorf("transfer-in: %w", err)
	}

	split1 := new(big.Int).Quo(prm.Amount, big.NewInt(2))
	split2 := new(big.Int).Quo(prm.Amount, big.NewInt(2))

	bal1, err := getBalance(st, r1)
	if err != nil {
		return res, err
	}

	bal1, err = checkedAdd(bal1, split1)
	if err != nil {
		return res, fmt.Errorf("credit recipient1: %w", err)
	}

	var bal2 *big.Int
	if r2.Equals(r1) {
		bal2 = bal1
	} else if bal2, err = getBalance(st, r2); err != nil {
		return res, err
	}

	bal2, err = checkedAdd(bal2, split2)
	if err != nil {
		return res, fmt.Errorf("credit recipient2: %w", err)
	}

	putBalance(st, r1, bal1)
	putBalance(st, r2, bal2)

	res.Credited = [2]*big.Int{split1, split2}
	res.Instructions = []transfer.Instruction{ins}
	res.Notifications = []state.NotificationEvent{
		notification(env, splitterconst.CreditEvent, hashItem(r1), stackitem.NewBigInteger(split1)),
		notification(env, splitterconst.CreditEvent, hashItem(r2), stackitem.NewBigInteger(split2)),
		notification(env, splitterconst.SendCoinsEvent,
			hashItem(prm.Source), stackitem.NewBigInteger(prm.Amount), hashItem(r1), hashItem(r2)),
	}

	return res, nil
}

// Withdraw debits requester's balance by the amount and returns the
// transfer-out instruction. The amount must not exceed current balance,
// otherwise ErrWithdrawAmountExceedsBalance is returned before any transfer
// is requested.
//
// It produces WithdrawCoins notification.
func (c *Contract) Withdraw(st common.Storage, env Env, prm WithdrawPrm) (Response, error) {
	err := checkAmount(prm.Amount)
	if err != nil {
		return Response{}, err
	}

	asset, err := c.approvedAsset(st, prm.Asset)
	if err != nil {
		return Response{}, err
	}

	bal, err := getBalance(st, prm.Requester)
	if err != nil {
		return Response{}, err
	}

	if bal.Cmp(prm.Amount) < 0 {
		return Response{}, fmt.Errorf("%w: requested %s, available %s", ErrWithdrawAmountExceedsBalance, prm.Amount, bal)
	}

	ins, err := c.transferer.Transfer(env.Contract, prm.Requester, asset, prm.Amount, common.WithdrawTransferDetails())
	if err != nil {
		return Response{}, fmt.Errorf("transfer-out: %w", err)
	}

	bal, err = checkedSub(bal, prm.Amount)
	if err != nil {
		return Response{}, fmt.Errorf("debit requester: %w", err)
	}

	putBalance(st, prm.Requester, bal)

	return Response{
		Notifications: []state.NotificationEvent{
			notification(env, splitterconst.WithdrawCoinsEvent,
				hashItem(prm.Requester), stackitem.NewBigInteger(prm.Amount)),
		},
		Instructions: []transfer.Instruction{ins},
	}, nil
}

// approvedAsset validates the asset and compares it with configured one.
func (c *Contract) approvedAsset(st common.Storage, s string) (identity.Identity, error) {
	asset, err := c.validator.Validate(s)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("asset: %w", err)
	}

	cfg, err := c.Configuration(st)
	if err != nil {
		return identity.Identity{}, err
	}

	if c.checkAsset && !asset.Equals(cfg.ApprovedAsset) {
		return identity.Identity{}, fmt.Errorf("%w: %s, expected %s", ErrUnapprovedAsset, asset, cfg.ApprovedAsset)
	}

	return asset, nil
}

func checkAmount(amount *big.Int) error {
	switch {
	case amount == nil:
		return fmt.Errorf("%w: missing", ErrInvalidAmount)
	case amount.Sign() < 0:
		return fmt.Errorf("%w: negative %s", ErrInvalidAmount, amount)
	case amount.BitLen() > splitterconst.MaxAmountBits:
		return fmt.Errorf("%w: %s does not fit into %d bits", ErrInvalidAmount, amount, splitterconst.MaxAmountBits)
	}

	return nil
}

func checkedAdd(a, b *big.Int) (*big.Int, error) {
	res := new(big.Int).Add(a, b)
	if res.BitLen() > splitterconst.MaxAmountBits {
		return nil, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}

	return res, nil
}

func checkedSub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, fmt.Errorf("%w: %s - %s", ErrUnderflow, a, b)
	}

	return new(big.Int).Sub(a, b), nil
}

func balanceKey(recipient identity.Identity) []byte {
	return append([]byte{splitterconst.BalancePrefix}, recipient.ScriptHash().BytesBE()...)
}

func getBalance(st common.Storage, recipient identity.Identity) (*big.Int, error) {
	data, err := st.Get(balanceKey(recipient))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("read balance of %s: %w", recipient, err)
	}

	return bigint.FromBytes(data), nil
}

func putBalance(st common.Storage, recipient identity.Identity, amount *big.Int) {
	data := bigint.ToBytes(amount)
	if len(data) == 0 {
		// nil and empty values mean deletion for some stores
		data = []byte{0}
	}

	st.Put(balanceKey(recipient), data)
}

func hashItem(id identity.Identity) stackitem.Item {
	return stackitem.NewByteArray(id.ScriptHash().BytesBE())
}

func notification(env Env, name string, params ...stackitem.Item) state.NotificationEvent {
	return state.NotificationEvent{
		ScriptHash: env.Contract.ScriptHash(),
		Name:       name,
		Item:       stackitem.NewArray(params),
	}
}
