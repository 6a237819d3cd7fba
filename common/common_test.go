package common

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	n *big.Int
}

func (x *testItem) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewBigInteger(x.n), nil
}

func (x *testItem) FromStackItem(item stackitem.Item) error {
	n, err := item.TryInteger()
	if err != nil {
		return err
	}
	x.n = n
	return nil
}

type brokenStorage struct{}

func (brokenStorage) Get([]byte) ([]byte, error) { return nil, errors.New("disk failure") }
func (brokenStorage) Put(_, _ []byte)            {}

func TestSerialized(t *testing.T) {
	st := storage.NewMemCachedStore(storage.NewMemoryStore())
	key := []byte{'k'}

	var v testItem
	ok, err := GetSerialized(st, key, &v)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, SetSerialized(st, key, &testItem{n: big.NewInt(42)}))

	ok, err = GetSerialized(st, key, &v)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 42, v.n.Int64())

	st.Put(key, []byte("not a stack item"))
	_, err = GetSerialized(st, key, &v)
	require.Error(t, err)

	_, err = GetSerialized(brokenStorage{}, key, &v)
	require.Error(t, err)
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "0.1.0", VersionString(Version))
	require.Equal(t, "1.16.3", VersionString(1_016_003))
}

func TestTransferDetails(t *testing.T) {
	d := DepositTransferDetails([]byte{1, 2}, []byte{3})
	require.Equal(t, []byte{0x01, 1, 2, 3}, d)

	w := WithdrawTransferDetails()
	require.Equal(t, []byte{0x02}, w)
	w[0] = 0xff
	require.Equal(t, []byte{0x02}, WithdrawTransferDetails())
}
