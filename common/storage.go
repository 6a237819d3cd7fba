package common

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Storage is a read-write view of the contract storage. Writes made within a
// single operation are committed or dropped together by the owner of the
// view. storage.MemCachedStore satisfies it.
type Storage interface {
	// Get returns value stored by key or storage.ErrKeyNotFound.
	Get(key []byte) ([]byte, error)
	// Put stores value by key.
	Put(key, value []byte)
}

// GetSerialized reads item by key and decodes it into v. Returns false if
// there is no item.
func GetSerialized(ctx Storage, key []byte, v stackitem.Convertible) (bool, error) {
	data, err := ctx.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read storage item: %w", err)
	}

	item, err := stackitem.Deserialize(data)
	if err != nil {
		return false, fmt.Errorf("deserialize storage item: %w", err)
	}

	err = v.FromStackItem(item)
	if err != nil {
		return false, fmt.Errorf("decode storage item: %w", err)
	}

	return true, nil
}

// SetSerialized serializes data and puts it into contract storage.
func SetSerialized(ctx Storage, key []byte, value stackitem.Convertible) error {
	item, err := value.ToStackItem()
	if err != nil {
		return fmt.Errorf("encode storage item: %w", err)
	}

	data, err := stackitem.Serialize(item)
	if err != nil {
		return fmt.Errorf("serialize storage item: %w", err)
	}

	ctx.Put(key, data)

	return nil
}
