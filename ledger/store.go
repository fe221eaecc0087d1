package ledger

import (
	"errors"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Store is a key-value storage of the ledger state. It is satisfied by
// [storage.MemCachedStore], Get must return [storage.ErrKeyNotFound] for
// missing keys.
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte)
	Delete(key []byte)
	Seek(rng storage.SeekRange, f func(k, v []byte) bool)
}

const (
	ownerKey         = "owner"
	feeKey           = "fee"
	collectedFeesKey = "collectedFees"
	reservePrefix    = "reserveForAddress"
)

func reserveKey(addr util.Uint160) []byte {
	return append([]byte(reservePrefix), addr.BytesBE()...)
}

// getInt returns stored integer or zero if key is missing.
func getInt(st Store, key []byte) (*big.Int, error) {
	v, err := st.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return new(big.Int), nil
		}
		return nil, err
	}

	return bigint.FromBytes(v), nil
}

// putInt stores non-zero integer and deletes the key for zero.
func putInt(st Store, key []byte, v *big.Int) {
	if v.Sign() == 0 {
		st.Delete(key)
		return
	}

	st.Put(key, bigint.ToBytes(v))
}
