package rollup

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/l2proof/prooferrors"
	"github.com/colorfulnotion/l2proof/types"
)

type fakeReader struct {
	total  uint64
	header types.StateBatchHeader
	roots  []common.Hash

	err        error
	gotBatch   uint64
	batchCalls int
}

func (f *fakeReader) TotalBatches(ctx context.Context) (uint64, error) {
	return f.total, f.err
}

func (f *fakeReader) BatchHeader(ctx context.Context, batchIndex uint64) (types.StateBatchHeader, []common.Hash, error) {
	f.gotBatch = batchIndex
	f.batchCalls++
	return f.header, f.roots, f.err
}

func TestProducingBlockNumber(t *testing.T) {
	assert.Equal(t, uint64(1006), ProducingBlockNumber(1000, 5))
	assert.Equal(t, uint64(1), ProducingBlockNumber(0, 0))
}

func TestLocateLatestStateRoot(t *testing.T) {
	roots := []common.Hash{
		crypto.Keccak256Hash([]byte("root0")),
		crypto.Keccak256Hash([]byte("root1")),
	}
	reader := &fakeReader{
		total: 12,
		header: types.StateBatchHeader{
			BatchIndex:        big.NewInt(11),
			BatchRoot:         crypto.Keccak256Hash([]byte("batch")),
			BatchSize:         big.NewInt(2),
			PrevTotalElements: big.NewInt(1000),
		},
		roots: roots,
	}

	located, err := NewStateRootLocator(reader).LocateLatestStateRoot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(11), reader.gotBatch, "must read the newest batch")
	assert.Equal(t, uint64(11), located.BatchIndex)
	assert.Equal(t, uint64(0), located.IndexWithinBatch)
	assert.Equal(t, roots[0], located.Value)
	assert.Equal(t, roots, located.BatchRoots)
	assert.Equal(t, uint64(1001), located.BlockNumber)
}

func TestLocateNoBatches(t *testing.T) {
	_, err := NewStateRootLocator(&fakeReader{total: 0}).LocateLatestStateRoot(context.Background())
	assert.ErrorIs(t, err, prooferrors.ErrStateRootNotFound)
}

func TestLocateEmptyBatch(t *testing.T) {
	reader := &fakeReader{total: 1, header: types.StateBatchHeader{PrevTotalElements: big.NewInt(0)}}
	_, err := NewStateRootLocator(reader).LocateLatestStateRoot(context.Background())
	assert.ErrorIs(t, err, prooferrors.ErrStateRootNotFound)
}

func TestLocateReaderError(t *testing.T) {
	boom := errors.New("rpc down")
	_, err := NewStateRootLocator(&fakeReader{err: boom}).LocateLatestStateRoot(context.Background())
	assert.ErrorIs(t, err, boom)
}
