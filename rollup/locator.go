// Package rollup locates L2 state roots inside the L1 state commitment chain.
package rollup

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/colorfulnotion/l2proof/prooferrors"
	"github.com/colorfulnotion/l2proof/types"
)

// CommitmentReader is the read-only view of the L1 commitment structure. The
// production implementation calls the commitment chain contract; tests swap in
// canned batches.
type CommitmentReader interface {
	// TotalBatches returns the number of state batches committed so far.
	TotalBatches(ctx context.Context) (uint64, error)
	// BatchHeader returns the header of the given batch together with its
	// state roots in submission order.
	BatchHeader(ctx context.Context, batchIndex uint64) (types.StateBatchHeader, []common.Hash, error)
}

// StateRootLocator resolves the most recently committed, finalized L2 state
// root and the L2 block number that produced it.
type StateRootLocator struct {
	reader CommitmentReader
	logger log.Logger
}

func NewStateRootLocator(reader CommitmentReader) *StateRootLocator {
	return &StateRootLocator{
		reader: reader,
		logger: log.New("module", "rollup"),
	}
}

// ProducingBlockNumber maps a root's position in the commitment structure to
// the L2 block that produced it. Element numbering starts before the batch's
// own roots, and element 0 is the genesis block, hence the +1.
func ProducingBlockNumber(prevTotalElements, indexWithinBatch uint64) uint64 {
	return prevTotalElements + indexWithinBatch + 1
}

// LocateLatestStateRoot reads the newest committed batch and returns its first
// state root entry. Fails with StateRootNotFound when nothing has been
// committed yet or the batch carries no roots.
func (l *StateRootLocator) LocateLatestStateRoot(ctx context.Context) (*types.RollupStateRoot, error) {
	total, err := l.reader.TotalBatches(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, prooferrors.ErrStateRootNotFound
	}
	batchIndex := total - 1
	header, roots, err := l.reader.BatchHeader(ctx, batchIndex)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, prooferrors.ErrStateRootNotFound
	}

	const indexWithinBatch = 0
	blockNumber := ProducingBlockNumber(header.PrevTotalElements.Uint64(), indexWithinBatch)
	l.logger.Debug("located state root", "batch", batchIndex, "index", indexWithinBatch,
		"root", roots[indexWithinBatch], "l2Block", blockNumber)

	return &types.RollupStateRoot{
		Value:            roots[indexWithinBatch],
		BatchIndex:       batchIndex,
		IndexWithinBatch: indexWithinBatch,
		Header:           header,
		BatchRoots:       roots,
		BlockNumber:      blockNumber,
	}, nil
}
