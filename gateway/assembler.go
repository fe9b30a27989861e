// Package gateway assembles self-contained proof bundles: evidence that a
// record's raw bytes sit in a specific L2 storage trie whose state root was
// committed to L1.
package gateway

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/colorfulnotion/l2proof/merkle"
	"github.com/colorfulnotion/l2proof/slots"
	"github.com/colorfulnotion/l2proof/trieproof"
	"github.com/colorfulnotion/l2proof/types"
)

// RootLocator resolves the latest committed L2 state root (network-bound).
type RootLocator interface {
	LocateLatestStateRoot(ctx context.Context) (*types.RollupStateRoot, error)
}

// ProofFetcher retrieves the record's trie proofs at a pinned block (network-bound).
type ProofFetcher interface {
	FetchRecordProof(ctx context.Context, contract common.Address, primarySlot common.Hash, blockNumber uint64) (*trieproof.RecordProof, error)
}

// Assembler orchestrates the proof-construction pipeline. Stateless between
// requests; safe for concurrent use.
type Assembler struct {
	locator RootLocator
	fetcher ProofFetcher
	logger  log.Logger
}

func NewAssembler(locator RootLocator, fetcher ProofFetcher) *Assembler {
	return &Assembler{
		locator: locator,
		fetcher: fetcher,
		logger:  log.New("module", "gateway"),
	}
}

type locateResult struct {
	root *types.RollupStateRoot
	err  error
}

// AssembleProof builds the bundle for one record. Slot derivation and the
// state-root lookup have no data dependency and run concurrently; the trie
// proof fetch waits on both. The first failing stage fails the whole request,
// and the caller's context cancels both network stages.
func (a *Assembler) AssembleProof(ctx context.Context, record types.RecordLocator) (*types.ProofBundle, error) {
	located := make(chan locateResult, 1)
	go func() {
		root, err := a.locator.LocateLatestStateRoot(ctx)
		located <- locateResult{root: root, err: err}
	}()

	primarySlot := slots.DerivePrimarySlot(record.BaseSlot, record.Node, record.RecordKey)

	res := <-located
	if res.err != nil {
		return nil, res.err
	}
	root := res.root

	proof, err := a.fetcher.FetchRecordProof(ctx, record.Contract, primarySlot, root.BlockNumber)
	if err != nil {
		return nil, err
	}

	siblings, err := merkle.BuildSiblingPath(root.BatchRoots, root.IndexWithinBatch)
	if err != nil {
		return nil, err
	}

	stateWitness, err := types.EncodeWitness(proof.AccountProof)
	if err != nil {
		return nil, err
	}

	a.logger.Info("assembled proof bundle", "record", record.String(),
		"kind", proof.Kind, "length", proof.Length,
		"slots", len(proof.Slots), "batch", root.BatchIndex, "l2Block", root.BlockNumber)

	return &types.ProofBundle{
		Target:               record.Contract,
		StateRoot:            root.Value,
		StateRootBatchHeader: root.Header,
		StateRootProof: types.StateRootProof{
			Index:    root.IndexWithinBatch,
			Siblings: siblings,
		},
		StateTrieWitness: stateWitness,
		StorageProofs:    proof.Slots,
	}, nil
}
