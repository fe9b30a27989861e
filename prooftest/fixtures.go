// Package prooftest builds small, fully verifiable proof fixtures for tests:
// one-leaf account and storage tries plus a consistent batch tree, so bundle
// verification can run end to end without a node.
package prooftest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/colorfulnotion/l2proof/merkle"
	"github.com/colorfulnotion/l2proof/slots"
	l2types "github.com/colorfulnotion/l2proof/types"
)

// LeafNode encodes a single terminating merkle-patricia leaf for a 32-byte
// trie path and returns (node, nodeHash). The hex-prefix flag for an
// even-length terminating path is 0x20.
func LeafNode(path common.Hash, value []byte) ([]byte, common.Hash) {
	compact := append([]byte{0x20}, path.Bytes()...)
	node, err := rlp.EncodeToBytes([]interface{}{compact, value})
	if err != nil {
		panic(err)
	}
	return node, crypto.Keccak256Hash(node)
}

// StorageLeaf builds the one-leaf storage trie holding word at slotKey and
// returns the proof node and the storage root.
func StorageLeaf(slotKey, word common.Hash) ([]byte, common.Hash) {
	stored, err := rlp.EncodeToBytes(new(big.Int).SetBytes(word.Bytes()).Bytes())
	if err != nil {
		panic(err)
	}
	return LeafNode(crypto.Keccak256Hash(slotKey.Bytes()), stored)
}

// AccountLeaf builds the one-leaf account trie for target with the given
// storage root and returns the proof node and the state root.
func AccountLeaf(target common.Address, storageRoot common.Hash) ([]byte, common.Hash) {
	account := types.StateAccount{
		Nonce:    1,
		Balance:  uint256.NewInt(0),
		Root:     storageRoot,
		CodeHash: crypto.Keccak256(nil),
	}
	encoded, err := rlp.EncodeToBytes(&account)
	if err != nil {
		panic(err)
	}
	return LeafNode(crypto.Keccak256Hash(target.Bytes()), encoded)
}

func mustWitness(nodes ...[]byte) ([]hexutil.Bytes, hexutil.Bytes) {
	list := make([]hexutil.Bytes, len(nodes))
	for i, n := range nodes {
		list[i] = n
	}
	witness, err := l2types.EncodeWitness(list)
	if err != nil {
		panic(err)
	}
	return list, witness
}

// RecordBundle assembles a complete, locally verifiable ProofBundle for a
// short-form record value stored at slotKey in target's storage. The batch
// carries the state root plus one filler root.
func RecordBundle(target common.Address, slotKey common.Hash, value []byte) *l2types.ProofBundle {
	word, continuation := slots.EncodeValue(value)
	if continuation != nil {
		panic("prooftest: RecordBundle only supports short-form values")
	}
	return WordBundle(target, slotKey, word)
}

// WordBundle is RecordBundle with the raw slot word supplied directly, so
// tests can put arbitrary words behind a valid storage witness.
func WordBundle(target common.Address, slotKey, word common.Hash) *l2types.ProofBundle {
	storageNode, storageRoot := StorageLeaf(slotKey, word)
	accountNode, stateRoot := AccountLeaf(target, storageRoot)

	leaves := []common.Hash{stateRoot, crypto.Keccak256Hash([]byte("filler"))}
	batchRoot := merkle.ComputeRoot(leaves)
	siblings, err := merkle.BuildSiblingPath(leaves, 0)
	if err != nil {
		panic(err)
	}

	storageProof, storageWitness := mustWitness(storageNode)
	_, stateWitness := mustWitness(accountNode)

	return &l2types.ProofBundle{
		Target:    target,
		StateRoot: stateRoot,
		StateRootBatchHeader: l2types.StateBatchHeader{
			BatchIndex:        big.NewInt(7),
			BatchRoot:         batchRoot,
			BatchSize:         big.NewInt(int64(len(leaves))),
			PrevTotalElements: big.NewInt(1000),
		},
		StateRootProof: l2types.StateRootProof{Index: 0, Siblings: siblings},
		StateTrieWitness: stateWitness,
		StorageProofs: []l2types.StorageSlotProof{{
			Key:                slotKey,
			Value:              word.Bytes(),
			Proof:              storageProof,
			StorageTrieWitness: storageWitness,
		}},
	}
}
