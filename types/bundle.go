package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// StateRootProof proves the position of one state root inside its batch's
// merkle tree: the leaf index plus the sibling hashes bottom-up.
type StateRootProof struct {
	Index    uint64        `json:"index"`
	Siblings []common.Hash `json:"siblings"`
}

// StorageSlotProof is the inclusion proof for a single storage slot. Value is
// the raw 32-byte slot word. Proof holds the trie nodes leaf-last, and
// StorageTrieWitness is the same node list RLP-encoded the way the on-chain
// verifier's decoder expects it.
type StorageSlotProof struct {
	Key                common.Hash     `json:"key"`
	Value              hexutil.Bytes   `json:"value"`
	Proof              []hexutil.Bytes `json:"proof"`
	StorageTrieWitness hexutil.Bytes   `json:"storageTrieWitness"`
}

// ProofBundle is the final artifact consumed by the on-chain verifier. Field
// names and witness encodings are part of the external contract; do not
// reorder or rename. StorageProofs are ordered primary slot first, then
// continuation slots by ascending sequence index.
type ProofBundle struct {
	Target               common.Address     `json:"target"`
	StateRoot            common.Hash        `json:"stateRoot"`
	StateRootBatchHeader StateBatchHeader   `json:"stateRootBatchHeader"`
	StateRootProof       StateRootProof     `json:"stateRootProof"`
	StateTrieWitness     hexutil.Bytes      `json:"stateTrieWitness"`
	StorageProofs        []StorageSlotProof `json:"storageProofs"`
}

// EncodeWitness packs an ordered trie node list into the single RLP byte
// string the verifier decodes.
func EncodeWitness(nodes []hexutil.Bytes) (hexutil.Bytes, error) {
	raw := make([][]byte, len(nodes))
	for i, n := range nodes {
		raw[i] = n
	}
	return rlp.EncodeToBytes(raw)
}

// DecodeWitness is the inverse of EncodeWitness.
func DecodeWitness(witness hexutil.Bytes) ([]hexutil.Bytes, error) {
	var raw [][]byte
	if err := rlp.DecodeBytes(witness, &raw); err != nil {
		return nil, err
	}
	nodes := make([]hexutil.Bytes, len(raw))
	for i, n := range raw {
		nodes[i] = n
	}
	return nodes, nil
}
