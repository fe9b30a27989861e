package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SlotKind tags a physical storage slot by its role in a record value.
type SlotKind uint8

const (
	SlotPrimary SlotKind = iota
	SlotContinuation
)

func (k SlotKind) String() string {
	switch k {
	case SlotPrimary:
		return "primary"
	case SlotContinuation:
		return "continuation"
	}
	return fmt.Sprintf("slotkind(%d)", uint8(k))
}

// RecordLocator names one logical record: the resolver contract holding it, the
// 32-byte node it belongs to, the record key string, and the base slot index of
// the contract's record mapping. Constructed per request, never mutated.
type RecordLocator struct {
	Contract  common.Address
	Node      common.Hash
	RecordKey string
	BaseSlot  uint8
}

func (l RecordLocator) String() string {
	return fmt.Sprintf("%s/%s/%s[slot %d]", l.Contract.Hex(), l.Node.Hex(), l.RecordKey, l.BaseSlot)
}

// PhysicalSlot is one storage slot a record occupies. Sequence is 0 for the
// primary slot and the 0-based continuation index for continuation slots.
type PhysicalSlot struct {
	Key      common.Hash
	Kind     SlotKind
	Sequence int
}

// StateBatchHeader mirrors the batch header recorded by the L1 state
// commitment chain when a batch of L2 state roots is appended.
type StateBatchHeader struct {
	BatchIndex        *big.Int      `json:"batchIndex"`
	BatchRoot         common.Hash   `json:"batchRoot"`
	BatchSize         *big.Int      `json:"batchSize"`
	PrevTotalElements *big.Int      `json:"prevTotalElements"`
	ExtraData         hexutil.Bytes `json:"extraData"`
}

// RollupStateRoot is one L2 state root located inside the L1 commitment
// structure, together with everything needed to prove its position and to pin
// the L2 block it was produced by. Resolved once per proof request.
type RollupStateRoot struct {
	Value            common.Hash
	BatchIndex       uint64
	IndexWithinBatch uint64
	Header           StateBatchHeader
	// BatchRoots holds every state root of the batch in submission order;
	// they are the leaves of the batch's merkle tree.
	BatchRoots []common.Hash
	// BlockNumber is the L2 block that produced Value
	// (prevTotalElements + indexWithinBatch + 1).
	BlockNumber uint64
}
