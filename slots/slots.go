// Package slots maps a logical record locator onto the physical storage slots
// the resolver contract keeps it in, and classifies raw slot words under the
// compiler's short/long encoding for variable-length values. Pure computation,
// no I/O; every function here must stay bit-exact with the contract layout.
package slots

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/colorfulnotion/l2proof/types"
)

// ValueKind is the storage encoding of a record value read from its primary slot.
type ValueKind uint8

const (
	// ValueAbsent marks the all-zero word: no record stored.
	ValueAbsent ValueKind = iota
	// ValueShort packs the bytes and the length into the primary slot itself.
	ValueShort
	// ValueLong keeps only the length word in the primary slot; data lives in
	// continuation slots starting at keccak(primarySlot).
	ValueLong
)

func (k ValueKind) String() string {
	switch k {
	case ValueAbsent:
		return "absent"
	case ValueShort:
		return "short"
	case ValueLong:
		return "long"
	}
	return "unknown"
}

// WordSize is the storage slot width in bytes.
const WordSize = 32

// MaxShortLen is the largest value length the short form can hold.
const MaxShortLen = 31

// MaxLongLen bounds the long-form byte length this package accepts. Length
// words come back from a remote node; anything past this bound is a corrupt
// or hostile word, not a record value.
const MaxLongLen = 1 << 20

func keccak256(chunks ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	return common.BytesToHash(h.Sum(nil))
}

// DerivePrimarySlot computes the storage slot of records[node][recordKey] for
// a nested mapping rooted at baseSlot:
//
//	keccak256(bytes(recordKey) ++ keccak256(node ++ uint256(baseSlot)))
func DerivePrimarySlot(baseSlot uint8, node common.Hash, recordKey string) common.Hash {
	var slotWord [WordSize]byte
	slotWord[WordSize-1] = baseSlot
	inner := keccak256(node[:], slotWord[:])
	return keccak256([]byte(recordKey), inner[:])
}

// ClassifyValue inspects the raw word read from a primary slot and reports the
// encoding plus the value length in bytes. The all-zero word is ValueAbsent
// with length 0.
func ClassifyValue(word common.Hash) (ValueKind, uint64) {
	if word == (common.Hash{}) {
		return ValueAbsent, 0
	}
	last := word[WordSize-1]
	if last&1 == 0 {
		return ValueShort, uint64(last) / 2
	}
	n := new(uint256.Int).SetBytes(word[:])
	n.SubUint64(n, 1)
	n.Rsh(n, 1)
	return ValueLong, n.Uint64()
}

// ContinuationSlotCount is the number of continuation slots a long value of
// the given byte length occupies. The count is computed without the usual
// round-up addition so an untrusted length near the uint64 ceiling cannot
// wrap to zero slots.
func ContinuationSlotCount(length uint64) int {
	count := length / WordSize
	if length%WordSize != 0 {
		count++
	}
	return int(count)
}

// DeriveContinuationSlots enumerates the continuation slot keys of a long
// value: keccak256(primarySlot) + i for i in [0, ceil(length/32)), in order.
// Short values have no continuation slots and yield nil, as do lengths past
// MaxLongLen, which callers must reject before deriving keys.
func DeriveContinuationSlots(primarySlot common.Hash, length uint64) []common.Hash {
	if length > MaxLongLen {
		return nil
	}
	count := ContinuationSlotCount(length)
	if count == 0 {
		return nil
	}
	base := keccak256(primarySlot[:])
	key := new(uint256.Int).SetBytes(base[:])
	keys := make([]common.Hash, count)
	for i := 0; i < count; i++ {
		keys[i] = common.Hash(key.Bytes32())
		key.AddUint64(key, 1)
	}
	return keys
}

// Slots expands a primary slot key and a classified length into the full
// ordered PhysicalSlot list a proof must cover: primary first, then
// continuations by ascending sequence.
func Slots(primarySlot common.Hash, kind ValueKind, length uint64) []types.PhysicalSlot {
	out := []types.PhysicalSlot{{Key: primarySlot, Kind: types.SlotPrimary}}
	if kind != ValueLong {
		return out
	}
	for i, k := range DeriveContinuationSlots(primarySlot, length) {
		out = append(out, types.PhysicalSlot{Key: k, Kind: types.SlotContinuation, Sequence: i})
	}
	return out
}
