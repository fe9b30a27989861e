package slots

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// EncodeValue produces the slot words the contract's storage layout would hold
// for a value: the primary word plus the continuation words (nil for short
// values). The inverse of classification + reassembly; used to build fixtures
// and to cross-check fetched proofs.
func EncodeValue(data []byte) (primary common.Hash, continuation []common.Hash) {
	if len(data) == 0 {
		return common.Hash{}, nil
	}
	if len(data) <= MaxShortLen {
		copy(primary[:], data)
		primary[WordSize-1] = byte(len(data) * 2)
		return primary, nil
	}
	// Long form: primary holds length*2+1, data is chunked into full words
	// with the tail left-packed in the last word.
	n := uint64(len(data))*2 + 1
	for i := 0; i < 8; i++ {
		primary[WordSize-1-i] = byte(n >> (8 * i))
	}
	count := ContinuationSlotCount(uint64(len(data)))
	continuation = make([]common.Hash, count)
	for i := 0; i < count; i++ {
		copy(continuation[i][:], data[i*WordSize:])
	}
	return primary, continuation
}

// ReassembleValue rebuilds the record bytes from the primary word and the
// continuation words, in slot order. It is strict about word counts so a
// verifier never reassembles a truncated long value.
func ReassembleValue(primary common.Hash, continuation []common.Hash) ([]byte, error) {
	kind, length := ClassifyValue(primary)
	switch kind {
	case ValueAbsent:
		if len(continuation) != 0 {
			return nil, fmt.Errorf("absent value with %d continuation words", len(continuation))
		}
		return nil, nil
	case ValueShort:
		if len(continuation) != 0 {
			return nil, fmt.Errorf("short value with %d continuation words", len(continuation))
		}
		if length > MaxShortLen {
			return nil, fmt.Errorf("short value length %d exceeds %d", length, MaxShortLen)
		}
		out := make([]byte, length)
		copy(out, primary[:length])
		return out, nil
	}
	if length > MaxLongLen {
		return nil, fmt.Errorf("long value length %d exceeds %d", length, MaxLongLen)
	}
	want := ContinuationSlotCount(length)
	if len(continuation) != want {
		return nil, fmt.Errorf("long value of %d bytes needs %d continuation words, have %d", length, want, len(continuation))
	}
	out := make([]byte, want*WordSize)
	for i, w := range continuation {
		copy(out[i*WordSize:], w[:])
	}
	return out[:length], nil
}
