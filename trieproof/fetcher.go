// Package trieproof retrieves account and storage trie witnesses from the L2
// node at a pinned block and expands long-form record values into proofs for
// every continuation slot.
package trieproof

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	"github.com/colorfulnotion/l2proof/prooferrors"
	"github.com/colorfulnotion/l2proof/slots"
	"github.com/colorfulnotion/l2proof/types"
)

// AccountResult is the eth_getProof response shape.
type AccountResult struct {
	Address      common.Address  `json:"address"`
	AccountProof []hexutil.Bytes `json:"accountProof"`
	Balance      *hexutil.Big    `json:"balance"`
	CodeHash     common.Hash     `json:"codeHash"`
	Nonce        hexutil.Uint64  `json:"nonce"`
	StorageHash  common.Hash     `json:"storageHash"`
	StorageProof []StorageResult `json:"storageProof"`
}

// StorageResult is one per-slot entry of an eth_getProof response. Key is
// kept as a string because nodes echo it back in varying widths; parse it
// leniently.
type StorageResult struct {
	Key   string          `json:"key"`
	Value *hexutil.Big    `json:"value"`
	Proof []hexutil.Bytes `json:"proof"`
}

// KeyHash parses the echoed slot key into a 32-byte word.
func (s *StorageResult) KeyHash() (common.Hash, error) {
	k, ok := new(big.Int).SetString(s.Key, 0)
	if !ok {
		return common.Hash{}, fmt.Errorf("malformed storage key %q", s.Key)
	}
	return common.BigToHash(k), nil
}

// Word returns the slot value as a full 32-byte storage word.
func (s *StorageResult) Word() common.Hash {
	if s.Value == nil {
		return common.Hash{}
	}
	return common.BigToHash(s.Value.ToInt())
}

// ProofClient issues the state-proof query. blockNumber must be the exact
// pinned block, never a symbolic tag.
type ProofClient interface {
	GetProof(ctx context.Context, account common.Address, keys []common.Hash, blockNumber uint64) (*AccountResult, error)
}

// RecordProof is everything fetched for one record: the account witness, the
// account's storage root, the value classification, and the per-slot proofs
// ordered primary first, continuations ascending.
type RecordProof struct {
	AccountProof []hexutil.Bytes
	StorageHash  common.Hash
	Kind         slots.ValueKind
	Length       uint64
	Slots        []types.StorageSlotProof
}

// Fetcher wraps a ProofClient with the classification-driven fetch flow.
type Fetcher struct {
	client ProofClient
	logger log.Logger
}

func NewFetcher(client ProofClient) *Fetcher {
	return &Fetcher{client: client, logger: log.New("module", "trieproof")}
}

func toSlotProof(res StorageResult) (types.StorageSlotProof, error) {
	key, err := res.KeyHash()
	if err != nil {
		return types.StorageSlotProof{}, prooferrors.QueryFailed(err)
	}
	witness, err := types.EncodeWitness(res.Proof)
	if err != nil {
		return types.StorageSlotProof{}, prooferrors.QueryFailed(err)
	}
	word := res.Word()
	return types.StorageSlotProof{
		Key:                key,
		Value:              word.Bytes(),
		Proof:              res.Proof,
		StorageTrieWitness: witness,
	}, nil
}

// FetchRecordProof proves the primary slot of a record at blockNumber,
// classifies the stored value, and for the long form proves every
// continuation slot in [0, ceil(length/32)) with a second query.
func (f *Fetcher) FetchRecordProof(ctx context.Context, contract common.Address, primarySlot common.Hash, blockNumber uint64) (*RecordProof, error) {
	res, err := f.client.GetProof(ctx, contract, []common.Hash{primarySlot}, blockNumber)
	if err != nil {
		return nil, prooferrors.QueryFailed(err)
	}
	if len(res.StorageProof) != 1 {
		return nil, prooferrors.QueryFailed(fmt.Errorf("expected 1 storage proof, got %d", len(res.StorageProof)))
	}

	word := res.StorageProof[0].Word()
	kind, length := slots.ClassifyValue(word)
	if kind == slots.ValueAbsent {
		return nil, prooferrors.ErrEmptySlotUnsupported
	}
	if kind == slots.ValueLong && length > slots.MaxLongLen {
		return nil, prooferrors.QueryFailed(fmt.Errorf("implausible long value length %d in slot %s", length, primarySlot))
	}
	f.logger.Debug("classified record value", "slot", primarySlot, "kind", kind, "length", length)

	primary, err := toSlotProof(res.StorageProof[0])
	if err != nil {
		return nil, err
	}
	if primary.Key != primarySlot {
		return nil, prooferrors.QueryFailed(fmt.Errorf("node echoed slot %s, requested %s", primary.Key, primarySlot))
	}
	proof := &RecordProof{
		AccountProof: res.AccountProof,
		StorageHash:  res.StorageHash,
		Kind:         kind,
		Length:       length,
		Slots:        []types.StorageSlotProof{primary},
	}
	if kind == slots.ValueShort {
		return proof, nil
	}

	keys := slots.DeriveContinuationSlots(primarySlot, length)
	cont, err := f.client.GetProof(ctx, contract, keys, blockNumber)
	if err != nil {
		return nil, prooferrors.QueryFailed(err)
	}
	if len(cont.StorageProof) != len(keys) {
		return nil, prooferrors.ErrIncompleteLongValueProof
	}
	for i, sp := range cont.StorageProof {
		entry, err := toSlotProof(sp)
		if err != nil {
			return nil, err
		}
		if entry.Key != keys[i] {
			return nil, prooferrors.ErrIncompleteLongValueProof
		}
		proof.Slots = append(proof.Slots, entry)
	}
	return proof, nil
}
