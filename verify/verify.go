// Package verify re-checks an assembled bundle locally: the sibling path must
// recompute the batch root, the account witness must verify against the state
// root, and every storage witness must verify against the account's storage
// root. This catches an inconsistent or lying node before a bundle leaves the
// gateway. It only re-checks inclusion proofs already fetched; proving absence
// stays out of scope.
package verify

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/colorfulnotion/l2proof/merkle"
	"github.com/colorfulnotion/l2proof/slots"
	l2types "github.com/colorfulnotion/l2proof/types"
)

var (
	ErrBadSiblingPath  = errors.New("verify: sibling path does not recompute the batch root")
	ErrBadAccountProof = errors.New("verify: account witness does not verify against the state root")
	ErrBadStorageProof = errors.New("verify: storage witness does not verify against the storage root")
	ErrValueMismatch   = errors.New("verify: proven slot value differs from the bundle value")
	ErrNoStorageProofs = errors.New("verify: bundle carries no storage proofs")
	ErrTruncatedRecord = errors.New("verify: storage proofs do not cover the full record value")
)

func witnessDB(witness hexutil.Bytes) (*memorydb.Database, error) {
	nodes, err := l2types.DecodeWitness(witness)
	if err != nil {
		return nil, err
	}
	db := memorydb.New()
	for _, node := range nodes {
		if err := db.Put(crypto.Keccak256(node), node); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// StorageRoot verifies the bundle's account witness and returns the proven
// storage trie root of the target contract.
func StorageRoot(b *l2types.ProofBundle) (common.Hash, error) {
	db, err := witnessDB(b.StateTrieWitness)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrBadAccountProof, err)
	}
	val, err := trie.VerifyProof(b.StateRoot, crypto.Keccak256(b.Target.Bytes()), db)
	if err != nil || len(val) == 0 {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrBadAccountProof, err)
	}
	var account types.StateAccount
	if err := rlp.DecodeBytes(val, &account); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrBadAccountProof, err)
	}
	return account.Root, nil
}

// StorageEntry verifies one storage slot witness against the storage root and
// checks the proven value matches the bundle's word.
func StorageEntry(storageRoot common.Hash, entry l2types.StorageSlotProof) error {
	db, err := witnessDB(entry.StorageTrieWitness)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadStorageProof, err)
	}
	val, err := trie.VerifyProof(storageRoot, crypto.Keccak256(entry.Key.Bytes()), db)
	if err != nil || len(val) == 0 {
		return fmt.Errorf("%w: slot %s: %v", ErrBadStorageProof, entry.Key, err)
	}
	var stored []byte
	if err := rlp.DecodeBytes(val, &stored); err != nil {
		return fmt.Errorf("%w: slot %s: %v", ErrBadStorageProof, entry.Key, err)
	}
	if !bytes.Equal(common.BytesToHash(stored).Bytes(), common.BytesToHash(entry.Value).Bytes()) {
		return fmt.Errorf("%w: slot %s", ErrValueMismatch, entry.Key)
	}
	return nil
}

// Bundle runs every local check and returns the reassembled record value on
// success.
func Bundle(b *l2types.ProofBundle) ([]byte, error) {
	if len(b.StorageProofs) == 0 {
		return nil, ErrNoStorageProofs
	}

	header := b.StateRootBatchHeader
	if !merkle.VerifyPath(int(header.BatchSize.Int64()), b.StateRootProof.Index,
		header.BatchRoot, b.StateRoot, b.StateRootProof.Siblings) {
		return nil, ErrBadSiblingPath
	}

	storageRoot, err := StorageRoot(b)
	if err != nil {
		return nil, err
	}
	for _, entry := range b.StorageProofs {
		if err := StorageEntry(storageRoot, entry); err != nil {
			return nil, err
		}
	}

	primary := common.BytesToHash(b.StorageProofs[0].Value)
	continuation := make([]common.Hash, 0, len(b.StorageProofs)-1)
	for _, entry := range b.StorageProofs[1:] {
		continuation = append(continuation, common.BytesToHash(entry.Value))
	}
	value, err := slots.ReassembleValue(primary, continuation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedRecord, err)
	}
	return value, nil
}
