package verify

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/l2proof/prooftest"
)

var (
	target  = common.HexToAddress("0x1234000000000000000000000000000000005678")
	slotKey = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000aa")
)

func TestBundleVerifies(t *testing.T) {
	bundle := prooftest.RecordBundle(target, slotKey, []byte("hello-world"))
	value, err := Bundle(bundle)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello-world"), value)
}

func TestBundleRejectsBadSiblingPath(t *testing.T) {
	bundle := prooftest.RecordBundle(target, slotKey, []byte("hello-world"))
	bundle.StateRootProof.Siblings[0][0] ^= 0xff
	_, err := Bundle(bundle)
	assert.ErrorIs(t, err, ErrBadSiblingPath)
}

func TestBundleRejectsTamperedValue(t *testing.T) {
	bundle := prooftest.RecordBundle(target, slotKey, []byte("hello-world"))
	tampered := prooftest.RecordBundle(target, slotKey, []byte("HELLO-WORLD"))
	bundle.StorageProofs[0].Value = tampered.StorageProofs[0].Value
	_, err := Bundle(bundle)
	assert.ErrorIs(t, err, ErrValueMismatch)
}

func TestBundleRejectsWrongTarget(t *testing.T) {
	bundle := prooftest.RecordBundle(target, slotKey, []byte("hello-world"))
	bundle.Target = common.HexToAddress("0xffff000000000000000000000000000000000000")
	_, err := Bundle(bundle)
	assert.ErrorIs(t, err, ErrBadAccountProof)
}

func TestBundleRejectsWrongSlotKey(t *testing.T) {
	bundle := prooftest.RecordBundle(target, slotKey, []byte("hello-world"))
	bundle.StorageProofs[0].Key = common.HexToHash("0xbb")
	_, err := Bundle(bundle)
	assert.ErrorIs(t, err, ErrBadStorageProof)
}

func TestBundleRejectsEmpty(t *testing.T) {
	bundle := prooftest.RecordBundle(target, slotKey, []byte("hello-world"))
	bundle.StorageProofs = nil
	_, err := Bundle(bundle)
	assert.ErrorIs(t, err, ErrNoStorageProofs)
}

// A proven slot word claiming a 2^64-1 byte long value must come back as an
// error, not blow up in reassembly.
func TestBundleRejectsHostileLengthWord(t *testing.T) {
	var hostile common.Hash
	for i := range hostile {
		hostile[i] = 0xff
	}
	bundle := prooftest.WordBundle(target, slotKey, hostile)
	_, err := Bundle(bundle)
	assert.ErrorIs(t, err, ErrTruncatedRecord)
}

func TestStorageRoot(t *testing.T) {
	bundle := prooftest.RecordBundle(target, slotKey, []byte("hello-world"))
	root, err := StorageRoot(bundle)
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, root)

	// Every storage entry verifies against that root individually.
	for _, entry := range bundle.StorageProofs {
		assert.NoError(t, StorageEntry(root, entry))
	}
}
