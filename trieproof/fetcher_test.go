package trieproof

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/l2proof/prooferrors"
	"github.com/colorfulnotion/l2proof/slots"
)

// fakeProofClient serves canned slot words keyed by slot hash and records the
// queries it saw.
type fakeProofClient struct {
	words map[common.Hash]common.Hash
	err   error

	queries [][]common.Hash
	blocks  []uint64
}

func storageResult(key, word common.Hash) StorageResult {
	return StorageResult{
		Key:   key.Hex(),
		Value: (*hexutil.Big)(new(big.Int).SetBytes(word.Bytes())),
		Proof: []hexutil.Bytes{crypto.Keccak256(key.Bytes(), word.Bytes())},
	}
}

func (f *fakeProofClient) GetProof(ctx context.Context, account common.Address, keys []common.Hash, blockNumber uint64) (*AccountResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, keys)
	f.blocks = append(f.blocks, blockNumber)

	res := &AccountResult{
		Address:      account,
		AccountProof: []hexutil.Bytes{crypto.Keccak256(account.Bytes())},
		StorageHash:  crypto.Keccak256Hash([]byte("storage root")),
	}
	for _, k := range keys {
		res.StorageProof = append(res.StorageProof, storageResult(k, f.words[k]))
	}
	return res, nil
}

var (
	testContract = common.HexToAddress("0x1234000000000000000000000000000000005678")
	testPrimary  = slots.DerivePrimarySlot(1, common.HexToHash("0xabc0"), "network.profile")
)

func TestFetchShortRecord(t *testing.T) {
	word, _ := slots.EncodeValue([]byte("1234567890"))
	client := &fakeProofClient{words: map[common.Hash]common.Hash{testPrimary: word}}

	proof, err := NewFetcher(client).FetchRecordProof(context.Background(), testContract, testPrimary, 1001)
	require.NoError(t, err)

	assert.Equal(t, slots.ValueShort, proof.Kind)
	assert.Equal(t, uint64(10), proof.Length)
	require.Len(t, proof.Slots, 1)
	assert.Equal(t, testPrimary, proof.Slots[0].Key)
	assert.Equal(t, word.Bytes(), []byte(proof.Slots[0].Value))
	assert.NotEmpty(t, proof.AccountProof)

	// Exactly one query, pinned to the resolved block.
	require.Len(t, client.queries, 1)
	assert.Equal(t, []uint64{1001}, client.blocks)
}

func TestFetchLongRecord(t *testing.T) {
	data := make([]byte, 50)
	copy(data, "fifty bytes of record value payload for the test!")
	primaryWord, contWords := slots.EncodeValue(data)
	contKeys := slots.DeriveContinuationSlots(testPrimary, 50)
	require.Len(t, contKeys, 2)

	words := map[common.Hash]common.Hash{testPrimary: primaryWord}
	for i, k := range contKeys {
		words[k] = contWords[i]
	}
	client := &fakeProofClient{words: words}

	proof, err := NewFetcher(client).FetchRecordProof(context.Background(), testContract, testPrimary, 2002)
	require.NoError(t, err)

	assert.Equal(t, slots.ValueLong, proof.Kind)
	assert.Equal(t, uint64(50), proof.Length)
	require.Len(t, proof.Slots, 3, "primary plus ceil(50/32) continuations")
	assert.Equal(t, testPrimary, proof.Slots[0].Key)
	assert.Equal(t, contKeys[0], proof.Slots[1].Key)
	assert.Equal(t, contKeys[1], proof.Slots[2].Key)

	// Two queries: primary, then all continuation slots at the same block.
	require.Len(t, client.queries, 2)
	assert.Equal(t, contKeys, client.queries[1])
	assert.Equal(t, []uint64{2002, 2002}, client.blocks)

	value, err := slots.ReassembleValue(
		common.BytesToHash(proof.Slots[0].Value),
		[]common.Hash{common.BytesToHash(proof.Slots[1].Value), common.BytesToHash(proof.Slots[2].Value)},
	)
	require.NoError(t, err)
	assert.Equal(t, data, value)
}

func TestFetchZeroSlotRejected(t *testing.T) {
	client := &fakeProofClient{words: map[common.Hash]common.Hash{}}
	_, err := NewFetcher(client).FetchRecordProof(context.Background(), testContract, testPrimary, 1001)
	assert.ErrorIs(t, err, prooferrors.ErrEmptySlotUnsupported)
}

func TestFetchQueryFailureWrapped(t *testing.T) {
	client := &fakeProofClient{err: errors.New("connection refused")}
	_, err := NewFetcher(client).FetchRecordProof(context.Background(), testContract, testPrimary, 1001)
	assert.ErrorIs(t, err, prooferrors.ErrTrieProofQueryFailed)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetchIncompleteContinuations(t *testing.T) {
	data := make([]byte, 50)
	primaryWord, contWords := slots.EncodeValue(data)
	contKeys := slots.DeriveContinuationSlots(testPrimary, 50)

	words := map[common.Hash]common.Hash{testPrimary: primaryWord}
	for i, k := range contKeys {
		words[k] = contWords[i]
	}
	truncating := &truncatingClient{inner: &fakeProofClient{words: words}}
	_, err := NewFetcher(truncating).FetchRecordProof(context.Background(), testContract, testPrimary, 1001)
	assert.ErrorIs(t, err, prooferrors.ErrIncompleteLongValueProof)
}

func TestFetchHostileLengthWordRejected(t *testing.T) {
	var hostile common.Hash
	for i := range hostile {
		hostile[i] = 0xff
	}
	client := &fakeProofClient{words: map[common.Hash]common.Hash{testPrimary: hostile}}

	_, err := NewFetcher(client).FetchRecordProof(context.Background(), testContract, testPrimary, 1001)
	assert.ErrorIs(t, err, prooferrors.ErrTrieProofQueryFailed)
	assert.Contains(t, err.Error(), "implausible")
	// Rejected before any continuation-slot query.
	assert.Len(t, client.queries, 1)
}

func TestFetchOversizedLengthWordRejected(t *testing.T) {
	// Claims a 2^40-byte value; fetching it would derive ~2^35 slot keys.
	word := common.BigToHash(new(big.Int).SetUint64(1<<41 + 1))
	client := &fakeProofClient{words: map[common.Hash]common.Hash{testPrimary: word}}

	_, err := NewFetcher(client).FetchRecordProof(context.Background(), testContract, testPrimary, 1001)
	assert.ErrorIs(t, err, prooferrors.ErrTrieProofQueryFailed)
	assert.Len(t, client.queries, 1)
}

func TestFetchMismatchedPrimaryKeyRejected(t *testing.T) {
	word, _ := slots.EncodeValue([]byte("1234567890"))
	rekeying := &rekeyingClient{inner: &fakeProofClient{words: map[common.Hash]common.Hash{testPrimary: word}}}

	_, err := NewFetcher(rekeying).FetchRecordProof(context.Background(), testContract, testPrimary, 1001)
	assert.ErrorIs(t, err, prooferrors.ErrTrieProofQueryFailed)
	assert.Contains(t, err.Error(), "echoed")
}

// rekeyingClient echoes every storage proof back under the wrong slot key.
type rekeyingClient struct {
	inner *fakeProofClient
}

func (c *rekeyingClient) GetProof(ctx context.Context, account common.Address, keys []common.Hash, blockNumber uint64) (*AccountResult, error) {
	res, err := c.inner.GetProof(ctx, account, keys, blockNumber)
	if err != nil {
		return nil, err
	}
	for i := range res.StorageProof {
		res.StorageProof[i].Key = common.HexToHash("0xdead").Hex()
	}
	return res, nil
}

// truncatingClient passes the first query through and truncates every later
// response by one entry.
type truncatingClient struct {
	inner *fakeProofClient
	calls int
}

func (c *truncatingClient) GetProof(ctx context.Context, account common.Address, keys []common.Hash, blockNumber uint64) (*AccountResult, error) {
	res, err := c.inner.GetProof(ctx, account, keys, blockNumber)
	if err != nil {
		return nil, err
	}
	c.calls++
	if c.calls > 1 {
		res.StorageProof = res.StorageProof[:len(res.StorageProof)-1]
	}
	return res, nil
}
