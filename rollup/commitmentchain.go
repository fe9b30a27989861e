package rollup

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/colorfulnotion/l2proof/types"
)

// commitmentChainABI is the read surface of the L1 state commitment chain
// contract. Header fields follow the OVM batch header layout.
const commitmentChainABI = `[
  {"type":"function","stateMutability":"view","name":"getTotalBatches",
   "inputs":[],
   "outputs":[{"name":"_totalBatches","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"getStateBatchHeader",
   "inputs":[{"name":"_batchIndex","type":"uint256"}],
   "outputs":[{"name":"batchRoot","type":"bytes32"},
              {"name":"batchSize","type":"uint256"},
              {"name":"prevTotalElements","type":"uint256"},
              {"name":"extraData","type":"bytes"}]},
  {"type":"function","stateMutability":"view","name":"getBatchStateRoots",
   "inputs":[{"name":"_batchIndex","type":"uint256"}],
   "outputs":[{"name":"stateRoots","type":"bytes32[]"}]}
]`

// ContractCaller performs a read-only eth_call against L1.
type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// CommitmentChain is the CommitmentReader backed by the on-chain commitment
// structure.
type CommitmentChain struct {
	caller  ContractCaller
	address common.Address
	abi     abi.ABI
}

func NewCommitmentChain(caller ContractCaller, address common.Address) (*CommitmentChain, error) {
	parsed, err := abi.JSON(strings.NewReader(commitmentChainABI))
	if err != nil {
		return nil, err
	}
	return &CommitmentChain{caller: caller, address: address, abi: parsed}, nil
}

func (c *CommitmentChain) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	ret, err := c.caller.CallContract(ctx, c.address, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	out, err := c.abi.Unpack(method, ret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func (c *CommitmentChain) TotalBatches(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "getTotalBatches")
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (c *CommitmentChain) BatchHeader(ctx context.Context, batchIndex uint64) (header types.StateBatchHeader, roots []common.Hash, err error) {
	idx := new(big.Int).SetUint64(batchIndex)
	out, err := c.call(ctx, "getStateBatchHeader", idx)
	if err != nil {
		return header, nil, err
	}
	header = types.StateBatchHeader{
		BatchIndex:        idx,
		BatchRoot:         out[0].([32]byte),
		BatchSize:         out[1].(*big.Int),
		PrevTotalElements: out[2].(*big.Int),
		ExtraData:         out[3].([]byte),
	}

	out, err = c.call(ctx, "getBatchStateRoots", idx)
	if err != nil {
		return header, nil, err
	}
	for _, r := range out[0].([][32]byte) {
		roots = append(roots, r)
	}
	return header, roots, nil
}
