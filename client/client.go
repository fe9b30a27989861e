// Package client dials the two JSON-RPC endpoints the gateway depends on: the
// L1 node carrying the state commitment chain and the L2 node serving trie
// proofs. It is the production implementation behind the rollup and trieproof
// capability interfaces.
package client

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/colorfulnotion/l2proof/trieproof"
)

type GatewayClient struct {
	l1     *rpc.Client
	l2     *rpc.Client
	logger log.Logger
}

// Dial connects both endpoints. Any scheme the go-ethereum RPC client
// supports works (http, ws, ipc).
func Dial(ctx context.Context, l1URL, l2URL string) (*GatewayClient, error) {
	l1, err := rpc.DialContext(ctx, l1URL)
	if err != nil {
		return nil, err
	}
	l2, err := rpc.DialContext(ctx, l2URL)
	if err != nil {
		l1.Close()
		return nil, err
	}
	return &GatewayClient{
		l1:     l1,
		l2:     l2,
		logger: log.New("module", "client"),
	}, nil
}

func (c *GatewayClient) Close() {
	c.l1.Close()
	c.l2.Close()
}

type callArgs struct {
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

// CallContract performs a read-only eth_call against L1 at the latest block.
// The commitment chain is append-only, so latest is always safe here.
func (c *GatewayClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var result hexutil.Bytes
	err := c.l1.CallContext(ctx, &result, "eth_call", callArgs{To: &to, Data: data}, "latest")
	if err != nil {
		c.logger.Debug("eth_call failed", "to", to, "err", err)
		return nil, err
	}
	return result, nil
}

// GetProof issues eth_getProof against L2 at the exact pinned block number.
func (c *GatewayClient) GetProof(ctx context.Context, account common.Address, keys []common.Hash, blockNumber uint64) (*trieproof.AccountResult, error) {
	slotKeys := make([]string, len(keys))
	for i, k := range keys {
		slotKeys[i] = k.Hex()
	}
	var result trieproof.AccountResult
	err := c.l2.CallContext(ctx, &result, "eth_getProof", account, slotKeys, hexutil.EncodeUint64(blockNumber))
	if err != nil {
		c.logger.Debug("eth_getProof failed", "account", account, "block", blockNumber, "err", err)
		return nil, err
	}
	return &result, nil
}
