// Package config loads the gateway spec file: the two RPC endpoints and the
// on-chain addresses the proof pipeline talks to.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	yaml "gopkg.in/yaml.v2"
)

// GatewaySpec is the on-disk configuration. JSON and YAML are accepted,
// decided by file extension.
type GatewaySpec struct {
	L1RPC             string `json:"l1Rpc" yaml:"l1Rpc"`
	L2RPC             string `json:"l2Rpc" yaml:"l2Rpc"`
	CommitmentChain   string `json:"commitmentChain" yaml:"commitmentChain"`
	Resolver          string `json:"resolver" yaml:"resolver"`
	RecordBaseSlot    uint8  `json:"recordBaseSlot" yaml:"recordBaseSlot"`
	ListenAddr        string `json:"listenAddr" yaml:"listenAddr"`
	RequestTimeoutSec int    `json:"requestTimeoutSec" yaml:"requestTimeoutSec"`
}

// ReadSpec loads and validates a gateway spec file.
func ReadSpec(path string) (*GatewaySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	spec := &GatewaySpec{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, spec)
	default:
		err = json.Unmarshal(data, spec)
	}
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s *GatewaySpec) Validate() error {
	if s.L1RPC == "" || s.L2RPC == "" {
		return fmt.Errorf("config: l1Rpc and l2Rpc are required")
	}
	if !common.IsHexAddress(s.CommitmentChain) {
		return fmt.Errorf("config: commitmentChain %q is not an address", s.CommitmentChain)
	}
	if s.Resolver != "" && !common.IsHexAddress(s.Resolver) {
		return fmt.Errorf("config: resolver %q is not an address", s.Resolver)
	}
	return nil
}

// CommitmentChainAddress returns the parsed commitment chain address.
func (s *GatewaySpec) CommitmentChainAddress() common.Address {
	return common.HexToAddress(s.CommitmentChain)
}

// ResolverAddress returns the parsed default resolver address.
func (s *GatewaySpec) ResolverAddress() common.Address {
	return common.HexToAddress(s.Resolver)
}
