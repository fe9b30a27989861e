// proofgen builds a single proof bundle for one record and prints it as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/colorfulnotion/l2proof/client"
	"github.com/colorfulnotion/l2proof/config"
	"github.com/colorfulnotion/l2proof/gateway"
	"github.com/colorfulnotion/l2proof/rollup"
	"github.com/colorfulnotion/l2proof/trieproof"
	"github.com/colorfulnotion/l2proof/types"
	"github.com/colorfulnotion/l2proof/verify"
)

func main() {
	var (
		specPath string
		contract string
		node     string
		key      string
		verbose  bool
		noVerify bool
	)

	rootCmd := &cobra.Command{
		Use:   "proofgen",
		Short: "Build an L2 record storage proof anchored to the L1 commitment chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := log.LevelWarn
			if verbose {
				level = log.LevelDebug
			}
			log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, true)))

			spec, err := config.ReadSpec(specPath)
			if err != nil {
				return err
			}
			target := spec.ResolverAddress()
			if contract != "" {
				if !common.IsHexAddress(contract) {
					return fmt.Errorf("--contract %q is not an address", contract)
				}
				target = common.HexToAddress(contract)
			}

			timeout := time.Duration(spec.RequestTimeoutSec) * time.Second
			if timeout == 0 {
				timeout = 30 * time.Second
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			gc, err := client.Dial(ctx, spec.L1RPC, spec.L2RPC)
			if err != nil {
				return err
			}
			defer gc.Close()

			commitments, err := rollup.NewCommitmentChain(gc, spec.CommitmentChainAddress())
			if err != nil {
				return err
			}
			assembler := gateway.NewAssembler(rollup.NewStateRootLocator(commitments), trieproof.NewFetcher(gc))

			bundle, err := assembler.AssembleProof(ctx, types.RecordLocator{
				Contract:  target,
				Node:      common.HexToHash(node),
				RecordKey: key,
				BaseSlot:  spec.RecordBaseSlot,
			})
			if err != nil {
				return err
			}
			if !noVerify {
				value, err := verify.Bundle(bundle)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "record value (%d bytes): %q\n", len(value), value)
			}

			out, err := json.MarshalIndent(bundle, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&specPath, "config", "gateway.json", "gateway spec file (json or yaml)")
	rootCmd.Flags().StringVar(&contract, "contract", "", "resolver contract address (defaults to the spec's resolver)")
	rootCmd.Flags().StringVar(&node, "node", "", "32-byte node identifier (hex)")
	rootCmd.Flags().StringVar(&key, "key", "", "record key")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")
	rootCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip local bundle verification")
	rootCmd.MarkFlagRequired("node")
	rootCmd.MarkFlagRequired("key")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
