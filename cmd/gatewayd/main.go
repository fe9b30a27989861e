// gatewayd runs the proof gateway HTTP daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/colorfulnotion/l2proof/client"
	"github.com/colorfulnotion/l2proof/config"
	"github.com/colorfulnotion/l2proof/gateway"
	"github.com/colorfulnotion/l2proof/rollup"
	"github.com/colorfulnotion/l2proof/server"
	"github.com/colorfulnotion/l2proof/trieproof"
)

func main() {
	var (
		specPath string
		listen   string
		verbose  bool
	)

	rootCmd := &cobra.Command{
		Use:   "gatewayd",
		Short: "L2 record proof gateway daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := log.LevelInfo
			if verbose {
				level = log.LevelDebug
			}
			log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, true)))

			spec, err := config.ReadSpec(specPath)
			if err != nil {
				return err
			}
			addr := spec.ListenAddr
			if listen != "" {
				addr = listen
			}
			if addr == "" {
				addr = ":8089"
			}

			dialCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			gc, err := client.Dial(dialCtx, spec.L1RPC, spec.L2RPC)
			cancel()
			if err != nil {
				return err
			}
			defer gc.Close()

			commitments, err := rollup.NewCommitmentChain(gc, spec.CommitmentChainAddress())
			if err != nil {
				return err
			}
			assembler := gateway.NewAssembler(rollup.NewStateRootLocator(commitments), trieproof.NewFetcher(gc))
			srv := server.New(assembler, spec.ResolverAddress(), spec.RecordBaseSlot,
				time.Duration(spec.RequestTimeoutSec)*time.Second)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(addr) }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case s := <-sig:
				log.Info("shutting down", "signal", s)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&specPath, "config", "gateway.json", "gateway spec file (json or yaml)")
	rootCmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides the spec)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
