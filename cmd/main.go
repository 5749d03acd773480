package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xmhha/subtx/internal/config"
	"github.com/0xmhha/subtx/internal/runner"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	cfg     = &config.Config{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "subtx",
		Short:   "Substrate transaction tool",
		Long:    `Subtx builds, signs, validates and submits transactions against Substrate chains.`,
		Version: version,
		RunE:    run,
	}

	// Register flags
	registerFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func registerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// Required flags
	flags.StringVar(&cfg.URL, "url", "", "Node RPC endpoint URL (required)")
	flags.StringVar(&cfg.Secret, "secret", "", "Signer secret URI (e.g. //Alice, a mnemonic, or a seed)")
	flags.Uint16Var(&cfg.Network, "network", 42, "SS58 network prefix for address display")

	// Transfer configuration
	flags.StringVar(&cfg.Dest, "dest", "", "Destination public key (0x-prefixed, 32 bytes)")
	flags.StringVar(&cfg.Amount, "amount", "1000000000000", "Transfer amount in base units")

	// Transaction parameters
	flags.Uint64Var(&cfg.Tip, "tip", 0, "Tip paid to the block author")
	flags.Uint64Var(&cfg.MortalFor, "mortal-for", 64, "Validity window in blocks (0 = immortal)")
	flags.Int64Var(&cfg.Nonce, "nonce", -1, "Account nonce (-1 = fetch from chain)")
	flags.StringVar(&cfg.Format, "format", "AUTO", "Transaction format: AUTO, LEGACY, GENERAL")

	// Run configuration
	flags.StringVar(&cfg.Mode, "mode", "TRANSFER", "Mode: TRANSFER, VALIDATE, FEE")
	flags.Uint64Var(&cfg.Count, "count", 1, "Number of transactions to submit")
	flags.Float64Var(&cfg.Rate, "rate", 0, "Max submissions per second for multi-count runs")
	flags.BoolVar(&cfg.Watch, "watch", false, "Watch submitted transactions to finality (WebSocket only)")

	// Call location overrides
	flags.Uint64Var(&cfg.BalancesPalletIndex, "balances-pallet-index", 4, "Balances pallet index on the target chain")
	flags.Uint64Var(&cfg.TransferCallIndex, "transfer-call-index", 3, "transfer_keep_alive call index on the target chain")

	// Output
	flags.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")

	// Advanced
	flags.DurationVar(&cfg.Timeout, "timeout", 0, "Timeout duration (default: 5m)")

	// Prometheus metrics flags
	flags.BoolVar(&cfg.MetricsEnabled, "metrics", false, "Enable Prometheus metrics endpoint")
	flags.IntVar(&cfg.MetricsPort, "metrics-port", 9090, "Port for Prometheus metrics endpoint")

	// Mark required flags
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("dest")
}

func run(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create context with cancellation and timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Create and execute the runner
	r, err := runner.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	defer r.Close()

	result, err := r.Execute(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	// Exit with error if any transaction failed
	if result.FailedTxs > 0 {
		return fmt.Errorf("run completed with %d failed transactions", result.FailedTxs)
	}

	return nil
}
