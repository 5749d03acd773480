// Package runner wires the configuration, node connection, signer and
// transaction engine together and executes one run.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xmhha/subtx/internal/calls"
	"github.com/0xmhha/subtx/internal/client"
	"github.com/0xmhha/subtx/internal/config"
	"github.com/0xmhha/subtx/internal/extrinsic"
	"github.com/0xmhha/subtx/internal/metrics"
	"github.com/0xmhha/subtx/internal/signer"
	subtypes "github.com/0xmhha/subtx/pkg/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// Runner executes one configured run against one chain.
type Runner struct {
	cfg     *config.Config
	log     zerolog.Logger
	client  *client.Client
	engine  *extrinsic.Client
	keyring *signer.Keyring
	chain   subtypes.ChainInfo
	metrics *metrics.Metrics
}

// New connects to the node, snapshots the chain state transaction
// construction needs and derives the signing key.
func New(ctx context.Context, cfg *config.Config) (*Runner, error) {
	log := newLogger(cfg.Verbose)

	cli, err := client.Connect(cfg.URL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	meta, chain, err := snapshotMetadata(ctx, cli, cfg)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to snapshot chain metadata: %w", err)
	}

	keyring, err := signer.FromSecret(cfg.Secret, cfg.Network)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	r := &Runner{
		cfg:     cfg,
		log:     log,
		client:  cli,
		engine:  extrinsic.New(cli, meta),
		keyring: keyring,
		chain:   chain,
	}
	if cfg.MetricsEnabled {
		r.metrics = metrics.NewMetrics("subtx")
	}
	return r, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// Execute runs the configured mode and reports the results.
func (r *Runner) Execute(ctx context.Context) (*subtypes.RunResult, error) {
	r.log.Info().
		Str("chain", r.chain.SpecName).
		Uint32("spec_version", r.chain.SpecVersion).
		Str("account", r.keyring.Address()).
		Str("mode", string(r.cfg.GetMode())).
		Msg("starting run")

	if r.metrics != nil {
		if err := r.metrics.Start(ctx, r.cfg.MetricsPort); err != nil {
			return nil, err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = r.metrics.Stop(stopCtx)
		}()
	}

	switch r.cfg.GetMode() {
	case config.ModeTransfer:
		return r.runTransfer(ctx)
	case config.ModeValidate:
		return r.runValidate(ctx)
	case config.ModeFee:
		return r.runFee(ctx)
	default:
		return nil, fmt.Errorf("unknown mode %q", r.cfg.Mode)
	}
}

// Close tears down the node connection.
func (r *Runner) Close() {
	r.client.Close()
}

// transferCall builds the configured transfer as an engine call.
func (r *Runner) transferCall() (extrinsic.Call, error) {
	destKey, err := codec.HexDecodeString(r.cfg.Dest)
	if err != nil {
		return nil, fmt.Errorf("invalid dest: %w", err)
	}
	dest, err := types.NewAccountID(destKey)
	if err != nil {
		return nil, fmt.Errorf("invalid dest: %w", err)
	}
	amount, ok := r.cfg.GetAmount()
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", r.cfg.Amount)
	}
	return calls.NewTransferKeepAlive(*dest, amount), nil
}

// params builds the transaction params from the configuration.
func (r *Runner) params() extrinsic.Params {
	p := extrinsic.Params{
		Tip:       r.cfg.Tip,
		MortalFor: r.cfg.MortalFor,
	}
	if r.cfg.Nonce >= 0 {
		p = p.WithNonce(uint64(r.cfg.Nonce))
	}
	return p
}
