package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/0xmhha/subtx/internal/extrinsic"
	"github.com/0xmhha/subtx/internal/signer"
	"github.com/0xmhha/subtx/internal/util/progress"
	subtypes "github.com/0xmhha/subtx/pkg/types"
)

// runTransfer submits the configured transfer Count times, pacing
// submissions with the configured rate and optionally watching each
// transaction to finality.
func (r *Runner) runTransfer(ctx context.Context) (*subtypes.RunResult, error) {
	call, err := r.transferCall()
	if err != nil {
		return nil, err
	}

	params := extrinsic.Params{
		Tip:       r.cfg.Tip,
		MortalFor: r.cfg.MortalFor,
	}

	// A flood run signs with a locally counting keyring so each
	// transaction gets the next nonce without a per-transaction lookup.
	var txSigner extrinsic.Signer = r.keyring
	if r.cfg.Count > 1 {
		start := uint64(r.cfg.Nonce)
		if r.cfg.Nonce < 0 {
			start, err = r.engine.AccountNonce(ctx, r.keyring.AccountID())
			if err != nil {
				return nil, err
			}
		}
		txSigner = signer.NewCounting(r.keyring, start)
		r.log.Info().Uint64("start_nonce", start).Uint64("count", r.cfg.Count).Msg("flooding transfers")
	} else if r.cfg.Nonce >= 0 {
		params = params.WithNonce(uint64(r.cfg.Nonce))
	}

	var limiter *rate.Limiter
	if r.cfg.Count > 1 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.Rate), 1)
		if r.metrics != nil {
			r.metrics.SetSendRate(r.cfg.Rate)
		}
	}
	bar := progress.NewSubmissionBar(r.cfg.Count)

	result := &subtypes.RunResult{
		StartTime: time.Now(),
		Results:   make([]*subtypes.SubmitResult, r.cfg.Count),
	}
	var wg sync.WaitGroup

	for i := uint64(0); i < r.cfg.Count; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		res := &subtypes.SubmitResult{Submitted: time.Now()}
		result.Results[i] = res
		if np, ok := txSigner.(extrinsic.NonceProvider); ok {
			// Peek by consuming: the engine will use this exact nonce.
			nonce, _ := np.Nonce()
			res.Nonce = nonce
			params = extrinsic.Params{Tip: r.cfg.Tip, MortalFor: r.cfg.MortalFor}.WithNonce(nonce)
		}

		if r.cfg.Watch {
			prog, err := r.engine.SignAndSubmitThenWatch(ctx, call, txSigner, params)
			if err != nil {
				r.recordSubmitError(res, err)
			} else {
				res.Hash = prog.Hash()
				r.recordSubmitted(res)
				wg.Add(1)
				go func() {
					defer wg.Done()
					r.watch(ctx, prog, res)
				}()
			}
		} else {
			hash, err := r.engine.SignAndSubmit(ctx, call, txSigner, params)
			if err != nil {
				r.recordSubmitError(res, err)
			} else {
				res.Hash = hash
				r.recordSubmitted(res)
			}
		}
		progress.Add(bar, 1)
	}
	progress.Finish(bar)

	wg.Wait()
	result.Finish()
	r.printTransferSummary(result)
	return result, nil
}

// watch drains one transaction's status stream, recording inclusion and
// finalization as they happen.
func (r *Runner) watch(ctx context.Context, prog *extrinsic.Progress, res *subtypes.SubmitResult) {
	defer prog.Unsubscribe()
	for {
		status, ok, err := prog.Next(ctx)
		if err != nil {
			res.Err = err.Error()
			r.recordFailed()
			return
		}
		if !ok {
			if res.Finalized == nil && res.Err == "" {
				res.Err = extrinsic.ErrUnexpectedEndOfStatusStream.Error()
				r.recordFailed()
			}
			return
		}

		r.log.Debug().Str("hash", res.Hash.Hex()).Stringer("status", status).Msg("status update")
		r.recordWatchStatus(res, status)
	}
}

// recordWatchStatus applies one status update to the transaction's result
// and its metrics.
func (r *Runner) recordWatchStatus(res *subtypes.SubmitResult, status extrinsic.TransactionStatus) {
	switch status.Kind {
	case extrinsic.StatusInBestBlock:
		blockHash := status.BlockHash
		res.InBlock = &blockHash
		if r.metrics != nil {
			r.metrics.RecordInBlock()
		}
	case extrinsic.StatusNoLongerInBestBlock:
		res.InBlock = nil
		if r.metrics != nil {
			r.metrics.RecordRetracted()
		}
	case extrinsic.StatusInFinalizedBlock:
		blockHash := status.BlockHash
		res.Finalized = &blockHash
		res.Latency = time.Since(res.Submitted)
		if r.metrics != nil {
			r.metrics.RecordFinalized(res.Latency)
		}
	case extrinsic.StatusDropped:
		res.Err = status.String()
		if r.metrics != nil {
			r.metrics.RecordDropped()
		}
	case extrinsic.StatusError, extrinsic.StatusInvalid:
		res.Err = status.String()
		r.recordFailed()
	}
}

func (r *Runner) recordSubmitted(res *subtypes.SubmitResult) {
	if r.metrics != nil {
		r.metrics.RecordSubmitted(time.Since(res.Submitted))
	}
	r.log.Debug().Str("hash", res.Hash.Hex()).Uint64("nonce", res.Nonce).Msg("submitted")
}

func (r *Runner) recordSubmitError(res *subtypes.SubmitResult, err error) {
	res.Err = err.Error()
	r.log.Error().Err(err).Msg("submission failed")
	if r.metrics != nil {
		r.metrics.TxFailed.Inc()
	}
}

func (r *Runner) recordFailed() {
	if r.metrics != nil {
		r.metrics.RecordFailed()
	}
}

func (r *Runner) printTransferSummary(result *subtypes.RunResult) {
	fmt.Printf("\nSubmitted %d transactions in %s (%.1f tx/s), %d failed\n",
		result.TotalTransactions, result.Duration.Round(time.Millisecond),
		result.AverageTPS, result.FailedTxs)
	if result.TotalTransactions == 1 && result.Results[0].Succeeded() {
		fmt.Printf("Transaction hash: %s\n", result.Results[0].Hash.Hex())
		if result.Results[0].Finalized != nil {
			fmt.Printf("Finalized in:     %s\n", result.Results[0].Finalized.Hex())
		}
	}
}
