package types

import (
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// SubmitResult holds the outcome of one submitted transaction
type SubmitResult struct {
	Hash      types.Hash    `json:"hash"`
	Nonce     uint64        `json:"nonce"`
	Submitted time.Time     `json:"submitted"`
	InBlock   *types.Hash   `json:"in_block,omitempty"`
	Finalized *types.Hash   `json:"finalized,omitempty"`
	Latency   time.Duration `json:"latency"`
	Err       string        `json:"error,omitempty"`
}

// Succeeded reports whether the transaction made it past submission
func (r *SubmitResult) Succeeded() bool {
	return r.Err == ""
}

// RunResult holds the complete results of a run
type RunResult struct {
	// Summary
	TotalTransactions int     `json:"total_transactions"`
	SuccessfulTxs     int     `json:"successful_transactions"`
	FailedTxs         int     `json:"failed_transactions"`
	AverageTPS        float64 `json:"average_tps"`

	// Timing
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Transaction details
	Results []*SubmitResult `json:"results,omitempty"`
}

// Finish computes the summary fields from the collected results
func (r *RunResult) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.TotalTransactions = len(r.Results)
	for _, res := range r.Results {
		if res.Succeeded() {
			r.SuccessfulTxs++
		} else {
			r.FailedTxs++
		}
	}
	if secs := r.Duration.Seconds(); secs > 0 {
		r.AverageTPS = float64(r.SuccessfulTxs) / secs
	}
}

// ChainInfo describes the chain a run targeted
type ChainInfo struct {
	SpecName           string     `json:"spec_name"`
	SpecVersion        uint32     `json:"spec_version"`
	TransactionVersion uint32     `json:"transaction_version"`
	GenesisHash        types.Hash `json:"genesis_hash"`
}
