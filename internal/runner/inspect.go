package runner

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	subtypes "github.com/0xmhha/subtx/pkg/types"
)

// runValidate builds and signs the configured transfer, dry-runs it against
// the node's transaction queue and reports the verdict. Nothing is
// submitted.
func (r *Runner) runValidate(ctx context.Context) (*subtypes.RunResult, error) {
	call, err := r.transferCall()
	if err != nil {
		return nil, err
	}
	result := &subtypes.RunResult{StartTime: time.Now()}

	tx, err := r.engine.CreateSigned(ctx, call, r.keyring, r.params())
	if err != nil {
		return nil, err
	}
	verdict, err := tx.Validate(ctx)
	if err != nil {
		return nil, err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetBorder(true)
	table.Append([]string{"Hash", tx.Hash().Hex()})
	table.Append([]string{"Size", fmt.Sprintf("%d bytes", len(tx.Encoded()))})
	switch {
	case verdict.Valid != nil:
		table.Append([]string{"Verdict", "valid"})
		table.Append([]string{"Priority", fmt.Sprintf("%d", verdict.Valid.Priority)})
		table.Append([]string{"Longevity", fmt.Sprintf("%d blocks", verdict.Valid.Longevity)})
		table.Append([]string{"Propagate", fmt.Sprintf("%t", verdict.Valid.Propagate)})
	case verdict.Invalid != nil:
		table.Append([]string{"Verdict", "invalid"})
		table.Append([]string{"Reason", verdict.Invalid.String()})
	case verdict.Unknown != nil:
		table.Append([]string{"Verdict", "unknown"})
		table.Append([]string{"Reason", verdict.Unknown.String()})
	}
	table.Render()

	res := &subtypes.SubmitResult{Hash: tx.Hash(), Submitted: result.StartTime}
	if !verdict.IsValid() {
		res.Err = verdict.String()
	}
	result.Results = append(result.Results, res)
	result.Finish()
	return result, nil
}

// runFee builds and signs the configured transfer and asks the node what it
// would cost. Nothing is submitted.
func (r *Runner) runFee(ctx context.Context) (*subtypes.RunResult, error) {
	call, err := r.transferCall()
	if err != nil {
		return nil, err
	}
	result := &subtypes.RunResult{StartTime: time.Now()}

	tx, err := r.engine.CreateSigned(ctx, call, r.keyring, r.params())
	if err != nil {
		return nil, err
	}
	fee, err := tx.PartialFeeEstimate(ctx)
	if err != nil {
		return nil, err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetBorder(true)
	table.Append([]string{"Hash", tx.Hash().Hex()})
	table.Append([]string{"Size", fmt.Sprintf("%d bytes", len(tx.Encoded()))})
	table.Append([]string{"Partial fee", fee.String()})
	table.Append([]string{"Tip", fmt.Sprintf("%d", r.cfg.Tip)})
	table.Render()

	if r.metrics != nil {
		feeFloat, _ := new(big.Float).SetInt(fee).Float64()
		r.metrics.RecordFeePaid(feeFloat)
	}

	result.Results = append(result.Results, &subtypes.SubmitResult{Hash: tx.Hash(), Submitted: result.StartTime})
	result.Finish()
	return result, nil
}
