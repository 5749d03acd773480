package extrinsic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Backend is the engine's view of a node connection. Implementations are
// expected to be safe for concurrent use and cheap to share; the engine
// never mutates them.
type Backend interface {
	// LatestFinalizedBlockRef returns the hash of the latest finalized
	// block.
	LatestFinalizedBlockRef(ctx context.Context) (types.Hash, error)

	// BlockHeader returns the header for a block hash, or (nil, nil) when
	// the node has no block for it.
	BlockHeader(ctx context.Context, blockHash types.Hash) (*types.Header, error)

	// Call performs a runtime API call at the given block and returns the
	// raw SCALE-encoded reply.
	Call(ctx context.Context, method string, params []byte, at types.Hash) ([]byte, error)

	// SubmitTransaction submits encoded transaction bytes and returns a
	// stream of status updates for them.
	SubmitTransaction(ctx context.Context, tx []byte) (StatusStream, error)
}

// StatusStream delivers status updates for one submitted transaction.
// The status channel closes when the stream ends; Err yields at most one
// error if the stream itself fails.
type StatusStream interface {
	Chan() <-chan TransactionStatus
	Err() <-chan error
	Unsubscribe()
}

// StatusKind enumerates the states a submitted transaction moves through.
type StatusKind int

const (
	// StatusValidated: the transaction passed validation and entered the
	// pool.
	StatusValidated StatusKind = iota
	// StatusBroadcasted: the transaction was broadcast to other peers.
	StatusBroadcasted
	// StatusInBestBlock: the transaction is in a best (non-finalized)
	// block.
	StatusInBestBlock
	// StatusNoLongerInBestBlock: a retraction; the transaction left the
	// best chain and may yet return.
	StatusNoLongerInBestBlock
	// StatusInFinalizedBlock: the transaction is in a finalized block.
	// Terminal.
	StatusInFinalizedBlock
	// StatusError: the node hit an internal error handling the
	// transaction. Terminal.
	StatusError
	// StatusInvalid: the node deemed the transaction invalid. Terminal.
	StatusInvalid
	// StatusDropped: the node dropped the transaction from its pool.
	// Terminal.
	StatusDropped
)

func (k StatusKind) String() string {
	switch k {
	case StatusValidated:
		return "validated"
	case StatusBroadcasted:
		return "broadcasted"
	case StatusInBestBlock:
		return "in best block"
	case StatusNoLongerInBestBlock:
		return "no longer in best block"
	case StatusInFinalizedBlock:
		return "in finalized block"
	case StatusError:
		return "error"
	case StatusInvalid:
		return "invalid"
	case StatusDropped:
		return "dropped"
	}
	return "unknown"
}

// TransactionStatus is one status update for a submitted transaction.
type TransactionStatus struct {
	Kind StatusKind
	// BlockHash is set for StatusInBestBlock and StatusInFinalizedBlock.
	BlockHash types.Hash
	// Message is set for StatusError, StatusInvalid and StatusDropped.
	Message string
}

// IsTerminal reports whether no further updates can follow this status.
func (s TransactionStatus) IsTerminal() bool {
	switch s.Kind {
	case StatusInFinalizedBlock, StatusError, StatusInvalid, StatusDropped:
		return true
	}
	return false
}

func (s TransactionStatus) String() string {
	switch s.Kind {
	case StatusInBestBlock, StatusInFinalizedBlock:
		return fmt.Sprintf("%s (%s)", s.Kind, s.BlockHash.Hex())
	case StatusError, StatusInvalid, StatusDropped:
		return fmt.Sprintf("%s: %s", s.Kind, s.Message)
	}
	return s.Kind.String()
}

// watchEvent is the wire shape of a transactionWatch_v1 notification.
type watchEvent struct {
	Event string `json:"event"`
	Block *struct {
		Hash types.Hash `json:"hash"`
	} `json:"block"`
	Error string `json:"error"`
}

// UnmarshalJSON decodes a transactionWatch_v1 watch event. A
// bestChainBlockIncluded event with a null block means the transaction is
// no longer in a best block.
func (s *TransactionStatus) UnmarshalJSON(data []byte) error {
	var ev watchEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	switch ev.Event {
	case "validated":
		*s = TransactionStatus{Kind: StatusValidated}
	case "broadcasted":
		*s = TransactionStatus{Kind: StatusBroadcasted}
	case "bestChainBlockIncluded":
		if ev.Block == nil {
			*s = TransactionStatus{Kind: StatusNoLongerInBestBlock}
		} else {
			*s = TransactionStatus{Kind: StatusInBestBlock, BlockHash: ev.Block.Hash}
		}
	case "finalized":
		if ev.Block == nil {
			return fmt.Errorf("finalized event carries no block")
		}
		*s = TransactionStatus{Kind: StatusInFinalizedBlock, BlockHash: ev.Block.Hash}
	case "error":
		*s = TransactionStatus{Kind: StatusError, Message: ev.Error}
	case "invalid":
		*s = TransactionStatus{Kind: StatusInvalid, Message: ev.Error}
	case "dropped":
		*s = TransactionStatus{Kind: StatusDropped, Message: ev.Error}
	default:
		return fmt.Errorf("unknown transaction watch event %q", ev.Event)
	}
	return nil
}
