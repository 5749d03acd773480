package client

import (
	gethrpc "github.com/centrifuge/go-substrate-rpc-client/v4/gethrpc"

	"github.com/0xmhha/subtx/internal/extrinsic"
)

// statusSubscription adapts a raw RPC subscription to the status stream the
// engine consumes. The status channel is closed by the RPC layer when the
// node ends the subscription.
type statusSubscription struct {
	ch  chan extrinsic.TransactionStatus
	sub *gethrpc.ClientSubscription
}

func (s *statusSubscription) Chan() <-chan extrinsic.TransactionStatus {
	return s.ch
}

func (s *statusSubscription) Err() <-chan error {
	return s.sub.Err()
}

func (s *statusSubscription) Unsubscribe() {
	s.sub.Unsubscribe()
}
