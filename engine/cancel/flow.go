package cancel

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/emberwallet/swapcore/engine/currency"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "cancel").Logger()
}

// State is the lifecycle stage of one cancellation flow instance. The flow
// only moves forward; dialog dismissal is the caller's concern and does not
// reset the machine.
type State int

const (
	NotStarted State = iota
	ReviewingCancellation
	PendingSignature
	PendingConfirmation
	Cancelled
)

func (s State) String() string {
	switch s {
	case ReviewingCancellation:
		return "reviewing_cancellation"
	case PendingSignature:
		return "pending_cancellation_signature"
	case PendingConfirmation:
		return "pending_cancellation_confirmation"
	case Cancelled:
		return "cancelled"
	default:
		return "not_started"
	}
}

// GasEstimator prices an unsigned transaction in native wei.
type GasEstimator interface {
	EstimateGas(ctx context.Context, req *TxRequest) (*big.Int, error)
}

// Flow drives the cancellation of a batch of pending limit orders through
// review, signature and on-chain confirmation. Transitions not listed on the
// methods below are rejected with an error and leave the state unchanged.
type Flow struct {
	mu sync.Mutex

	state    State
	orders   []Order
	reactors map[currency.ChainID]common.Address

	estimator GasEstimator
	estimate  *big.Int

	request *TxRequest
	txHash  *common.Hash
}

// NewFlow creates a flow in NotStarted. reactors maps each chain to its
// order reactor contract; estimator may be nil when gas previews are not
// wanted.
func NewFlow(reactors map[currency.ChainID]common.Address, estimator GasEstimator) *Flow {
	return &Flow{reactors: reactors, estimator: estimator}
}

// State returns the current lifecycle stage.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Review opens the flow for a batch of orders, moving NotStarted into
// ReviewingCancellation.
func (f *Flow) Review(orders []Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != NotStarted {
		return fmt.Errorf("cannot review cancellation from state %s", f.state)
	}
	if len(orders) == 0 {
		return fmt.Errorf("no orders to cancel")
	}
	f.orders = orders
	f.state = ReviewingCancellation
	return nil
}

// Confirm accepts the review, builds the cancellation transaction request
// and moves into PendingSignature.
func (f *Flow) Confirm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ReviewingCancellation {
		return fmt.Errorf("cannot confirm cancellation from state %s", f.state)
	}
	req, err := f.buildRequest()
	if err != nil {
		return err
	}
	f.request = req
	f.state = PendingSignature
	log.Info().Int("orders", len(f.orders)).Uint64("chain", uint64(req.ChainID)).Msg("Cancellation confirmed")
	return nil
}

// SignatureCompleted records the submission hash once the signing provider
// has broadcast the transaction, moving into PendingConfirmation.
func (f *Flow) SignatureCompleted(hash common.Hash) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != PendingSignature {
		return fmt.Errorf("cannot record cancellation signature from state %s", f.state)
	}
	f.txHash = &hash
	f.state = PendingConfirmation
	return nil
}

// ConfirmationObserved marks the cancellation as mined, moving into
// Cancelled.
func (f *Flow) ConfirmationObserved() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != PendingConfirmation {
		return fmt.Errorf("cannot complete cancellation from state %s", f.state)
	}
	f.state = Cancelled
	return nil
}

// CanProceed reports whether the confirm action is currently enabled.
func (f *Flow) CanProceed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == ReviewingCancellation
}

// Request returns the built cancellation transaction, or nil before Confirm.
func (f *Flow) Request() *TxRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.request
}

// TxHash returns the submission hash once one exists.
func (f *Flow) TxHash() (common.Hash, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txHash == nil {
		return common.Hash{}, false
	}
	return *f.txHash, true
}

// ExplorerLink derives the block explorer URL for the submitted cancellation,
// from the first order's chain and the submission hash. False until a hash
// exists or when the chain has no known explorer.
func (f *Flow) ExplorerLink() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txHash == nil || len(f.orders) == 0 {
		return "", false
	}
	return currency.ExplorerTxURL(f.orders[0].ChainID, *f.txHash)
}

// RefreshGasEstimate prices the pending cancellation. It only runs while
// reviewing; a failed or absent estimate leaves the flow usable, the review
// step never blocks on gas.
func (f *Flow) RefreshGasEstimate(ctx context.Context) {
	f.mu.Lock()
	if f.state != ReviewingCancellation || f.estimator == nil {
		f.mu.Unlock()
		return
	}
	req, err := f.buildRequest()
	f.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build cancellation request for gas estimate")
		return
	}

	estimate, err := f.estimator.EstimateGas(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to estimate cancellation gas")
		return
	}

	f.mu.Lock()
	if f.state == ReviewingCancellation {
		f.estimate = estimate
	}
	f.mu.Unlock()
}

// GasEstimate returns the latest non-empty gas estimate, if any.
func (f *Flow) GasEstimate() (*big.Int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.estimate == nil || f.estimate.Sign() == 0 {
		return nil, false
	}
	return f.estimate, true
}

// buildRequest packs the current orders, resolving the reactor from the
// first order's chain. Callers hold f.mu.
func (f *Flow) buildRequest() (*TxRequest, error) {
	if len(f.orders) == 0 {
		return nil, fmt.Errorf("no orders to cancel")
	}
	chain := f.orders[0].ChainID
	reactor, ok := f.reactors[chain]
	if !ok {
		return nil, fmt.Errorf("no reactor configured for chain %d", chain)
	}
	return BuildCancelRequest(f.orders, reactor)
}
