package dispatch

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/diag"
	"github.com/emberwallet/swapcore/engine/swap"
)

// Job names the background workers are registered under.
const (
	SwapJobName     = "swap"
	WrapJobName     = "tokenWrap"
	TransferJobName = "transferToken"
)

var triggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swapcore_dispatch_triggers_total",
	Help: "Background jobs triggered, by job name.",
}, []string{"job"})

// Account is the signing account a job executes under.
type Account struct {
	Address common.Address
}

// SwapPayload is the job input for a swap execution.
type SwapPayload struct {
	JobID            uuid.UUID
	Account          Account
	ChainID          currency.ChainID
	TokenContract    *common.Address // nil when the input is the chain native
	Router           common.Address
	MethodParameters *swap.MethodParameters
	TxAmount         *big.Int
	TypeInfo         SwapTransactionInfo
}

// WrapPayload is the job input for a native wrap or unwrap.
type WrapPayload struct {
	JobID       uuid.UUID
	Account     Account
	WrapType    swap.WrapType
	InputAmount *currency.Amount
}

// TransferPayload is the job input for a plain token or native transfer.
type TransferPayload struct {
	JobID        uuid.UUID
	Account      Account
	ChainID      currency.ChainID
	TokenAddress *common.Address // nil transfers the chain native
	AmountRaw    *big.Int
	To           common.Address
}

// Trigger hands a payload to the background worker registered under a job
// name. Implementations broadcast the resulting transaction and publish
// SagaState updates on the bus.
type Trigger interface {
	Trigger(jobName string, payload any) error
}

// Action is a prepared user action. A complete action triggers its job on
// Do; an action built from incomplete parameters is a safe no-op.
type Action struct {
	run func()
}

// Do executes the action. No-op actions do nothing.
func (a Action) Do() {
	if a.run != nil {
		a.run()
	}
}

// Dispatcher builds executable actions out of resolved trades, wrap requests
// and transfer requests. Missing parameters never produce an error at the
// call site: the dispatcher records a diagnostic and returns a no-op, since
// the common cause is a signing provider that has not finished loading.
type Dispatcher struct {
	trigger  Trigger
	bus      *Bus
	reporter diag.Reporter
}

// NewDispatcher wires a dispatcher to its worker trigger and status bus.
func NewDispatcher(trigger Trigger, bus *Bus, reporter diag.Reporter) *Dispatcher {
	return &Dispatcher{trigger: trigger, bus: bus, reporter: reporter}
}

// SwapAction prepares a swap execution for the given trade. onSubmitted is
// invoked exactly once when the job reports it has started broadcasting.
func (d *Dispatcher) SwapAction(trade *swap.Trade, account *Account, onSubmitted func()) Action {
	if account == nil || trade == nil || trade.Quote == nil ||
		trade.Quote.MethodParameters == nil || trade.Quote.Amount == nil {
		d.reporter.Report("dispatch", "SwapAction",
			"missing swap parameters — is the signing provider available?")
		return Action{}
	}

	var tokenContract *common.Address
	if in := trade.InputAmount.Currency; !in.Native {
		addr := in.Address
		tokenContract = &addr
	}
	payload := SwapPayload{
		JobID:            uuid.New(),
		Account:          *account,
		ChainID:          trade.ChainID(),
		TokenContract:    tokenContract,
		Router:           trade.Quote.Router,
		MethodParameters: trade.Quote.MethodParameters,
		TxAmount:         trade.Quote.Amount,
		TypeInfo:         TradeToTransactionInfo(trade),
	}

	// The watch is registered only when the action actually runs, scoped to
	// this job instance. Superseded actions must not consume the channel.
	return Action{run: func() {
		var stopWatch func()
		if onSubmitted != nil {
			stopWatch = watchInstance(d.bus.Channel(SwapJobName), payload.JobID, onSubmitted)
		}
		triggersTotal.WithLabelValues(SwapJobName).Inc()
		if err := d.trigger.Trigger(SwapJobName, payload); err != nil {
			log.Error().Err(err).Str("job", SwapJobName).Msg("Failed to trigger job")
			if stopWatch != nil {
				stopWatch()
			}
		}
	}}
}

// WrapAction prepares a native wrap or unwrap of inputAmount. onSuccess is
// invoked exactly once when the job starts.
func (d *Dispatcher) WrapAction(wrapType swap.WrapType, inputAmount *currency.Amount, account *Account, onSuccess func()) Action {
	if !swap.IsWrapAction(wrapType) {
		d.reporter.Report("dispatch", "WrapAction",
			"wrap action invoked for a non-wrap pair")
		return Action{}
	}
	if account == nil || inputAmount == nil {
		d.reporter.Report("dispatch", "WrapAction",
			"missing wrap parameters — is the signing provider available?")
		return Action{}
	}

	payload := WrapPayload{
		JobID:       uuid.New(),
		Account:     *account,
		WrapType:    wrapType,
		InputAmount: inputAmount,
	}

	return Action{run: func() {
		var stopWatch func()
		if onSuccess != nil {
			stopWatch = watchInstance(d.bus.Channel(WrapJobName), payload.JobID, onSuccess)
		}
		triggersTotal.WithLabelValues(WrapJobName).Inc()
		if err := d.trigger.Trigger(WrapJobName, payload); err != nil {
			log.Error().Err(err).Str("job", WrapJobName).Msg("Failed to trigger job")
			if stopWatch != nil {
				stopWatch()
			}
		}
	}}
}

// TransferAction prepares a token transfer. A nil tokenAddress transfers the
// chain native currency. onSubmitted is invoked exactly once when the job
// starts.
func (d *Dispatcher) TransferAction(chain currency.ChainID, tokenAddress *common.Address, amountRaw *big.Int, to *common.Address, account *Account, onSubmitted func()) Action {
	if account == nil || amountRaw == nil || to == nil || chain == 0 {
		d.reporter.Report("dispatch", "TransferAction",
			"missing transfer parameters — is the signing provider available?")
		return Action{}
	}

	payload := TransferPayload{
		JobID:        uuid.New(),
		Account:      *account,
		ChainID:      chain,
		TokenAddress: tokenAddress,
		AmountRaw:    amountRaw,
		To:           *to,
	}

	return Action{run: func() {
		var stopWatch func()
		if onSubmitted != nil {
			stopWatch = watchInstance(d.bus.Channel(TransferJobName), payload.JobID, onSubmitted)
		}
		triggersTotal.WithLabelValues(TransferJobName).Inc()
		if err := d.trigger.Trigger(TransferJobName, payload); err != nil {
			log.Error().Err(err).Str("job", TransferJobName).Msg("Failed to trigger job")
			if stopWatch != nil {
				stopWatch()
			}
		}
	}}
}
