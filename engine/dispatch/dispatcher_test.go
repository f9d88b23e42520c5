package dispatch_test

import (
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/zeebo/assert"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/diag"
	"github.com/emberwallet/swapcore/engine/dispatch"
	"github.com/emberwallet/swapcore/engine/swap"
)

var (
	eth  = currency.NativeOnChain(currency.Mainnet)
	usdc = currency.NewToken(
		currency.Mainnet,
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		6, "USDC", "USD Coin",
	)
	router  = common.HexToAddress("0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD")
	account = &dispatch.Account{Address: common.HexToAddress("0x1111111111111111111111111111111111111111")}
)

// fakeTrigger records every job handed to it.
type fakeTrigger struct {
	mu       sync.Mutex
	payloads []any
	names    []string
}

func (f *fakeTrigger) Trigger(jobName string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, jobName)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func mustAmount(t *testing.T, text string, c *currency.Currency) *currency.Amount {
	t.Helper()
	a, ok := currency.ParseAmount(text, c)
	assert.True(t, ok)
	return a
}

func completeTrade(t *testing.T) *swap.Trade {
	return &swap.Trade{
		InputAmount:  mustAmount(t, "1", eth),
		OutputAmount: mustAmount(t, "3000", usdc),
		Type:         swap.ExactInput,
		SlippageBps:  100,
		Quote: &swap.ExecutionQuote{
			Amount:           big.NewInt(1e18),
			MethodParameters: &swap.MethodParameters{Calldata: []byte{0x01, 0x02}, Value: big.NewInt(0)},
			Router:           router,
			GasUseEstimate:   210000,
		},
	}
}

func TestSwapActionTriggersJob(t *testing.T) {
	trigger := &fakeTrigger{}
	recorder := diag.NewRecorder()
	d := dispatch.NewDispatcher(trigger, dispatch.NewBus(), recorder)

	action := d.SwapAction(completeTrade(t), account, nil)
	action.Do()

	assert.Equal(t, trigger.count(), 1)
	assert.Equal(t, len(recorder.Events()), 0)

	payload := trigger.payloads[0].(dispatch.SwapPayload)
	assert.Equal(t, payload.ChainID, currency.Mainnet)
	assert.Equal(t, payload.Router, router)
	assert.Nil(t, payload.TokenContract) // native input
	assert.Equal(t, payload.TypeInfo.Type, dispatch.TxTypeSwap)
}

func TestSwapActionTokenContract(t *testing.T) {
	trigger := &fakeTrigger{}
	d := dispatch.NewDispatcher(trigger, dispatch.NewBus(), diag.NewRecorder())

	trade := completeTrade(t)
	trade.InputAmount = mustAmount(t, "3000", usdc)
	trade.OutputAmount = mustAmount(t, "1", eth)

	d.SwapAction(trade, account, nil).Do()

	payload := trigger.payloads[0].(dispatch.SwapPayload)
	assert.NotNil(t, payload.TokenContract)
	assert.Equal(t, *payload.TokenContract, usdc.Address)
}

func TestSwapActionMissingParametersIsNoop(t *testing.T) {
	trigger := &fakeTrigger{}
	recorder := diag.NewRecorder()
	d := dispatch.NewDispatcher(trigger, dispatch.NewBus(), recorder)

	incomplete := completeTrade(t)
	incomplete.Quote.MethodParameters = nil

	for _, action := range []dispatch.Action{
		d.SwapAction(nil, account, nil),
		d.SwapAction(completeTrade(t), nil, nil),
		d.SwapAction(incomplete, account, nil),
	} {
		action.Do()
	}

	assert.Equal(t, trigger.count(), 0)
	events := recorder.Events()
	assert.Equal(t, len(events), 3)
	for _, event := range events {
		assert.Equal(t, event.Component, "dispatch")
		assert.True(t, strings.Contains(event.Message, "signing provider"))
	}
}

func TestWrapActionRejectsNonWrapPair(t *testing.T) {
	trigger := &fakeTrigger{}
	recorder := diag.NewRecorder()
	d := dispatch.NewDispatcher(trigger, dispatch.NewBus(), recorder)

	d.WrapAction(swap.WrapNotApplicable, mustAmount(t, "1", eth), account, nil).Do()

	assert.Equal(t, trigger.count(), 0)
	assert.Equal(t, len(recorder.Events()), 1)
}

func TestWrapActionTriggersJob(t *testing.T) {
	trigger := &fakeTrigger{}
	d := dispatch.NewDispatcher(trigger, dispatch.NewBus(), diag.NewRecorder())

	d.WrapAction(swap.Wrap, mustAmount(t, "1", eth), account, nil).Do()

	assert.Equal(t, trigger.count(), 1)
	assert.Equal(t, trigger.names[0], dispatch.WrapJobName)
	payload := trigger.payloads[0].(dispatch.WrapPayload)
	assert.Equal(t, payload.WrapType, swap.Wrap)
	assert.Equal(t, payload.InputAmount.Exact(), "1")
}

func TestTransferActionGuards(t *testing.T) {
	trigger := &fakeTrigger{}
	recorder := diag.NewRecorder()
	d := dispatch.NewDispatcher(trigger, dispatch.NewBus(), recorder)

	to := common.HexToAddress("0x2222222222222222222222222222222222222222")

	d.TransferAction(currency.Mainnet, nil, nil, &to, account, nil).Do()
	d.TransferAction(currency.Mainnet, nil, big.NewInt(5), nil, account, nil).Do()
	d.TransferAction(currency.Mainnet, nil, big.NewInt(5), &to, nil, nil).Do()

	assert.Equal(t, trigger.count(), 0)
	assert.Equal(t, len(recorder.Events()), 3)

	d.TransferAction(currency.Mainnet, &usdc.Address, big.NewInt(5), &to, account, nil).Do()
	assert.Equal(t, trigger.count(), 1)
	assert.Equal(t, trigger.names[0], dispatch.TransferJobName)
}

func TestCallbackReachesExecutedActionOnly(t *testing.T) {
	trigger := &fakeTrigger{}
	bus := dispatch.NewBus()
	d := dispatch.NewDispatcher(trigger, bus, diag.NewRecorder())

	var superseded, live atomic.Int64

	// Actions get rebuilt on every input change; only the last one runs.
	d.SwapAction(completeTrade(t), account, func() { superseded.Add(1) })
	d.SwapAction(completeTrade(t), account, func() { live.Add(1) }).Do()

	assert.Equal(t, trigger.count(), 1)
	jobID := trigger.payloads[0].(dispatch.SwapPayload).JobID
	bus.Publish(dispatch.SwapJobName, dispatch.SagaState{
		Name: dispatch.SwapJobName, ID: jobID, Status: dispatch.SagaStarted,
	})

	waitFor(t, func() bool { return live.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, superseded.Load(), int64(0))
	assert.Equal(t, live.Load(), int64(1))

	// A repeated Started for the same instance does not re-invoke.
	bus.Publish(dispatch.SwapJobName, dispatch.SagaState{
		Name: dispatch.SwapJobName, ID: jobID, Status: dispatch.SagaStarted,
	})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, live.Load(), int64(1))
}

func TestExecutedActionIgnoresOtherInstances(t *testing.T) {
	trigger := &fakeTrigger{}
	bus := dispatch.NewBus()
	d := dispatch.NewDispatcher(trigger, bus, diag.NewRecorder())

	var fired atomic.Int64
	d.SwapAction(completeTrade(t), account, func() { fired.Add(1) }).Do()

	jobID := trigger.payloads[0].(dispatch.SwapPayload).JobID

	// A stray update for an unrelated instance is not this action's signal.
	bus.Publish(dispatch.SwapJobName, dispatch.SagaState{
		Name: dispatch.SwapJobName, ID: uuid.New(), Status: dispatch.SagaStarted,
	})
	bus.Publish(dispatch.SwapJobName, dispatch.SagaState{
		Name: dispatch.SwapJobName, ID: jobID, Status: dispatch.SagaStarted,
	})

	waitFor(t, func() bool { return fired.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, fired.Load(), int64(1))
}

func TestWatchStartedFiresOncePerInstance(t *testing.T) {
	bus := dispatch.NewBus()
	ch := bus.Channel("job")

	var fired atomic.Int64
	stop := dispatch.WatchStarted(ch, func() { fired.Add(1) })
	defer stop()

	id := uuid.New()
	for _, status := range []dispatch.SagaStatus{
		dispatch.SagaIdle, dispatch.SagaStarted, dispatch.SagaStarted, dispatch.SagaSuccess,
	} {
		bus.Publish("job", dispatch.SagaState{Name: "job", ID: id, Status: status})
	}

	waitFor(t, func() bool { return fired.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, fired.Load(), int64(1))

	// A new job instance under the same name fires again.
	bus.Publish("job", dispatch.SagaState{Name: "job", ID: uuid.New(), Status: dispatch.SagaStarted})
	waitFor(t, func() bool { return fired.Load() == 2 })
}

func TestSagaStateTerminal(t *testing.T) {
	assert.False(t, dispatch.SagaState{Status: dispatch.SagaIdle}.Terminal())
	assert.False(t, dispatch.SagaState{Status: dispatch.SagaStarted}.Terminal())
	assert.True(t, dispatch.SagaState{Status: dispatch.SagaSuccess}.Terminal())
	assert.True(t, dispatch.SagaState{Status: dispatch.SagaFailed}.Terminal())
}

func TestTradeToTransactionInfoExactInput(t *testing.T) {
	info := dispatch.TradeToTransactionInfo(completeTrade(t))

	assert.Equal(t, info.TradeType, swap.ExactInput)
	assert.Equal(t, info.InputAmountRaw, "1000000000000000000")
	assert.Equal(t, info.ExpectedOutputAmountRaw, "3000000000")
	assert.Equal(t, info.MinimumOutputAmountRaw, "2970000000")
	assert.Equal(t, info.OutputAmountRaw, "")
	assert.Equal(t, info.MaximumInputAmountRaw, "")
}

func TestTradeToTransactionInfoExactOutput(t *testing.T) {
	trade := completeTrade(t)
	trade.Type = swap.ExactOutput

	info := dispatch.TradeToTransactionInfo(trade)

	assert.Equal(t, info.OutputAmountRaw, "3000000000")
	assert.Equal(t, info.ExpectedInputAmountRaw, "1000000000000000000")
	assert.Equal(t, info.MaximumInputAmountRaw, "1010000000000000000")
	assert.Equal(t, info.InputAmountRaw, "")
	assert.Equal(t, info.MinimumOutputAmountRaw, "")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
