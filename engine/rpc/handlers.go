package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/emberwallet/swapcore/engine/balances"
	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/quote"
	"github.com/emberwallet/swapcore/engine/swap"
)

// Engine bundles the collaborators the HTTP handlers work against.
type Engine struct {
	Registry   *currency.Registry
	Resolver   *quote.Resolver
	Balances   *balances.Reader
	Classifier swap.WrapClassifier
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// resolveToken maps a wire token param ("native" or a hex address) to a
// currency, synthesizing an 18-decimal placeholder for unknown tokens.
func resolveToken(registry *currency.Registry, chain currency.ChainID, param string) (*currency.Currency, bool) {
	if param == "native" {
		return currency.NativeOnChain(chain), true
	}
	if !common.IsHexAddress(param) {
		return nil, false
	}
	return registry.ResolveOrSynthesize(chain, common.HexToAddress(param), 18, "UNKNOWN", "Unknown Token"), true
}

func parseTradeType(s string) (swap.TradeType, bool) {
	switch s {
	case "exact_input", "":
		return swap.ExactInput, true
	case "exact_output":
		return swap.ExactOutput, true
	default:
		return 0, false
	}
}

type quoteRequest struct {
	ChainID   uint64 `json:"chainId"`
	TokenIn   string `json:"tokenIn"`
	TokenOut  string `json:"tokenOut"`
	Amount    string `json:"amount"`
	TradeType string `json:"tradeType"`
}

type tradeBody struct {
	InputAmount      string `json:"inputAmount"`
	OutputAmount     string `json:"outputAmount"`
	MinimumAmountOut string `json:"minimumAmountOut,omitempty"`
	MaximumAmountIn  string `json:"maximumAmountIn,omitempty"`
	Router           string `json:"router"`
	Calldata         string `json:"calldata"`
	Value            string `json:"value"`
	GasUseEstimate   uint64 `json:"gasUseEstimate"`
}

type quoteResponse struct {
	Status string     `json:"status"`
	Trade  *tradeBody `json:"trade,omitempty"`
	Error  string     `json:"error,omitempty"`
}

func tradeToBody(t *swap.Trade) *tradeBody {
	body := &tradeBody{
		InputAmount:    t.InputAmount.Exact(),
		OutputAmount:   t.OutputAmount.Exact(),
		Router:         t.Quote.Router.Hex(),
		Calldata:       t.Quote.MethodParameters.Calldata.String(),
		Value:          t.Quote.MethodParameters.Value.String(),
		GasUseEstimate: t.Quote.GasUseEstimate,
	}
	if t.Type == swap.ExactInput {
		body.MinimumAmountOut = t.MinimumAmountOut().Exact()
	} else {
		body.MaximumAmountIn = t.MaximumAmountIn().Exact()
	}
	return body
}

// handleQuote resolves a quote synchronously for the requested pair and
// amount.
func (e *Engine) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ChainID == 0 {
		writeError(w, http.StatusBadRequest, "chainId is required")
		return
	}
	chain := currency.ChainID(req.ChainID)

	tokenIn, ok := resolveToken(e.Registry, chain, req.TokenIn)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed tokenIn")
		return
	}
	tokenOut, ok := resolveToken(e.Registry, chain, req.TokenOut)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed tokenOut")
		return
	}
	tradeType, ok := parseTradeType(req.TradeType)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown tradeType")
		return
	}

	exact, other := tokenIn, tokenOut
	if tradeType == swap.ExactOutput {
		exact, other = tokenOut, tokenIn
	}
	amount, ok := currency.ParseAmount(req.Amount, exact)
	if !ok || amount == nil {
		writeError(w, http.StatusBadRequest, "malformed amount")
		return
	}

	result := e.Resolver.Await(r.Context(), &quote.Request{
		Amount: amount,
		Other:  other,
		Type:   tradeType,
	})

	resp := quoteResponse{Status: result.Status.String()}
	switch result.Status {
	case swap.QuoteResolved:
		resp.Trade = tradeToBody(result.Trade)
		writeJSON(w, http.StatusOK, resp)
	case swap.QuoteFailed:
		resp.Error = result.Err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

type deriveRequest struct {
	ChainID     uint64 `json:"chainId"`
	InputToken  string `json:"inputToken"`
	OutputToken string `json:"outputToken"`
	ExactAmount string `json:"exactAmount"`
	ExactField  string `json:"exactField"`
	Recipient   string `json:"recipient,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

type sideBody struct {
	CurrencyID string `json:"currencyId,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Balance    string `json:"balance,omitempty"`
	Formatted  string `json:"formatted"`
}

type deriveResponse struct {
	Input       sideBody   `json:"input"`
	Output      sideBody   `json:"output"`
	ExactField  string     `json:"exactField"`
	WrapType    string     `json:"wrapType"`
	QuoteStatus string     `json:"quoteStatus"`
	QuoteError  string     `json:"quoteError,omitempty"`
	Trade       *tradeBody `json:"trade,omitempty"`
	Recipient   string     `json:"recipient,omitempty"`
}

// handleDerive computes the full derived view-model for a swap form
// snapshot, resolving the quote and wallet balances it needs.
func (e *Engine) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ChainID == 0 {
		writeError(w, http.StatusBadRequest, "chainId is required")
		return
	}
	chain := currency.ChainID(req.ChainID)

	var form swap.FormState
	if req.InputToken != "" {
		c, ok := resolveToken(e.Registry, chain, req.InputToken)
		if !ok {
			writeError(w, http.StatusBadRequest, "malformed inputToken")
			return
		}
		form.SelectCurrency(swap.FieldInput, c)
	}
	if req.OutputToken != "" {
		c, ok := resolveToken(e.Registry, chain, req.OutputToken)
		if !ok {
			writeError(w, http.StatusBadRequest, "malformed outputToken")
			return
		}
		form.SelectCurrency(swap.FieldOutput, c)
	}

	field := swap.FieldInput
	if req.ExactField == "output" {
		field = swap.FieldOutput
	}
	form.EnterExactAmount(field, req.ExactAmount)

	if req.Recipient != "" {
		if !common.IsHexAddress(req.Recipient) {
			writeError(w, http.StatusBadRequest, "malformed recipient")
			return
		}
		form.SelectRecipient(common.HexToAddress(req.Recipient))
	}

	balanceView := e.fetchBalances(r.Context(), &form, req.Owner)
	result := e.resolveQuote(r.Context(), &form)

	info := swap.Derive(form, balanceView, result, e.Classifier)
	writeJSON(w, http.StatusOK, deriveToBody(info))
}

// fetchBalances loads the owner's balances for both form currencies. Balance
// failures degrade to an empty view, they never fail the derivation.
func (e *Engine) fetchBalances(ctx context.Context, form *swap.FormState, owner string) swap.BalanceView {
	if e.Balances == nil || !common.IsHexAddress(owner) {
		return swap.BalanceView{}
	}
	view, err := e.Balances.View(ctx,
		form.Currencies.Get(swap.FieldInput),
		form.Currencies.Get(swap.FieldOutput),
		common.HexToAddress(owner))
	if err != nil {
		Logger.Warn().Err(err).Msg("Failed to fetch balances for derivation")
		return swap.BalanceView{}
	}
	return view
}

// resolveQuote awaits a quote for the form when one is needed. Wrap pairs
// and incomplete forms resolve without a quote.
func (e *Engine) resolveQuote(ctx context.Context, form *swap.FormState) swap.QuoteResult {
	in := form.Currencies.Get(swap.FieldInput)
	out := form.Currencies.Get(swap.FieldOutput)
	if in == nil || out == nil {
		return swap.NoQuote()
	}
	if swap.IsWrapAction(e.Classifier.Classify(in, out)) {
		return swap.NoQuote()
	}

	amount, ok := currency.ParseAmount(form.ExactAmount, form.ExactCurrency())
	if !ok || amount == nil {
		return swap.NoQuote()
	}
	tradeType := swap.ExactInput
	if form.ExactField == swap.FieldOutput {
		tradeType = swap.ExactOutput
	}
	return e.Resolver.Await(ctx, &quote.Request{
		Amount: amount,
		Other:  form.OtherCurrency(),
		Type:   tradeType,
	})
}

func deriveToBody(info swap.DerivedSwapInfo) deriveResponse {
	resp := deriveResponse{
		Input:       sideToBody(info, swap.FieldInput),
		Output:      sideToBody(info, swap.FieldOutput),
		ExactField:  info.ExactField.String(),
		WrapType:    info.WrapType.String(),
		QuoteStatus: info.Quote.Status.String(),
	}
	if info.Quote.Err != nil {
		resp.QuoteError = info.Quote.Err.Error()
	}
	if info.Quote.Trade != nil {
		resp.Trade = tradeToBody(info.Quote.Trade)
	}
	if info.Recipient != nil {
		resp.Recipient = info.Recipient.Hex()
	}
	return resp
}

func sideToBody(info swap.DerivedSwapInfo, field swap.Field) sideBody {
	body := sideBody{Formatted: info.FormattedAmounts.Get(field)}
	if c := info.Currencies.Get(field); c != nil {
		body.CurrencyID = string(c.ID())
	}
	if a := info.CurrencyAmounts.Get(field); a != nil {
		body.Amount = a.Exact()
	}
	if b := info.CurrencyBalances.Get(field); b != nil {
		body.Balance = b.Exact()
	}
	return body
}
