package swap

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/emberwallet/swapcore/engine/currency"
)

// BalanceView carries the four wallet balances a derivation may need: the
// native-currency balance and the token balance for each side. The two
// sources are distinct and must never be mixed; Derive picks per side based
// on the currency's nativeness.
type BalanceView struct {
	NativeInput  *currency.Amount
	NativeOutput *currency.Amount
	TokenInput   *currency.Amount
	TokenOutput  *currency.Amount
}

// DerivedSwapInfo is the complete view-model for a swap form: both
// currencies, resolved amounts and balances per side, display strings, the
// recipient, the quote state and the wrap classification. It is recomputed
// from scratch on every relevant input change and never persisted.
type DerivedSwapInfo struct {
	Currencies       FieldPair[*currency.Currency]
	CurrencyAmounts  FieldPair[*currency.Amount]
	CurrencyBalances FieldPair[*currency.Amount]
	ExactAmount      string
	ExactField       Field
	FormattedAmounts FieldPair[string]
	Recipient        *common.Address
	Quote            QuoteResult
	WrapType         WrapType
}

// Derive combines the current form state, wallet balances and the latest
// quote result into the view-model the UI consumes. Pure: all inputs are
// passed in, nothing is fetched.
//
// The exact side's formatted amount echoes the user's raw text verbatim so
// the display never fights their typing; the derived side is formatted from
// the computed amount, or empty when no amount is available.
func Derive(form FormState, balances BalanceView, q QuoteResult, classifier WrapClassifier) DerivedSwapInfo {
	currencyIn := form.Currencies.Get(FieldInput)
	currencyOut := form.Currencies.Get(FieldOutput)

	wrapType := classifier.Classify(currencyIn, currencyOut)
	amountSpecified, _ := currency.ParseAmount(form.ExactAmount, form.ExactCurrency())

	var amounts FieldPair[*currency.Amount]
	if IsWrapAction(wrapType) {
		// Wrap and unwrap are 1:1, both sides mirror the typed amount.
		amounts.Set(FieldInput, amountSpecified)
		amounts.Set(FieldOutput, amountSpecified)
	} else {
		amounts.Set(FieldInput, sideAmount(form, q, FieldInput, amountSpecified))
		amounts.Set(FieldOutput, sideAmount(form, q, FieldOutput, amountSpecified))
	}

	var formatted FieldPair[string]
	formatted.Set(form.ExactField, form.ExactAmount)
	formatted.Set(form.ExactField.Other(), formatAmount(amounts.Get(form.ExactField.Other())))

	var currencyBalances FieldPair[*currency.Amount]
	currencyBalances.Set(FieldInput, pickBalance(currencyIn, balances.NativeInput, balances.TokenInput))
	currencyBalances.Set(FieldOutput, pickBalance(currencyOut, balances.NativeOutput, balances.TokenOutput))

	return DerivedSwapInfo{
		Currencies:       form.Currencies,
		CurrencyAmounts:  amounts,
		CurrencyBalances: currencyBalances,
		ExactAmount:      form.ExactAmount,
		ExactField:       form.ExactField,
		FormattedAmounts: formatted,
		Recipient:        form.Recipient,
		Quote:            q,
		WrapType:         wrapType,
	}
}

// sideAmount resolves one side's amount: the typed amount for the exact
// side, the trade's amount for the derived side.
func sideAmount(form FormState, q QuoteResult, field Field, amountSpecified *currency.Amount) *currency.Amount {
	if form.ExactField == field {
		return amountSpecified
	}
	if q.Trade == nil {
		return nil
	}
	if field == FieldInput {
		return q.Trade.InputAmount
	}
	return q.Trade.OutputAmount
}

func formatAmount(a *currency.Amount) string {
	if a == nil {
		return ""
	}
	return a.Exact()
}

// pickBalance selects the native- or token-balance source for a currency.
func pickBalance(c *currency.Currency, native, token *currency.Amount) *currency.Amount {
	if c == nil {
		return nil
	}
	if c.Native {
		return native
	}
	return token
}
