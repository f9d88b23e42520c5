package swap

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/emberwallet/swapcore/engine/currency"
)

// FormState is the raw user input for one swap form: the selected currency on
// each side, the exact amount text as typed, which side the text belongs to,
// and an optional recipient. State is owned by the caller and passed through
// the pipeline explicitly; mutation happens only through the handler methods
// below.
type FormState struct {
	Currencies  FieldPair[*currency.Currency]
	ExactAmount string
	ExactField  Field
	Recipient   *common.Address
}

// SelectCurrency sets the currency on one side of the form.
func (s *FormState) SelectCurrency(field Field, c *currency.Currency) {
	s.Currencies.Set(field, c)
}

// SwitchSides exchanges the input and output currencies. The exact amount
// follows its field, so the typed value now applies to the other currency.
func (s *FormState) SwitchSides() {
	s.Currencies = s.Currencies.Swapped()
	s.ExactField = s.ExactField.Other()
}

// EnterExactAmount records newly typed amount text and which side it is for.
func (s *FormState) EnterExactAmount(field Field, text string) {
	s.ExactField = field
	s.ExactAmount = text
}

// SelectRecipient sets the transfer recipient.
func (s *FormState) SelectRecipient(addr common.Address) {
	s.Recipient = &addr
}

// ExactCurrency returns the currency the typed amount is denominated in.
func (s *FormState) ExactCurrency() *currency.Currency {
	return s.Currencies.Get(s.ExactField)
}

// OtherCurrency returns the currency on the derived side.
func (s *FormState) OtherCurrency() *currency.Currency {
	return s.Currencies.Get(s.ExactField.Other())
}
