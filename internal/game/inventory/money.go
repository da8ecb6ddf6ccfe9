package inventory

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "₽"

// FormatMoney renders amount with the digit grouping of tag, e.g. "₽12,400"
// for English.
func FormatMoney(tag language.Tag, amount int) string {
	return message.NewPrinter(tag).Sprintf("%s%d", CurrencySymbol, amount)
}
