package portfolio

import (
	"fmt"
	"strings"
)

// maskedFallback is shown when a balance cannot be masked meaningfully.
const maskedFallback = "$XX,XXX.XX"

// MaskBalance obscures the exact amount while keeping its rough magnitude,
// e.g. 123456.78 renders as $12X,XXX.78. Balances of one or two integer
// digits keep those digits whole.
func MaskBalance(balance float64) string {
	formatted := fmt.Sprintf("%.2f", balance)

	integerPart, decimalPart, ok := strings.Cut(formatted, ".")
	if !ok || integerPart == "" {
		return maskedFallback
	}
	if len(integerPart) <= 2 {
		return fmt.Sprintf("$%sX,XXX.%s", integerPart, decimalPart)
	}
	return fmt.Sprintf("$%sX,XXX.%s", integerPart[:2], decimalPart)
}
