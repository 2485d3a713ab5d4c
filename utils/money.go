// utils/money.go
package utils

import "fmt"

// FormatAmount renders an amount held in minor units, e.g. 199900 INR
// becomes "INR 1999.00". Prices are stored as int64 minor units everywhere;
// this is the only place they meet a decimal point.
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, minor/100, minor%100)
}
