package models

import "fmt"

// Kroner formats an øre amount as kroner with two decimals, e.g. 375000
// becomes "3750,00". Display conversion happens only at this boundary;
// everything else stays in integer øre.
func Kroner(ore int64) string {
	sign := ""
	if ore < 0 {
		sign = "-"
		ore = -ore
	}
	return fmt.Sprintf("%s%d,%02d", sign, ore/100, ore%100)
}
